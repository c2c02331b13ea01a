package compositor

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/gef-festival/photo-mixer/log"
)

// Layout constants of the attending frame asset. They encode the design
// of frame-attending.png and are configuration, never derived.
const (
	AttendingCanvasSize    = 2000
	AttendingSubjectX      = 291
	AttendingSubjectY      = 421
	AttendingSubjectWidth  = 1050
	AttendingSubjectHeight = 1159
)

// AttendingAspect is the fixed target aspect ratio of the attending crop.
const AttendingAspect = float64(AttendingSubjectWidth) / float64(AttendingSubjectHeight)

const (
	LiveMaxWidth    = 1920
	LiveJPEGQuality = 80
)

var ErrFrameMissing = fmt.Errorf("frame template is missing")

// Compositor flattens a user photo and a decorative frame asset into a
// single output raster. Frame assets live at fixed filesystem paths; a
// broken or absent asset is detected per operation, not at startup.
type Compositor struct {
	attendingFramePath string
	liveFramePath      string
}

func New(attendingFramePath, liveFramePath string) *Compositor {
	return &Compositor{
		attendingFramePath: attendingFramePath,
		liveFramePath:      liveFramePath,
	}
}

// Decode reads a source raster in any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

func (c *Compositor) loadFrame(path string) (image.Image, error) {
	frame, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s", ErrFrameMissing, path, err)
	}
	return frame, nil
}

// Crop rescales the displayed-space region to the source's native
// resolution and samples it. The output dimensions equal the rescaled
// region's native width and height.
func Crop(src image.Image, region CropRegion, displayWidth, displayHeight float64) *image.NRGBA {
	bounds := src.Bounds()
	native := region.Native(displayWidth, displayHeight, bounds.Dx(), bounds.Dy())
	return imaging.Crop(src, native)
}

// ComposeAttending produces the "I will be seen" photo: the cropped
// subject drawn at the fixed canvas position with the frame on top at
// full canvas size. The caller is responsible for requiring a committed
// crop before invoking this. A missing frame asset aborts the operation
// with no partial output.
func (c *Compositor) ComposeAttending(src image.Image, region CropRegion, displayWidth, displayHeight float64) (*image.NRGBA, error) {
	frame, err := c.loadFrame(c.attendingFramePath)
	if err != nil {
		return nil, err
	}

	subject := Crop(src, region, displayWidth, displayHeight)
	subject = imaging.Resize(subject, AttendingSubjectWidth, AttendingSubjectHeight, imaging.Lanczos)

	canvas := imaging.New(AttendingCanvasSize, AttendingCanvasSize, color.Transparent)
	canvas = imaging.Paste(canvas, subject, image.Pt(AttendingSubjectX, AttendingSubjectY))
	canvas = imaging.Overlay(canvas, frame, image.Pt(0, 0), 1.0)

	return canvas, nil
}

// ComposeLive resizes the subject to the feed width and, when requested,
// draws the live frame scaled to cover it. A missing live frame falls
// back silently to the uncomposited, resized subject.
func (c *Compositor) ComposeLive(src image.Image, withFrame bool) *image.NRGBA {
	subject := imaging.Clone(src)
	if subject.Bounds().Dx() > LiveMaxWidth {
		subject = imaging.Resize(subject, LiveMaxWidth, 0, imaging.Lanczos)
	}

	if !withFrame {
		return subject
	}

	frame, err := c.loadFrame(c.liveFramePath)
	if err != nil {
		log.Warn("live frame unavailable, uploading without it", zap.Error(err), log.SourceCompositor)
		return subject
	}

	return overlayCover(subject, frame)
}

// overlayCover crops the frame to the subject's aspect ratio, scales it
// to the subject's size and draws it on top. The crop anchors the
// frame's bottom edge for wide subjects and its horizontal center for
// tall ones, so the branding band stays visible.
func overlayCover(subject *image.NRGBA, frame image.Image) *image.NRGBA {
	w := subject.Bounds().Dx()
	h := subject.Bounds().Dy()
	fw := frame.Bounds().Dx()
	fh := frame.Bounds().Dy()

	imageAspect := float64(w) / float64(h)
	frameAspect := float64(fw) / float64(fh)

	var region image.Rectangle
	if imageAspect > frameAspect {
		sh := int(float64(fw) / imageAspect)
		region = image.Rect(0, fh-sh, fw, fh)
	} else {
		sw := int(float64(fh) * imageAspect)
		sx := (fw - sw) / 2
		region = image.Rect(sx, 0, sx+sw, fh)
	}

	cropped := imaging.Crop(frame, region)
	scaled := imaging.Resize(cropped, w, h, imaging.Lanczos)

	return imaging.Overlay(subject, scaled, image.Pt(0, 0), 1.0)
}

// EncodePNG serializes a composited canvas losslessly (mode used for the
// attending flow).
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("error while encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

// EncodeJPEG serializes a live photo at the fixed feed quality.
func EncodeJPEG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(LiveJPEGQuality)); err != nil {
		return nil, fmt.Errorf("error while encoding jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
