package compositor

import (
	"bytes"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gef-festival/photo-mixer/log"
)

func TestMain(m *testing.M) {
	if err := log.Initialize("debug", true); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func writeFrame(t *testing.T, name string, width, height int, fill color.Color) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	frame := imaging.New(width, height, fill)
	require.NoError(t, imaging.Save(frame, path))

	return path
}

func solidImage(width, height int, fill color.Color) image.Image {
	return imaging.New(width, height, fill)
}

func TestComposeAttendingProducesFixedCanvas(t *testing.T) {
	framePath := writeFrame(t, "frame-attending.png", AttendingCanvasSize, AttendingCanvasSize, color.Transparent)
	c := New(framePath, "")

	src := solidImage(4000, 3000, color.NRGBA{R: 255, A: 255})
	crop := CenterAspectCrop(800, 600, AttendingAspect)

	canvas, err := c.ComposeAttending(src, crop, 800, 600)
	require.NoError(t, err)

	assert.Equal(t, AttendingCanvasSize, canvas.Bounds().Dx())
	assert.Equal(t, AttendingCanvasSize, canvas.Bounds().Dy())

	// subject fills its fixed slot, the rest of the canvas stays empty
	inside := canvas.NRGBAAt(AttendingSubjectX+10, AttendingSubjectY+10)
	assert.EqualValues(t, 255, inside.R)
	assert.EqualValues(t, 255, inside.A)

	outside := canvas.NRGBAAt(10, 10)
	assert.EqualValues(t, 0, outside.A)
}

func TestComposeAttendingDrawsFrameOverSubject(t *testing.T) {
	framePath := writeFrame(t, "frame-attending.png", AttendingCanvasSize, AttendingCanvasSize, color.NRGBA{B: 255, A: 255})
	c := New(framePath, "")

	src := solidImage(2100, 2318, color.NRGBA{R: 255, A: 255})
	crop := CropRegion{X: 0, Y: 0, Width: 1050, Height: 1159, Unit: UnitPixel}

	canvas, err := c.ComposeAttending(src, crop, 0, 0)
	require.NoError(t, err)

	// opaque frame wins everywhere, including over the subject slot
	over := canvas.NRGBAAt(AttendingSubjectX+10, AttendingSubjectY+10)
	assert.EqualValues(t, 255, over.B)
	assert.EqualValues(t, 0, over.R)
}

func TestComposeAttendingMissingFrameAborts(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "nope.png"), "")

	src := solidImage(200, 200, color.NRGBA{R: 255, A: 255})
	crop := CropRegion{X: 0, Y: 0, Width: 100, Height: 100, Unit: UnitPixel}

	canvas, err := c.ComposeAttending(src, crop, 0, 0)
	assert.Nil(t, canvas)
	assert.ErrorIs(t, err, ErrFrameMissing)
}

func TestComposeLiveResizesWideSources(t *testing.T) {
	c := New("", "")

	out := c.ComposeLive(solidImage(4000, 3000, color.NRGBA{G: 255, A: 255}), false)

	assert.Equal(t, LiveMaxWidth, out.Bounds().Dx())
	assert.Equal(t, 1440, out.Bounds().Dy())
}

func TestComposeLiveKeepsNarrowSources(t *testing.T) {
	c := New("", "")

	out := c.ComposeLive(solidImage(640, 480, color.NRGBA{G: 255, A: 255}), false)

	assert.Equal(t, 640, out.Bounds().Dx())
	assert.Equal(t, 480, out.Bounds().Dy())
}

func TestComposeLiveMissingFrameFallsBack(t *testing.T) {
	c := New("", filepath.Join(t.TempDir(), "nope.png"))

	out := c.ComposeLive(solidImage(640, 480, color.NRGBA{G: 255, A: 255}), true)

	assert.Equal(t, 640, out.Bounds().Dx())
	assert.Equal(t, 480, out.Bounds().Dy())
	assert.EqualValues(t, 255, out.NRGBAAt(10, 10).G)
}

func TestComposeLiveCoversSubjectWithFrame(t *testing.T) {
	framePath := writeFrame(t, "frame.png", 200, 200, color.NRGBA{B: 255, A: 255})
	c := New("", framePath)

	out := c.ComposeLive(solidImage(100, 50, color.NRGBA{G: 255, A: 255}), true)

	assert.Equal(t, 100, out.Bounds().Dx())
	assert.Equal(t, 50, out.Bounds().Dy())
	assert.EqualValues(t, 255, out.NRGBAAt(50, 25).B)
}

func TestCropOutputDimensionsMatchRescaledRegion(t *testing.T) {
	src := solidImage(4000, 3000, color.NRGBA{R: 255, A: 255})
	region := CropRegion{X: 0, Y: 0, Width: 400, Height: 300, Unit: UnitPixel}

	out := Crop(src, region, 800, 600)

	assert.Equal(t, 2000, out.Bounds().Dx())
	assert.Equal(t, 1500, out.Bounds().Dy())
}

func TestEncodeJPEGAndPNGRoundTrip(t *testing.T) {
	img := solidImage(32, 32, color.NRGBA{R: 1, G: 2, B: 3, A: 255})

	for _, encode := range []func(image.Image) ([]byte, error){EncodePNG, EncodeJPEG} {
		data, err := encode(img)
		require.NoError(t, err)
		require.NotEmpty(t, data)

		decoded, err := imaging.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, 32, decoded.Bounds().Dx())
	}
}
