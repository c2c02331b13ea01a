package compositor

import (
	"image"
	"math"
)

const (
	UnitPixel   = "px"
	UnitPercent = "%"
)

// CropRegion describes a sub-rectangle of a source image in its
// displayed coordinate space. It only exists during the upload flow and
// is discarded after compositing.
type CropRegion struct {
	X      float64 `json:"x" form:"crop_x"`
	Y      float64 `json:"y" form:"crop_y"`
	Width  float64 `json:"width" form:"crop_width"`
	Height float64 `json:"height" form:"crop_height"`
	Unit   string  `json:"unit" form:"crop_unit"`
}

// Pixels resolves a percent-unit region against the displayed size.
// Pixel-unit regions are returned unchanged.
func (c CropRegion) Pixels(displayWidth, displayHeight float64) CropRegion {
	if c.Unit != UnitPercent {
		return c
	}

	return CropRegion{
		X:      c.X / 100 * displayWidth,
		Y:      c.Y / 100 * displayHeight,
		Width:  c.Width / 100 * displayWidth,
		Height: c.Height / 100 * displayHeight,
		Unit:   UnitPixel,
	}
}

// Native rescales a displayed-space region to the source image's native
// pixel resolution. A zero display size means the region is already in
// native pixels.
func (c CropRegion) Native(displayWidth, displayHeight float64, nativeWidth, nativeHeight int) image.Rectangle {
	if displayWidth == 0 || displayHeight == 0 {
		displayWidth = float64(nativeWidth)
		displayHeight = float64(nativeHeight)
	}

	region := c.Pixels(displayWidth, displayHeight)

	scaleX := float64(nativeWidth) / displayWidth
	scaleY := float64(nativeHeight) / displayHeight

	x := int(math.Round(region.X * scaleX))
	y := int(math.Round(region.Y * scaleY))
	w := int(math.Round(region.Width * scaleX))
	h := int(math.Round(region.Height * scaleY))

	return image.Rect(x, y, x+w, y+h)
}

// CenterAspectCrop builds the default committed crop: 90% of the
// displayed width at the given aspect, shrunk to fit and centered.
func CenterAspectCrop(displayWidth, displayHeight, aspect float64) CropRegion {
	w := displayWidth * 0.9
	h := w / aspect
	if h > displayHeight {
		h = displayHeight
		w = h * aspect
	}

	return CropRegion{
		X:      (displayWidth - w) / 2,
		Y:      (displayHeight - h) / 2,
		Width:  w,
		Height: h,
		Unit:   UnitPixel,
	}
}
