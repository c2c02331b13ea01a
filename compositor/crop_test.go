package compositor

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCropRegionNativeRescalesDisplayedCoordinates(t *testing.T) {
	region := CropRegion{X: 80, Y: 60, Width: 400, Height: 300, Unit: UnitPixel}

	native := region.Native(800, 600, 4000, 3000)

	assert.Equal(t, image.Rect(400, 300, 2400, 1800), native)
}

func TestCropRegionNativeWithoutDisplaySizeIsNativeAlready(t *testing.T) {
	region := CropRegion{X: 10, Y: 20, Width: 100, Height: 200, Unit: UnitPixel}

	native := region.Native(0, 0, 4000, 3000)

	assert.Equal(t, image.Rect(10, 20, 110, 220), native)
}

func TestCropRegionPercentResolvesAgainstDisplayedSize(t *testing.T) {
	region := CropRegion{X: 10, Y: 10, Width: 50, Height: 50, Unit: UnitPercent}

	px := region.Pixels(800, 600)

	assert.Equal(t, UnitPixel, px.Unit)
	assert.InDelta(t, 80, px.X, 0.001)
	assert.InDelta(t, 60, px.Y, 0.001)
	assert.InDelta(t, 400, px.Width, 0.001)
	assert.InDelta(t, 300, px.Height, 0.001)
}

func TestCenterAspectCropUsesNinetyPercentWidth(t *testing.T) {
	crop := CenterAspectCrop(1000, 1200, AttendingAspect)

	assert.InDelta(t, 900, crop.Width, 0.001)
	assert.InDelta(t, 900/AttendingAspect, crop.Height, 0.001)
	assert.InDelta(t, 50, crop.X, 0.001)
	assert.InDelta(t, (1200-900/AttendingAspect)/2, crop.Y, 0.001)
}

func TestCenterAspectCropShrinksToFitShortDisplays(t *testing.T) {
	crop := CenterAspectCrop(1000, 500, AttendingAspect)

	assert.InDelta(t, 500, crop.Height, 0.001)
	assert.InDelta(t, 500*AttendingAspect, crop.Width, 0.001)
	assert.InDelta(t, (1000-500*AttendingAspect)/2, crop.X, 0.001)
	assert.InDelta(t, 0, crop.Y, 0.001)
}
