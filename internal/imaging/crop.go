package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// FractionRect converts a region given as fractions of the image size into
// pixel coordinates, clamped to the image bounds.
func FractionRect(bounds image.Rectangle, x1, y1, x2, y2 float64) image.Rectangle {
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())
	r := image.Rect(
		bounds.Min.X+int(x1*w),
		bounds.Min.Y+int(y1*h),
		bounds.Min.X+int(x2*w),
		bounds.Min.Y+int(y2*h),
	)
	return r.Intersect(bounds)
}

// CropScaled extracts a rectangular region and scales it, e.g. to enlarge a
// small title band before OCR.
func CropScaled(img image.Image, region image.Rectangle, scale float64) (image.Image, error) {
	bounds := img.Bounds()
	if !region.In(bounds) {
		return nil, fmt.Errorf("crop region %v outside image bounds %v", region, bounds)
	}
	if region.Empty() {
		return nil, fmt.Errorf("invalid crop region: %v is empty", region)
	}

	cropped := imaging.Crop(img, region)

	if scale != 1.0 && scale > 0 {
		newWidth := int(float64(cropped.Bounds().Dx()) * scale)
		newHeight := int(float64(cropped.Bounds().Dy()) * scale)
		cropped = imaging.Resize(cropped, newWidth, newHeight, imaging.Lanczos)
	}

	return cropped, nil
}
