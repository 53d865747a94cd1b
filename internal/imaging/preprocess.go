package imaging

import (
	"image"
	"image/color"

	"github.com/anthonynsimon/bild/blur"
	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// Foreground and Background are the two values of a binarized image.
const (
	Foreground uint8 = 255
	Background uint8 = 0
)

// Binarize converts a card scan into an inverted binary image in which dark
// ink (box outlines, text) is Foreground and paper is Background.
//
// The returned image always has its origin at (0, 0), whatever the bounds of
// the source image.
//
// # Algorithm
//
//  1. Grayscale conversion (bild/effect)
//  2. Gaussian blur with cfg.BlurRadius to suppress scan noise (bild/blur)
//  3. Thresholding:
//     - adaptive: a pixel is Foreground when its value is at most the mean of
//     its (2*BlockRadius+1)² neighbourhood minus cfg.Offset. The local mean
//     is a box blur of the smoothed image.
//     - global: a pixel is Foreground when its value is below GlobalLevel
//     (bild/segment, inverted).
//
// Adaptive thresholding is the default because scans have uneven lighting and
// colored card art; only the outline of a solid dark area becomes Foreground,
// which is what the contour stage wants anyway.
func Binarize(img image.Image, cfg config.PreprocessConfig) *image.Gray {
	var smoothed image.Image = effect.Grayscale(img)
	if cfg.BlurRadius > 0 {
		smoothed = blur.Gaussian(smoothed, cfg.BlurRadius)
	}

	b := smoothed.Bounds()
	width, height := b.Dx(), b.Dy()
	result := image.NewGray(image.Rect(0, 0, width, height))

	if cfg.Mode == config.ModeGlobal {
		thresholded := segment.Threshold(smoothed, cfg.GlobalLevel)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if lumaAt(thresholded, x, y) < 128 {
					result.Pix[y*result.Stride+x] = Foreground
				}
			}
		}
		return result
	}

	mean := blur.Box(smoothed, cfg.BlockRadius)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			v := float64(lumaAt(smoothed, x, y))
			m := float64(lumaAt(mean, x, y))
			if v <= m-cfg.Offset {
				result.Pix[y*result.Stride+x] = Foreground
			}
		}
	}
	return result
}

// lumaAt returns the 8-bit gray value at offset (x, y) from the image origin.
// bild returns either *image.Gray or *image.RGBA with R=G=B, so those are read
// directly; anything else goes through the color model.
func lumaAt(img image.Image, x, y int) uint8 {
	switch m := img.(type) {
	case *image.Gray:
		return m.Pix[y*m.Stride+x]
	case *image.RGBA:
		return m.Pix[y*m.Stride+x*4]
	default:
		b := img.Bounds()
		return color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray).Y
	}
}
