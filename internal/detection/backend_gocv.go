//go:build gocv

package detection

import (
	"image"
	"log/slog"

	"gocv.io/x/gocv"
)

// Backend names the contour extractor compiled into this binary.
const Backend = "opencv"

// FindContours extracts external contours with OpenCV (RETR_EXTERNAL,
// CHAIN_APPROX_SIMPLE). It falls back to FindExternalContours if the binary
// image cannot be wrapped in a Mat.
func FindContours(bin *image.Gray) []Contour {
	b := bin.Bounds()
	width, height := b.Dx(), b.Dy()
	if width == 0 || height == 0 {
		return nil
	}

	pix := bin.Pix
	if bin.Stride != width {
		pix = make([]byte, width*height)
		for y := 0; y < height; y++ {
			copy(pix[y*width:(y+1)*width], bin.Pix[y*bin.Stride:y*bin.Stride+width])
		}
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, pix)
	if err != nil {
		slog.Warn("opencv contour backend unavailable, using built-in tracer", "error", err)
		return FindExternalContours(bin)
	}
	defer mat.Close()

	found := gocv.FindContours(mat, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer found.Close()

	contours := make([]Contour, 0, found.Size())
	for _, pts := range found.ToPoints() {
		contours = append(contours, Contour(pts))
	}
	return contours
}
