//go:build !gocv

package detection

import "image"

// Backend names the contour extractor compiled into this binary.
const Backend = "builtin"

// FindContours extracts external contours with the built-in tracer. Build
// with -tags gocv to use OpenCV instead.
func FindContours(bin *image.Gray) []Contour {
	return FindExternalContours(bin)
}
