//go:build !tesseract

package ocr

import (
	"image"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// Available reports whether Tesseract support is compiled in.
func Available() bool {
	return false
}

// Version returns an empty string without Tesseract support.
func Version() string {
	return ""
}

// ReadTitle always returns ErrUnavailable without Tesseract support. The
// title band is still validated so configuration errors surface early.
func ReadTitle(img image.Image, cfg config.OCRConfig) (string, error) {
	if _, err := titleImage(img, cfg); err != nil {
		return "", err
	}
	return "", ErrUnavailable
}
