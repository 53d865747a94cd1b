//go:build tesseract

package ocr

import (
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// Available reports whether Tesseract support is compiled in.
func Available() bool {
	return true
}

// Version returns the version of the linked Tesseract library.
func Version() string {
	client := gosseract.NewClient()
	defer client.Close()
	return client.Version()
}

// ReadTitle recognizes the card title in the title band of img.
//
// # Errors
//
//   - Returns error if the title band is empty or outside the image
//   - Returns error if the language data is missing or OCR fails
//   - Returns ErrNoTitle if nothing readable was found
func ReadTitle(img image.Image, cfg config.OCRConfig) (string, error) {
	data, err := titleImage(img, cfg)
	if err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(cfg.Language); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	// The band holds a single line of text.
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}

	title := CleanTitle(text)
	if title == "" {
		return "", ErrNoTitle
	}
	return title, nil
}
