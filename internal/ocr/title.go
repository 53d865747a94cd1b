package ocr

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/Chr1Z93/SCED-tools/internal/config"
	"github.com/Chr1Z93/SCED-tools/internal/imaging"
)

// ErrUnavailable is returned when the binary was built without Tesseract.
var ErrUnavailable = errors.New("ocr support not compiled in (build with -tags tesseract)")

// ErrNoTitle is returned when the title band contains no readable text.
var ErrNoTitle = errors.New("no title text recognized")

// titleScale enlarges the title band; Tesseract does poorly on small glyphs.
const titleScale = 2.0

// titleImage crops the title band of a card and encodes it as PNG.
func titleImage(img image.Image, cfg config.OCRConfig) ([]byte, error) {
	region := imaging.FractionRect(img.Bounds(), cfg.TitleX1, cfg.TitleY1, cfg.TitleX2, cfg.TitleY2)
	band, err := imaging.CropScaled(img, region, titleScale)
	if err != nil {
		return nil, fmt.Errorf("failed to crop title band: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, band); err != nil {
		return nil, fmt.Errorf("failed to encode title band: %w", err)
	}
	return buf.Bytes(), nil
}

// CleanTitle reduces raw OCR output to a single-line title: the first line
// with text, with runs of whitespace collapsed and characters that cannot
// appear in a file name removed.
func CleanTitle(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		line = strings.Map(func(r rune) rune {
			switch r {
			case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
				return -1
			}
			return r
		}, line)
		if title := strings.Join(strings.Fields(line), " "); title != "" {
			return title
		}
	}
	return ""
}
