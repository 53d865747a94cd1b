//go:build tesseract

package ocr

import (
	"strings"
	"testing"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

func TestReadTitle(t *testing.T) {
	if Version() == "" {
		t.Skip("Tesseract not available")
	}

	// A large card so the 7x13 font is legible after the 2x enlargement.
	img := createCardImage(800, 1120, "GRIZZLED")

	title, err := ReadTitle(img, config.Default().OCR)
	if err != nil {
		if strings.Contains(err.Error(), "language") {
			t.Skip("Tesseract language data not installed")
		}
		t.Fatalf("ReadTitle failed: %v", err)
	}
	if strings.ContainsAny(title, "\n/\\") {
		t.Errorf("Title should be a single clean line, got %q", title)
	}
}
