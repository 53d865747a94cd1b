// Package ocr reads the card title from a card scan using Tesseract.
//
// The title band (a fraction of the card, see config.OCRConfig) is cropped,
// enlarged and passed to Tesseract through gosseract/v2. The recognized text
// is reduced to a single line and used as the script name.
//
// # Build Tags
//
// Tesseract is linked through cgo, so it is only compiled in with the
// tesseract build tag:
//
//	go build -tags tesseract ./cmd/customizable-helper
//
// Without the tag, ReadTitle returns ErrUnavailable and callers fall back to
// the image file name.
//
// # Prerequisites
//
// With the tag, Tesseract and its language data must be installed:
//   - Ubuntu/Debian: apt-get install libtesseract-dev tesseract-ocr-eng
//   - macOS: brew install tesseract
package ocr
