package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/Chr1Z93/SCED-tools/internal/imaging"
	"github.com/Chr1Z93/SCED-tools/internal/ocr"
	"github.com/Chr1Z93/SCED-tools/internal/script"
)

// OutputOptions selects the files written for a detection result.
type OutputOptions struct {
	// Dir receives the outputs. Empty means next to the source image.
	Dir string

	// Template is the card script the layout block is inserted into. Empty
	// writes the bare block.
	Template string

	Script bool
	Debug  bool

	// TitleOCR names the script after the card title read from the image
	// instead of the file name.
	TitleOCR bool
}

// Outputs lists the files written for one result.
type Outputs struct {
	Name       string `json:"name"`
	ScriptPath string `json:"script_path,omitempty"`
	DebugPath  string `json:"debug_path,omitempty"`
}

// CardName returns the name written into the script header: the OCR title
// when requested and readable, otherwise the source file name without its
// extension.
func (r *Runner) CardName(res *Result, useOCR bool) string {
	stem, _ := imaging.BaseName(res.Path)
	if !useOCR || res.Image == nil {
		return stem
	}

	title, err := ocr.ReadTitle(res.Image, r.Config.OCR)
	if err != nil {
		slog.Warn("Could not read card title, using file name", "path", res.Path, "error", err)
		return stem
	}
	slog.Debug("Card title recognized", "path", res.Path, "title", title)
	return title
}

// WriteOutputs writes the debug image and the card script of a result. The
// debug image is written even when detection failed, so a human can see why;
// the script needs a summary and is skipped when the result has no rows.
func (r *Runner) WriteOutputs(res *Result, opts OutputOptions) (Outputs, error) {
	out := Outputs{Name: r.CardName(res, opts.TitleOCR)}

	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
			return out, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	var errs []error

	if opts.Debug && res.Image != nil {
		path := imaging.DebugPath(res.Path, opts.Dir)
		if err := imaging.SaveDebug(res.DebugImage(), path); err != nil {
			errs = append(errs, err)
		} else {
			out.DebugPath = path
		}
	}

	if opts.Script && len(res.Summary.Rows) > 0 {
		block := script.Render(out.Name, res.Summary, r.Config.Layout.Precision)
		text := script.ApplyTemplate(opts.Template, out.Name, block)

		path := script.OutputPath(res.Path, opts.Dir)
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			errs = append(errs, fmt.Errorf("failed to write script: %w", err))
		} else {
			out.ScriptPath = path
		}
	}

	return out, errors.Join(errs...)
}
