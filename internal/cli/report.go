package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/Chr1Z93/SCED-tools/internal/layout"
	"github.com/Chr1Z93/SCED-tools/internal/pipeline"
)

// Output formats accepted by --format.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Styles colors the text report.
type Styles struct {
	Heading   lipgloss.Style
	Kept      lipgloss.Style
	Discarded lipgloss.Style
	Stat      lipgloss.Style
	Path      lipgloss.Style
	Warn      lipgloss.Style
}

// DefaultStyles returns the terminal palette. Kept rows are green and
// discarded ones red, like the outlines on the debug image.
func DefaultStyles() Styles {
	return Styles{
		Heading:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("75")),
		Kept:      lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		Discarded: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Stat:      lipgloss.NewStyle().Foreground(lipgloss.Color("230")),
		Path:      lipgloss.NewStyle().Underline(true),
		Warn:      lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
}

// PlainStyles returns styles that leave text untouched.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Heading: plain, Kept: plain, Discarded: plain, Stat: plain, Path: plain, Warn: plain}
}

// FormatRow renders one row as
//
//	Row 1: z-pos = -0.412, count = 3, x-initial = -0.817, x-offsets: [+0.098, +0.098]
func FormatRow(r layout.RowSummary) string {
	offsets := make([]string, len(r.Offsets))
	for i, o := range r.Offsets {
		offsets[i] = fmt.Sprintf("%+.3f", o)
	}
	return fmt.Sprintf("Row %d: z-pos = %+.3f, count = %d, x-initial = %.3f, x-offsets: [%s]",
		r.Index, r.PosZ, r.Count, r.XInitial, strings.Join(offsets, ", "))
}

// Printer writes human readable reports.
type Printer struct {
	w      io.Writer
	styles Styles
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer, styles Styles) *Printer {
	return &Printer{w: w, styles: styles}
}

func (p *Printer) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.w, style.Render(fmt.Sprintf(format, args...)))
}

// Result prints the kept rows, optionally the discarded segments, and the
// summary statistics of a detection result.
func (p *Printer) Result(res *pipeline.Result, discarded bool) {
	p.line(p.styles.Path, "%s", res.Path)
	p.line(p.styles.Stat, "%dx%d px, %d contours, %d candidates", res.Width, res.Height, res.Contours, len(res.Candidates))
	fmt.Fprintln(p.w)

	p.line(p.styles.Heading, "--- Rows (passed all filters) ---")
	if len(res.Summary.Rows) == 0 {
		fmt.Fprintln(p.w, "No rows to display.")
	}
	for _, row := range res.Summary.Rows {
		p.line(p.styles.Kept, "%s", FormatRow(row))
	}

	s := res.Summary.Stats
	fmt.Fprintln(p.w)
	p.line(p.styles.Stat, "x-initial mean:   %.3f", s.XInitialMean)
	p.line(p.styles.Stat, "x-initial median: %.3f", s.XInitialMedian)
	p.line(p.styles.Stat, "x-offset mean:    %+.3f", s.XOffsetMean)
	p.line(p.styles.Stat, "x-offset median:  %+.3f", s.XOffsetMedian)

	if !discarded {
		return
	}
	fmt.Fprintln(p.w)
	if len(res.Partition.Discarded) == 0 {
		fmt.Fprintln(p.w, "No checkboxes were discarded by the filters.")
		return
	}
	p.line(p.styles.Heading, "--- Discarded checkboxes ---")
	for i, seg := range res.Partition.Discarded {
		sorted := seg.Points.SortedByX()
		p.line(p.styles.Discarded, "%s (%s)", FormatRow(layout.DescribeRow(i+1, sorted)), seg.Reason)
	}
}

// Outputs prints the paths of the written files.
func (p *Printer) Outputs(o pipeline.Outputs) {
	if o.DebugPath == "" && o.ScriptPath == "" {
		return
	}
	fmt.Fprintln(p.w)
	if o.DebugPath != "" {
		fmt.Fprintf(p.w, "Debug image saved as '%s'\n", o.DebugPath)
		fmt.Fprintln(p.w, "  - Green = kept, gray = outside zone, orange = spacing, red = row start")
	}
	if o.ScriptPath != "" {
		fmt.Fprintf(p.w, "Lua script saved as '%s'\n", o.ScriptPath)
	}
}

// Scan prints one line per file and the dimension outliers.
func (p *Printer) Scan(report *pipeline.ScanReport) {
	p.line(p.styles.Heading, "--- %s: %d images ---", report.Root, len(report.Files))
	for _, f := range report.Files {
		if f.Err != nil {
			p.line(p.styles.Discarded, "%s: %s", f.Path, f.Error)
			continue
		}
		s := f.Result.Summary
		p.line(p.styles.Kept, "%s: %d rows, xInitial = %.3f, xOffset = %.3f", f.Path, len(s.Rows), s.XInitial, s.XOffset)
	}

	d := report.Dimensions
	fmt.Fprintln(p.w)
	p.line(p.styles.Stat, "Average dimensions: %dx%d px over %d images", d.AvgWidth, d.AvgHeight, d.Count)
	if len(d.Outliers) == 0 {
		fmt.Fprintf(p.w, "All images are within %d px of the average.\n", d.Margin)
	} else {
		p.line(p.styles.Warn, "%d images deviate by more than %d px:", len(d.Outliers), d.Margin)
		for _, o := range d.Outliers {
			p.line(p.styles.Warn, "  %s: %dx%d (dev %d, %d)", o.Path, o.Width, o.Height, o.DevWidth, o.DevHeight)
		}
	}
	if failed := report.Failed(); failed > 0 {
		fmt.Fprintln(p.w)
		p.line(p.styles.Warn, "%d of %d images produced no layout.", failed, len(report.Files))
	}
}

// writeStructured encodes v as JSON or YAML.
func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatText, FormatJSON, FormatYAML)
	}
}
