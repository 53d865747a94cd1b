// Package script renders a checkbox layout as the Lua block consumed by the
// upgrade sheet library of the card scripts, and reads such blocks back.
//
// A rendered block looks like:
//
//	-- Customizable Cards: Hunter's Armor
//
//	boxSize  = 40
//	xInitial = -0.893
//	xOffset  = 0.098
//
//	customizations = {
//	  [1] = {
//	    checkboxes = {
//	      posZ = -0.412,
//	      count = 3
//	    }
//	  },
//	}
//	require("playercards/customizable/UpgradeSheetLibrary")
package script

import (
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/Chr1Z93/SCED-tools/internal/layout"
)

// Template markers replaced by ApplyTemplate.
const (
	NameMarker   = "<<TTS_FILE_NAME>>"
	ScriptMarker = "--<<TTS_LUA_SCRIPT>>"
)

// Library is the script every generated block hands its settings to.
const Library = "playercards/customizable/UpgradeSheetLibrary"

// Extension is the file extension of generated scripts.
const Extension = ".ttslua"

// ErrMalformed is returned by Parse for text that is not a layout block.
var ErrMalformed = errors.New("malformed layout script")

// Render formats a layout summary as a Lua block. Floating point values are
// written with precision decimals. The block has no trailing newline so it
// can replace ScriptMarker in a template without changing the surrounding
// line structure.
func Render(name string, s layout.Summary, precision int) string {
	f := func(v float64) string {
		return strconv.FormatFloat(v, 'f', precision, 64)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- Customizable Cards: %s\n\n", name)
	fmt.Fprintf(&b, "boxSize  = %d\n", s.BoxSize)
	fmt.Fprintf(&b, "xInitial = %s\n", f(s.XInitial))
	fmt.Fprintf(&b, "xOffset  = %s\n\n", f(s.XOffset))

	b.WriteString("customizations = {\n")
	for i, row := range s.Rows {
		fmt.Fprintf(&b, "  [%d] = {\n", i+1)
		b.WriteString("    checkboxes = {\n")
		fmt.Fprintf(&b, "      posZ = %s,\n", f(row.PosZ))
		fmt.Fprintf(&b, "      count = %d\n", row.Count)
		b.WriteString("    }\n")
		b.WriteString("  },\n")
	}
	b.WriteString("}\n")
	fmt.Fprintf(&b, "require(%q)", Library)
	return b.String()
}

var (
	nameRe     = regexp.MustCompile(`(?m)^-- Customizable Cards: (.*?)\r?$`)
	boxSizeRe  = regexp.MustCompile(`(?m)^\s*boxSize\s*=\s*(\d+)`)
	xInitialRe = regexp.MustCompile(`(?m)^\s*xInitial\s*=\s*(-?[0-9.]+)`)
	xOffsetRe  = regexp.MustCompile(`(?m)^\s*xOffset\s*=\s*(-?[0-9.]+)`)
	rowRe      = regexp.MustCompile(`\[(\d+)\]\s*=\s*\{\s*checkboxes\s*=\s*\{\s*posZ\s*=\s*(-?[0-9.]+)\s*,\s*count\s*=\s*(\d+)`)
)

// Parse reads a layout block, on its own or embedded in a full card script,
// and returns the card name and the layout. Only the values written by Render
// are recovered; Stats and per-row details are left empty.
func Parse(text string) (string, layout.Summary, error) {
	var s layout.Summary

	var name string
	if m := nameRe.FindStringSubmatch(text); m != nil {
		name = m[1]
	}

	m := boxSizeRe.FindStringSubmatch(text)
	if m == nil {
		return "", s, fmt.Errorf("%w: missing boxSize", ErrMalformed)
	}
	boxSize, err := strconv.Atoi(m[1])
	if err != nil {
		return "", s, fmt.Errorf("%w: boxSize: %v", ErrMalformed, err)
	}
	s.BoxSize = boxSize

	if s.XInitial, err = parseScalar(xInitialRe, text, "xInitial"); err != nil {
		return "", s, err
	}
	if s.XOffset, err = parseScalar(xOffsetRe, text, "xOffset"); err != nil {
		return "", s, err
	}

	for _, m := range rowRe.FindAllStringSubmatch(text, -1) {
		index, err := strconv.Atoi(m[1])
		if err != nil {
			return "", s, fmt.Errorf("%w: row index: %v", ErrMalformed, err)
		}
		if index != len(s.Rows)+1 {
			return "", s, fmt.Errorf("%w: row [%d] out of sequence", ErrMalformed, index)
		}
		posZ, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			return "", s, fmt.Errorf("%w: row [%d] posZ: %v", ErrMalformed, index, err)
		}
		count, err := strconv.Atoi(m[3])
		if err != nil {
			return "", s, fmt.Errorf("%w: row [%d] count: %v", ErrMalformed, index, err)
		}
		s.Rows = append(s.Rows, layout.RowSummary{Index: index, PosZ: posZ, Count: count})
	}

	return name, s, nil
}

func parseScalar(re *regexp.Regexp, text, field string) (float64, error) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, fmt.Errorf("%w: missing %s", ErrMalformed, field)
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrMalformed, field, err)
	}
	return v, nil
}

// ApplyTemplate inserts a rendered block into a card script template: the
// card name replaces NameMarker and the block replaces ScriptMarker. An empty
// template yields the block followed by a newline.
func ApplyTemplate(template, name, block string) string {
	if template == "" {
		return block + "\n"
	}
	out := strings.ReplaceAll(template, NameMarker, name)
	return strings.ReplaceAll(out, ScriptMarker, block)
}

// OutputPath returns "<dir>/<stem>_script.ttslua" for a source image. An
// empty dir means the directory of the source.
func OutputPath(source, dir string) string {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if dir == "" {
		dir = filepath.Dir(source)
	}
	return filepath.Join(dir, stem+"_script"+Extension)
}
