package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Chr1Z93/SCED-tools/internal/imaging"
	"github.com/Chr1Z93/SCED-tools/internal/layout"
	"github.com/Chr1Z93/SCED-tools/internal/script"
)

func newRenderCmd(opts *rootOptions) *cobra.Command {
	var (
		name         string
		templatePath string
		outPath      string
	)

	cmd := &cobra.Command{
		Use:   "render <summary.json|script.ttslua>",
		Short: "Re-emit a layout block from a saved summary or script",
		Long: `Render writes the Lua layout block again from a JSON report produced by
"detect --format json", a bare JSON summary, or an existing script. Use it to
change the precision (via --config) or to insert a saved layout into a new
template without running detection again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loadedName, summary, err := loadSummary(args[0])
			if err != nil {
				return err
			}
			if name == "" {
				name = loadedName
			}

			template, err := readTemplate(templatePath)
			if err != nil {
				return err
			}

			block := script.Render(name, summary, opts.config.Layout.Precision)
			text := script.ApplyTemplate(template, name, block)

			if outPath == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
				return fmt.Errorf("failed to write script: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Lua script saved as '%s'\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Card name for the header (default: from the input)")
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Card script template containing the layout and name markers")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Write to this file instead of stdout")

	return cmd
}

// loadSummary reads a layout from a script or a JSON file and returns the
// card name it carries, falling back to the file name.
func loadSummary(path string) (string, layout.Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", layout.Summary{}, fmt.Errorf("failed to read summary: %w", err)
	}
	stem, _ := imaging.BaseName(path)

	if strings.EqualFold(filepath.Ext(path), script.Extension) {
		name, s, err := script.Parse(string(data))
		if err != nil {
			return "", s, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if name == "" {
			name = strings.TrimSuffix(stem, "_script")
		}
		return name, s, nil
	}

	// A detect report nests the summary under result.
	var report struct {
		Result *struct {
			Summary layout.Summary `json:"summary"`
		} `json:"result"`
		Outputs struct {
			Name string `json:"name"`
		} `json:"outputs"`
	}
	if err := json.Unmarshal(data, &report); err != nil {
		return "", layout.Summary{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if report.Result != nil {
		name := report.Outputs.Name
		if name == "" {
			name = stem
		}
		return name, report.Result.Summary, checkSummary(path, report.Result.Summary)
	}

	var s layout.Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return "", s, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return stem, s, checkSummary(path, s)
}

func checkSummary(path string, s layout.Summary) error {
	if len(s.Rows) == 0 {
		return fmt.Errorf("%s: %w", path, layout.ErrNoRows)
	}
	return nil
}
