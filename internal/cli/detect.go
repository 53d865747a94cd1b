package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Chr1Z93/SCED-tools/internal/ocr"
	"github.com/Chr1Z93/SCED-tools/internal/pipeline"
)

// detectReport is the structured output of the detect command.
type detectReport struct {
	Result  *pipeline.Result `json:"result" yaml:"result"`
	Outputs pipeline.Outputs `json:"outputs" yaml:"outputs"`
	Error   string           `json:"error,omitempty" yaml:"error,omitempty"`
}

func newDetectCmd(opts *rootOptions) *cobra.Command {
	var (
		baseDir      string
		outDir       string
		templatePath string
		format       string
		noDebug      bool
		noScript     bool
		discarded    bool
		ocrTitle     bool
	)

	cmd := &cobra.Command{
		Use:   "detect <image|url>",
		Short: "Detect the checkbox grid of one card",
		Long: `Detect finds the checkbox rows on one card scan, prints them, and writes
"<name>_script.ttslua" and "<name>_debug.<ext>" next to the image (or into
--out-dir).

The argument may be a local path, a path relative to --base-dir, or an
http(s) URL, which is downloaded first.`,
		Example: `  # Detect and write script + debug image next to the scan
  customizable-helper detect "Hunter's Armor.png"

  # Insert the block into a card script template
  customizable-helper detect card.png --template template.ttslua --out-dir out

  # Machine readable output, including discarded candidates
  customizable-helper detect card.png --format json --no-debug --no-script`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case FormatText, FormatJSON, FormatYAML:
			default:
				return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatText, FormatJSON, FormatYAML)
			}

			template, err := readTemplate(templatePath)
			if err != nil {
				return err
			}

			if ocrTitle {
				if ocr.Available() {
					slog.Debug("Reading card titles with Tesseract", "version", ocr.Version())
				} else {
					slog.Warn("Built without Tesseract, scripts are named after the image file")
				}
			}

			runner := pipeline.NewRunner(opts.config)
			runner.BaseDir = baseDir

			path, err := runner.Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			res, detectErr := runner.Detect(path)
			if res == nil {
				return detectErr
			}
			if detectErr != nil {
				slog.Warn("No checkbox layout found", "path", path, "error", detectErr)
			}

			outputs, writeErr := runner.WriteOutputs(res, pipeline.OutputOptions{
				Dir:      outDir,
				Template: template,
				Script:   !noScript,
				Debug:    !noDebug,
				TitleOCR: ocrTitle,
			})

			w := cmd.OutOrStdout()
			if format == FormatText {
				p := opts.printer(w)
				p.Result(res, discarded)
				p.Outputs(outputs)
			} else {
				report := detectReport{Result: res, Outputs: outputs}
				if detectErr != nil {
					report.Error = detectErr.Error()
				}
				if err := writeStructured(w, format, report); err != nil {
					return err
				}
			}

			return errors.Join(detectErr, writeErr)
		},
	}

	cmd.Flags().StringVar(&baseDir, "base-dir", "", "Directory relative image paths are also looked up in")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory for the script and debug image (default: next to the image)")
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Card script template containing the layout and name markers")
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Report format: text, json or yaml")
	cmd.Flags().BoolVar(&noDebug, "no-debug", false, "Do not write the debug image")
	cmd.Flags().BoolVar(&noScript, "no-script", false, "Do not write the Lua script")
	cmd.Flags().BoolVar(&discarded, "discarded", false, "Also print the discarded candidates")
	cmd.Flags().BoolVar(&ocrTitle, "ocr-title", false, "Name the script after the card title read with Tesseract")

	return cmd
}
