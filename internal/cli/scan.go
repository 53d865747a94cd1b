package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/Chr1Z93/SCED-tools/internal/pipeline"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	var (
		workers      int
		margin       int
		write        bool
		outDir       string
		templatePath string
		format       string
	)

	cmd := &cobra.Command{
		Use:   "scan <dir>",
		Short: "Detect every card below a folder and check image sizes",
		Long: `Scan runs the detector on every image below a folder with a bounded number
of workers. Files that fail are reported and do not stop the scan. Afterwards
the image sizes are compared against the folder average and every image that
deviates by more than --margin pixels is listed.

Press Ctrl+C to stop scheduling new files; finished results are still
printed.`,
		Example: `  # Check a folder of scans
  customizable-helper scan ./cards

  # Also write scripts and debug images into ./out
  customizable-helper scan ./cards --write --out-dir ./out --workers 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case FormatText, FormatJSON, FormatYAML:
			default:
				return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatText, FormatJSON, FormatYAML)
			}

			scanOpts := pipeline.ScanOptions{Workers: workers, Margin: margin}
			if write {
				template, err := readTemplate(templatePath)
				if err != nil {
					return err
				}
				scanOpts.Output = &pipeline.OutputOptions{
					Dir:      outDir,
					Template: template,
					Script:   true,
					Debug:    true,
				}
			}

			runner := pipeline.NewRunner(opts.config)
			report, scanErr := runner.Scan(cmd.Context(), args[0], scanOpts)
			if report == nil {
				return scanErr
			}

			w := cmd.OutOrStdout()
			if format == FormatText {
				opts.printer(w).Scan(report)
			} else if err := writeStructured(w, format, report); err != nil {
				return err
			}
			return scanErr
		},
	}

	cmd.Flags().IntVarP(&workers, "workers", "w", runtime.NumCPU(), "Number of images processed at once")
	cmd.Flags().IntVar(&margin, "margin", pipeline.DefaultDimensionMargin, "Pixel deviation from the average size reported as outlier")
	cmd.Flags().BoolVar(&write, "write", false, "Write a script and debug image for every card")
	cmd.Flags().StringVarP(&outDir, "out-dir", "o", "", "Directory for written files, mirroring the scanned folders (default: next to each image)")
	cmd.Flags().StringVarP(&templatePath, "template", "t", "", "Card script template used with --write")
	cmd.Flags().StringVarP(&format, "format", "f", FormatText, "Report format: text, json or yaml")

	return cmd
}
