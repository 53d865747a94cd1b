// Package cli implements the customizable-helper command line.
//
// The root command loads an optional .env file, sets up slog on stderr, and
// resolves the detector thresholds (defaults or --config YAML) once for every
// subcommand. Reports go to stdout so they can be piped.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/Chr1Z93/SCED-tools/internal/config"
)

// LogLevelEnv selects debug logging when set to "debug".
const LogLevelEnv = "CUSTOMIZABLE_HELPER_LOG_LEVEL"

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	verbose    bool
	noColor    bool

	config config.Config
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{config: config.Default()}

	cmd := &cobra.Command{
		Use:   "customizable-helper",
		Short: "Detect checkbox grids on customizable upgrade cards",
		Long: `customizable-helper finds the upgrade checkboxes on a scanned customizable
card and writes the Lua layout block used by the card's script in Tabletop
Simulator, together with a debug image that shows which boxes were kept.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			setupLogging(cmd.ErrOrStderr(), opts.verbose)

			if opts.configPath == "" {
				return nil
			}
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			opts.config = cfg
			slog.Debug("Loaded thresholds", "path", opts.configPath)
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML file overriding the detector thresholds")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Print reports without colors")

	cmd.AddCommand(newDetectCmd(opts))
	cmd.AddCommand(newScanCmd(opts))
	cmd.AddCommand(newRenderCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))

	return cmd
}

// setupLogging installs a text handler on w. Debug level is enabled by
// --verbose or by LogLevelEnv.
func setupLogging(w io.Writer, verbose bool) {
	level := slog.LevelInfo
	if verbose || strings.EqualFold(os.Getenv(LogLevelEnv), "debug") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func (o *rootOptions) printer(w io.Writer) *Printer {
	if o.noColor {
		return NewPrinter(w, PlainStyles())
	}
	return NewPrinter(w, DefaultStyles())
}

// readTemplate returns the contents of path, or "" when path is empty.
func readTemplate(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read template: %w", err)
	}
	return string(data), nil
}
