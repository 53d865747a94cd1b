package cli

import (
	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective detector thresholds as YAML",
		Long: `Config prints the thresholds the other commands would use: the built-in
defaults, overlaid with --config when given. The output is a valid --config
file and a starting point for tuning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := opts.config.Marshal()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
