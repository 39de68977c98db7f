package commands

import (
	"github.com/benvon/proxy-api/internal/envdump"
	"github.com/spf13/cobra"
)

// NewEnvCmd creates the env command, which prints the environment the way the server does at startup.
func NewEnvCmd() *cobra.Command {
	var redact bool
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Dump environment variables sorted by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []envdump.Option
			if redact {
				opts = append(opts, envdump.WithRedaction())
			}
			return envdump.DumpProcess(cmd.OutOrStdout(), opts...)
		},
	}
	cmd.Flags().BoolVar(&redact, "redact", true, "Mask values of secret-looking variables")
	return cmd
}
