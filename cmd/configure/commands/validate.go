package commands

import (
	"fmt"
	"sort"

	"github.com/benvon/proxy-api/internal/config"
	"github.com/benvon/proxy-api/internal/corspolicy"
	"github.com/benvon/proxy-api/internal/validation"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command
func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		Long:  "Load configuration from .env, the YAML file and the environment and report problems. Allowed origins that can never match a browser Origin header are reported as warnings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, warning := range cfg.Warnings {
				fmt.Fprintf(out, "Warning: %s\n", warning)
			}

			policy := corspolicy.BuildPolicy(cfg.CORS)
			bad := validation.UnmatchableOrigins(policy.AllowedOrigins)
			origins := make([]string, 0, len(bad))
			for o := range bad {
				origins = append(origins, o)
			}
			sort.Strings(origins)
			for _, o := range origins {
				fmt.Fprintf(out, "Warning: allowed origin %q will never match: %v\n", o, bad[o])
			}

			fmt.Fprintf(out, "Configuration is valid (environment %s, port %s).\n", cfg.Environment, cfg.ServerPort)
			return nil
		},
	}
}
