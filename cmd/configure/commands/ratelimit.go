package commands

import (
	"fmt"

	"github.com/benvon/proxy-api/internal/config"
	"github.com/spf13/cobra"
	"github.com/ulule/limiter/v3"
)

// NewRatelimitCmd creates the ratelimit command.
func NewRatelimitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ratelimit",
		Short: "Inspect rate limit configuration",
		Long:  "Show the per-client rate limit applied to API routes (RATE_LIMIT, e.g. 5-S, 100-M).",
	}
	cmd.AddCommand(newRatelimitListCmd())
	return cmd
}

func newRatelimitListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List current rate limit configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			if cfg.RateLimit == "" {
				fmt.Fprintln(out, "Rate limiting is disabled.")
				return nil
			}
			rate, err := limiter.NewRateFromFormatted(cfg.RateLimit)
			if err != nil {
				return fmt.Errorf("parse rate limit %q: %w", cfg.RateLimit, err)
			}
			store := "memory (per instance)"
			if cfg.RedisURL != "" {
				store = "redis (shared)"
			}
			fmt.Fprintln(out, "Rate limit configuration:")
			fmt.Fprintf(out, "  Rate: %s (%d requests per %s)\n", rate.Formatted, rate.Limit, rate.Period)
			fmt.Fprintf(out, "  Store: %s\n", store)
			return nil
		},
	}
}
