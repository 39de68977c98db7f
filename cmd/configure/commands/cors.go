package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/benvon/proxy-api/internal/config"
	"github.com/benvon/proxy-api/internal/corspolicy"
	"github.com/benvon/proxy-api/internal/validation"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// NewCorsCmd creates the cors command with list and check subcommands.
func NewCorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cors",
		Short: "Inspect the CORS policy",
		Long:  "Show the CORS policy the server would build from the current configuration, or check an origin against it.",
	}
	cmd.AddCommand(newCorsListCmd())
	cmd.AddCommand(newCorsCheckCmd())
	return cmd
}

func loadPolicy() (corspolicy.Policy, error) {
	cfg, err := config.Load()
	if err != nil {
		return corspolicy.Policy{}, fmt.Errorf("load config: %w", err)
	}
	return corspolicy.BuildPolicy(cfg.CORS), nil
}

func newCorsListCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the effective CORS policy",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy, err := loadPolicy()
			if err != nil {
				return err
			}
			return writePolicy(cmd.OutOrStdout(), policy, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "text", "Output format: text, yaml or json")
	return cmd
}

func newCorsCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <origin>",
		Short: "Check whether an origin is allowed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.Validate.Var(args[0], "cors_origin"); err != nil {
				return fmt.Errorf("origin %q is not a valid Origin header value: %w", args[0], validation.Origin(args[0]))
			}
			policy, err := loadPolicy()
			if err != nil {
				return err
			}
			if !policy.AllowsOrigin(args[0]) {
				return fmt.Errorf("origin %q is not allowed by %s", args[0], policy.Name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Origin %s is allowed by %s.\n", args[0], policy.Name)
			return nil
		},
	}
}

func writePolicy(w io.Writer, policy corspolicy.Policy, output string) error {
	switch output {
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(policy); err != nil {
			return fmt.Errorf("encode policy: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(policy)
	case "text", "":
		fmt.Fprintf(w, "CORS policy %s:\n", policy.Name)
		fmt.Fprintln(w, "  Allowed origins:")
		for _, o := range policy.AllowedOrigins {
			fmt.Fprintf(w, "    - %s\n", o)
		}
		fmt.Fprintf(w, "  Allow any header: %v\n", policy.AllowAnyHeader)
		fmt.Fprintf(w, "  Allow any method: %v\n", policy.AllowAnyMethod)
		fmt.Fprintf(w, "  Allow credentials: %v\n", policy.AllowCredentials)
		return nil
	default:
		return fmt.Errorf("unknown output format %q (want text, yaml or json)", output)
	}
}
