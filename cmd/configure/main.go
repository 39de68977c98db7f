package main

import (
	"fmt"
	"os"

	"github.com/benvon/proxy-api/cmd/configure/commands"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "proxy-api-configure",
		Short:         "Configuration tool for the Proxy API",
		Long:          "CLI tool for inspecting the CORS policy, rate limits and environment of the Proxy API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewCorsCmd())
	rootCmd.AddCommand(commands.NewEnvCmd())
	rootCmd.AddCommand(commands.NewRatelimitCmd())
	rootCmd.AddCommand(commands.NewValidateCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
