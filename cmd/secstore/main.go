package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/chainguard-dev/clog"
	"github.com/spf13/cobra"

	"github.com/confkit/securestore/cmd/secstore/commands"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile string
		debug      bool
	)

	cfg := &commands.Config{}

	rootCmd := &cobra.Command{
		Use:   "secstore",
		Short: "Encrypted secret store backed by a pluggable key source",
		Long: `secstore manages an encrypted, integrity-protected secret file.
The master key lives outside the store (OS keyring, key file, Vault,
AWS Secrets Manager, environment) and is resolved through the config
file at startup.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg.Path = configFile

			level := slog.LevelInfo
			if debug {
				level = slog.LevelDebug
			}
			logger := clog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			cmd.SetContext(clog.WithLogger(cmd.Context(), logger))
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "secstore.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	rootCmd.AddCommand(
		commands.NewInitCommand(cfg),
		commands.NewSetCommand(cfg),
		commands.NewGetCommand(cfg),
		commands.NewDeleteCommand(cfg),
		commands.NewListCommand(cfg),
		commands.NewVerifyCommand(cfg),
		commands.NewRotateCommand(cfg),
	)

	return rootCmd.ExecuteContext(context.Background())
}
