// Package main is the entry point for the autoreply CLI.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/flemzord/autoreply/internal/config"
	"github.com/flemzord/autoreply/pkg/app"
	"github.com/spf13/cobra"
)

// Set by goreleaser ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "autoreply",
		Short:         "A console auto-reply chat responder",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(versionCmd(), runCmd(), configCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "autoreply %s (commit: %s, built: %s)\n", version, commit, date)
		},
	}
}

func runCmd() *cobra.Command {
	var params app.RunParams
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the interactive auto-reply session",
		RunE: func(_ *cobra.Command, _ []string) error {
			params.Version = version
			params.Commit = commit
			params.Date = date
			return app.Run(params)
		},
	}
	cmd.Flags().StringVarP(&params.ConfigPath, "config", "c", "", "Path to configuration file")
	cmd.Flags().StringVar(&params.Tier, "tier", "", `Override reply tier ("remote" or "local")`)
	cmd.Flags().StringVar(&params.LogLevel, "log-level", "", "Override log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&params.NoSimulate, "no-simulate", false, "Disable the simulated message producer")
	return cmd
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <path>",
		Short: "Validate configuration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConfig(cmd.OutOrStdout(), args[0])
		},
	})
	return cmd
}

func checkConfig(w io.Writer, path string) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	fmt.Fprintln(w, "Configuration OK")
	fmt.Fprintf(w, "  tier:      %s (effective: %s)\n", cfg.Reply.Tier, cfg.EffectiveTier())
	if cfg.RemoteEnabled() {
		fmt.Fprintf(w, "  model:     %s\n", cfg.Reply.Remote.Model)
	}
	fmt.Fprintf(w, "  simulate:  %t\n", cfg.Session.Simulate)
	if cfg.Gateway.Bind != "" {
		fmt.Fprintf(w, "  gateway:   %s\n", cfg.Gateway.Bind)
	}
	return nil
}
