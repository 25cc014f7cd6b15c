// Package main provides the CLI entrypoint for hudtoast.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/hudtoast/internal/client"
	"github.com/jmylchreest/hudtoast/internal/config"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		configPath string
		addr       string
		timeout    time.Duration
	}
	logger *slog.Logger

	// api talks to a running hudtoastd
	api *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "hudtoast",
	Short: "Send and inspect HUD toasts on a running hudtoastd",
	Long: `hudtoast is the command-line client for hudtoastd.

It posts notifications to the overlay, lists and dismisses the toasts
currently on screen, and follows the live event stream.

Running hudtoast without a subcommand attaches the overlay TUI to the daemon.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		addr := globalOpts.addr
		if addr == "" {
			addr = cfg.Server.Listen
		}
		api = client.New(addr, client.WithLogger(logger))
		logger.Debug("using daemon", "url", api.BaseURL())

		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runWatch(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/hudtoast/hudtoast.toml)")
	rootCmd.PersistentFlags().StringVarP(&globalOpts.addr, "addr", "a", "",
		"Daemon address (default: server.listen from config)")
	rootCmd.PersistentFlags().DurationVar(&globalOpts.timeout, "timeout", client.DefaultTimeout,
		"Request timeout")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// requestContext bounds a single daemon call.
func requestContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return context.WithTimeout(cmd.Context(), globalOpts.timeout)
}
