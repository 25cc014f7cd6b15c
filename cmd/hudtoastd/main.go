// Package main is the entry point for the hudtoastd overlay daemon.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmylchreest/hudtoast/internal/config"
	"github.com/jmylchreest/hudtoast/internal/daemon"
	"github.com/jmylchreest/hudtoast/internal/tui"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup runs before exit.
func run() int {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/hudtoast/hudtoast.toml)")
	listen := flag.String("listen", "", "Override server.listen (host:port)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	readStdin := flag.Bool("stdin", false, "Read newline-delimited host messages from stdin")
	withTUI := flag.Bool("tui", false, "Render the overlay in this terminal")
	logFile := flag.String("log-file", "", "Write logs to this file instead of stderr")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("hudtoastd version", version)
		return 0
	}

	path := *configPath
	if path == "" {
		p, err := config.ConfigPath()
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to get config path:", err)
			return 1
		}
		path = p
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger, closeLog, err := setupLogger(cfg, *verbose, *logFile, *withTUI)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer closeLog()

	opts := daemon.Options{
		Config:     cfg,
		ConfigPath: path,
		Logger:     logger,
		Version:    version,
		Overrides:  cliOverrides(*listen),
	}
	if *readStdin {
		if *withTUI {
			logger.Error("--stdin and --tui both need the terminal")
			return 2
		}
		opts.Stdin = os.Stdin
		opts.StdinReply = os.Stdout
	}

	d, err := daemon.New(opts)
	if err != nil {
		logger.Error("failed to create daemon", "error", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *withTUI {
		err = runWithTUI(ctx, stop, d)
	} else {
		err = d.Run(ctx)
	}
	if err != nil {
		logger.Error("daemon exited", "error", err)
		return 1
	}
	return 0
}

// cliOverrides returns the flag values that take precedence over the config
// file, including after a hot reload.
func cliOverrides(listen string) func(*config.Config) {
	if listen == "" {
		return nil
	}
	return func(cfg *config.Config) {
		cfg.Server.Listen = listen
	}
}

// runWithTUI runs the daemon in the background and the overlay in the foreground.
// Quitting the overlay stops the daemon.
func runWithTUI(ctx context.Context, stop context.CancelFunc, d *daemon.Daemon) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- d.Run(ctx)
	}()

	select {
	case <-d.Ready():
	case err := <-errCh:
		return err
	}

	updates := d.Subscribe()
	defer d.Unsubscribe(updates)

	uiErr := tui.Run(tui.Options{
		Title:   "hudtoastd " + version,
		Updates: updates,
		Dismiss: d.Dismiss,
	})
	stop()

	return errors.Join(uiErr, <-errCh)
}

// setupLogger builds the slog logger. While the overlay owns the terminal,
// logs are discarded unless a log file is given.
func setupLogger(cfg *config.Config, verbose bool, logFile string, withTUI bool) (*slog.Logger, func(), error) {
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		level = slog.LevelDebug
	}

	var out io.Writer = os.Stderr
	closeFn := func() {}
	switch {
	case logFile != "":
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
		closeFn = func() { _ = f.Close() }
	case withTUI:
		out = io.Discard
	}

	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, closeFn, nil
}
