package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aluiziolira/go-beer-menu/config"
	"github.com/aluiziolira/go-beer-menu/server"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "load env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Verbose))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).Run(ctx); err != nil {
		slog.Error("query server failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func parseFlags(args []string) (*config.ServerConfig, error) {
	cfg := config.DefaultServerConfig()
	if value, ok := config.EnvString("SERVER_ADDR"); ok {
		cfg.Addr = value
	}
	if value, ok := config.EnvString("SCRAPER_SNAPSHOT_FILE"); ok {
		cfg.SnapshotFile = value
	}
	if value, ok := config.EnvString("SCRAPER_RUN_LOG_FILE"); ok {
		cfg.RunLogFile = value
	}
	if value, ok := config.EnvString("SCRAPER_CHANGELOG_FILE"); ok {
		cfg.ChangelogFile = value
	}
	if value, ok, err := config.EnvDuration("SERVER_STALE_AFTER"); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	} else if ok {
		cfg.StaleAfter = value
	}
	if value, ok, err := config.EnvBool("SERVER_VERBOSE"); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	} else if ok {
		cfg.Verbose = value
	}

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "Listen address")
	fs.StringVar(&cfg.SnapshotFile, "snapshot", cfg.SnapshotFile, "Snapshot JSON path")
	fs.StringVar(&cfg.RunLogFile, "run-log", cfg.RunLogFile, "Run log JSON path")
	fs.StringVar(&cfg.ChangelogFile, "changelog", cfg.ChangelogFile, "Changelog JSON path")
	fs.DurationVar(&cfg.StaleAfter, "stale-after", cfg.StaleAfter, "Snapshot age reported as degraded")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Enable verbose logging")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if info, err := os.Stdout.Stat(); err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
