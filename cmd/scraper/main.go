package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"sort"
	"syscall"
	"time"

	"github.com/aluiziolira/go-beer-menu/config"
	"github.com/aluiziolira/go-beer-menu/models"
	"github.com/aluiziolira/go-beer-menu/pipeline"
	"github.com/aluiziolira/go-beer-menu/scraper"
	"github.com/prometheus/client_golang/prometheus/promhttp"
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

	logger, level := newLogger(cfg.Verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	os.Exit(run(cfg))
}

func run(cfg *config.Config) int {
	var lock *pipeline.Lock
	if cfg.LockFile != "" {
		var err error
		lock, err = pipeline.AcquireLock(cfg.LockFile, cfg.LockTTL)
		if err != nil {
			// Another run owns the snapshot; leave its files and the run log alone.
			slog.Error("acquire run lock", slog.String("lock", cfg.LockFile), slog.Any("error", err))
			return 1
		}
	}
	defer func() {
		if err := lock.Release(); err != nil {
			slog.Error("release lock", slog.Any("error", err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := pipeline.FromConfig(cfg)
	startTime := time.Now()

	s, err := scraper.NewScraper(cfg)
	if err != nil {
		slog.Error("initialising scraper", slog.Any("error", err))
		recordFailure(p, err, "", nil, time.Since(startTime))
		return 1
	}

	metricsServer := startMetricsServer(cfg.MetricsAddr, s.Metrics)
	defer shutdownMetricsServer(metricsServer)

	slog.Info("starting scrape",
		slog.String("source", cfg.SourceURL),
		slog.Int("pages", len(cfg.Pages)),
		slog.Int("max_retries", cfg.MaxRetries),
		slog.Duration("timeout", cfg.Timeout),
	)

	result, snapshot, stack, err := scrapeAndPersist(ctx, s, p)
	duration := time.Since(startTime)
	if err != nil {
		attrs := []any{slog.Any("error", err)}
		if stack != "" {
			attrs = append(attrs, slog.String("stack", stack))
		}
		slog.Error("scrape run failed", attrs...)

		var stats *models.ScrapeStats
		if result != nil {
			stats = &result.Stats
		}
		recordFailure(p, err, stack, stats, duration)
		return 1
	}

	if err := p.RecordSuccess(snapshot, duration); err != nil {
		slog.Error("run log write failed", slog.Any("error", err))
		return 1
	}

	printSummary(result, snapshot, duration, cfg.SnapshotFile)
	return 0
}

// scrapeAndPersist runs the scrape and writes the snapshot. A panic is turned
// into an error with its stack.
func scrapeAndPersist(ctx context.Context, s *scraper.Scraper, p *pipeline.Pipeline) (result *models.ScrapeResult, snapshot *models.ScrapeSnapshot, stack string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			stack = string(debug.Stack())
		}
	}()

	result, err = s.Run(ctx)
	if err != nil {
		return nil, nil, "", err
	}
	snapshot, err = p.Persist(result)
	if err != nil {
		return result, nil, "", err
	}
	return result, snapshot, "", nil
}

func recordFailure(p *pipeline.Pipeline, runErr error, stack string, stats *models.ScrapeStats, duration time.Duration) {
	if err := p.RecordFailure(runErr, stack, stats, duration); err != nil {
		slog.Error("run log write failed", slog.Any("error", err))
	}
}

func startMetricsServer(addr string, metrics *scraper.Metrics) *http.Server {
	if addr == "" || metrics == nil {
		return nil
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server failed", slog.Any("error", err))
		}
	}()
	slog.Info("metrics server enabled", slog.String("addr", addr))
	return srv
}

func shutdownMetricsServer(srv *http.Server) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("metrics server shutdown failed", slog.Any("error", err))
	}
}

func printSummary(result *models.ScrapeResult, snapshot *models.ScrapeSnapshot, duration time.Duration, snapshotFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Scrape complete")

	stats := snapshot.Stats
	fmt.Printf("  Beers:         %d\n", snapshot.Count)
	fmt.Printf("  Fetched:       %d\n", stats.TotalFetched)
	fmt.Printf("  Duplicates:    %d\n", stats.DuplicatesRemoved)
	fmt.Printf("  Page errors:   %d\n", stats.Errors)
	for _, page := range result.FailedPages {
		fmt.Printf("    failed:      %s (%s)\n", page.Label, page.URL)
	}

	labels := make([]string, 0, len(stats.ByCategory))
	for label := range stats.ByCategory {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Printf("  %-14s %d\n", label+":", stats.ByCategory[label])
	}

	fmt.Printf("  Duration:      %v\n", duration.Round(time.Millisecond))
	fmt.Printf("  Snapshot:      %s\n", snapshotFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
