package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/aluiziolira/go-beer-menu/config"
)

// envDefaults reads flag defaults from SCRAPER_* variables and remembers the
// first malformed one.
type envDefaults struct {
	err error
}

func (e *envDefaults) String(key, def string) string {
	if value, ok := config.EnvString(key); ok {
		return value
	}
	return def
}

func (e *envDefaults) Int(key string, def int) int {
	value, ok, err := config.EnvInt(key)
	if err != nil {
		e.fail(err)
		return def
	}
	if ok {
		return value
	}
	return def
}

func (e *envDefaults) Duration(key string, def time.Duration) time.Duration {
	value, ok, err := config.EnvDuration(key)
	if err != nil {
		e.fail(err)
		return def
	}
	if ok {
		return value
	}
	return def
}

func (e *envDefaults) Bool(key string, def bool) bool {
	value, ok, err := config.EnvBool(key)
	if err != nil {
		e.fail(err)
		return def
	}
	if ok {
		return value
	}
	return def
}

func (e *envDefaults) fail(err error) {
	if e.err == nil {
		e.err = fmt.Errorf("invalid environment: %w", err)
	}
}

func parseFlags(args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	env := &envDefaults{}

	fs := flag.NewFlagSet("scraper", flag.ContinueOnError)
	baseURL := fs.String("base-url", env.String("SCRAPER_BASE_URL", cfg.BaseURL), "Site base URL used to resolve beer and brewery links")
	sourceURL := fs.String("source", env.String("SCRAPER_SOURCE_URL", cfg.SourceURL), "Venue URL recorded as the snapshot source")
	pages := fs.String("pages", env.String("SCRAPER_MENU_PAGES", config.FormatPages(cfg.Pages)), "Menu pages as Label=URL;Label=URL")
	sectioned := fs.String("sectioned", env.String("SCRAPER_SECTIONED_CATEGORY", cfg.SectionedCategory), "Category whose page groups beers into sections")
	timeout := fs.Duration("timeout", env.Duration("SCRAPER_TIMEOUT", cfg.Timeout), "Per-attempt request timeout")
	maxRetries := fs.Int("max-retries", env.Int("SCRAPER_MAX_RETRIES", cfg.MaxRetries), "Attempts per menu page")
	retryBackoff := fs.Duration("retry-backoff", env.Duration("SCRAPER_RETRY_BACKOFF", cfg.RetryBackoff), "Base retry delay, multiplied by the attempt number")
	rateLimitWaits := fs.Int("max-rate-limit-waits", env.Int("SCRAPER_MAX_RATE_LIMIT_WAITS", cfg.MaxRateLimitWaits), "HTTP 429 backoffs allowed per page before they consume attempts")
	snapshotFile := fs.String("snapshot", env.String("SCRAPER_SNAPSHOT_FILE", cfg.SnapshotFile), "Snapshot JSON path")
	previousFile := fs.String("previous", env.String("SCRAPER_PREVIOUS_FILE", cfg.PreviousFile), "Where the replaced snapshot is kept")
	runLogFile := fs.String("run-log", env.String("SCRAPER_RUN_LOG_FILE", cfg.RunLogFile), "Run log JSON path")
	changelogFile := fs.String("changelog", env.String("SCRAPER_CHANGELOG_FILE", cfg.ChangelogFile), "Changelog JSON path (empty disables)")
	csvFile := fs.String("csv", env.String("SCRAPER_CSV_FILE", cfg.CSVFile), "Optional CSV export path")
	lockFile := fs.String("lock", env.String("SCRAPER_LOCK_FILE", cfg.LockFile), "Run lock file path")
	lockTTL := fs.Duration("lock-ttl", env.Duration("SCRAPER_LOCK_TTL", cfg.LockTTL), "Age after which a lock is considered stale (0 never expires)")
	userAgent := fs.String("user-agent", env.String("SCRAPER_USER_AGENT", cfg.UserAgent), "User-Agent header")
	respectRobots := fs.Bool("respect-robots", env.Bool("SCRAPER_RESPECT_ROBOTS", cfg.RespectRobotsTxt), "Respect robots.txt directives")
	verbose := fs.Bool("v", env.Bool("SCRAPER_VERBOSE", cfg.Verbose), "Enable verbose logging")
	metricsAddr := fs.String("metrics-addr", env.String("SCRAPER_METRICS_ADDR", cfg.MetricsAddr), "Prometheus metrics listen address (e.g. :9090)")

	if env.err != nil {
		return nil, env.err
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	parsedPages, err := config.ParsePages(*pages)
	if err != nil {
		return nil, fmt.Errorf("invalid -pages: %w", err)
	}

	cfg.BaseURL = *baseURL
	cfg.SourceURL = *sourceURL
	cfg.Pages = parsedPages
	cfg.SectionedCategory = *sectioned
	cfg.Timeout = *timeout
	cfg.MaxRetries = *maxRetries
	cfg.RetryBackoff = *retryBackoff
	cfg.MaxRateLimitWaits = *rateLimitWaits
	cfg.SnapshotFile = *snapshotFile
	cfg.PreviousFile = *previousFile
	cfg.RunLogFile = *runLogFile
	cfg.ChangelogFile = *changelogFile
	cfg.CSVFile = *csvFile
	cfg.LockFile = *lockFile
	cfg.LockTTL = *lockTTL
	cfg.UserAgent = *userAgent
	cfg.RespectRobotsTxt = *respectRobots
	cfg.Verbose = *verbose
	cfg.MetricsAddr = *metricsAddr
	return cfg, nil
}
