package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aluiziolira/go-beer-menu/models"
)

// Config holds scraper configuration.
type Config struct {
	BaseURL           string
	SourceURL         string
	Pages             []models.MenuPage
	SectionedCategory string
	Timeout           time.Duration
	MaxRetries        int
	RetryBackoff      time.Duration
	MaxRateLimitWaits int
	SnapshotFile      string
	PreviousFile      string
	RunLogFile        string
	RunLogLimit       int
	ChangelogFile     string
	ChangelogLimit    int
	CSVFile           string
	LockFile          string
	LockTTL           time.Duration
	DedupeMaxSize     int
	UserAgent         string
	Verbose           bool
	RespectRobotsTxt  bool
	MetricsAddr       string
}

// DefaultVenueURL is the canonical venue page recorded as the snapshot source.
const DefaultVenueURL = "https://untappd.com/v/the-hop-cellar/8675309"

// DefaultPages lists the venue's menu sections.
func DefaultPages() []models.MenuPage {
	return []models.MenuPage{
		{Label: "On Tap", URL: DefaultVenueURL + "?menu_id=101"},
		{Label: "Bottles & Cans", URL: DefaultVenueURL + "?menu_id=102"},
		{Label: "Cellar", URL: DefaultVenueURL + "?menu_id=103"},
		{Label: "Coming Soon", URL: DefaultVenueURL + "?menu_id=104"},
	}
}

// DefaultConfig returns defaults matching the production venue.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:           "https://untappd.com",
		SourceURL:         DefaultVenueURL,
		Pages:             DefaultPages(),
		SectionedCategory: "Bottles & Cans",
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryBackoff:      time.Second,
		MaxRateLimitWaits: 5,
		SnapshotFile:      "data/beers.json",
		PreviousFile:      "data/beers.previous.json",
		RunLogFile:        "data/scrape-log.json",
		RunLogLimit:       100,
		ChangelogFile:     "data/changelog.json",
		ChangelogLimit:    100,
		CSVFile:           "",
		LockFile:          "data/scrape.lock",
		LockTTL:           10 * time.Minute,
		DedupeMaxSize:     100000,
		UserAgent:         "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		Verbose:           false,
		RespectRobotsTxt:  false,
		MetricsAddr:       "",
	}
}

// BeerHost returns the host every beer detail URL must live on.
func (c *Config) BeerHost() string {
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

// AllowedDomains returns the distinct hosts of the configured menu pages.
func (c *Config) AllowedDomains() []string {
	seen := make(map[string]struct{}, len(c.Pages))
	domains := make([]string, 0, len(c.Pages))
	for _, page := range c.Pages {
		parsed, err := url.Parse(page.URL)
		if err != nil || parsed.Host == "" {
			continue
		}
		if _, ok := seen[parsed.Host]; ok {
			continue
		}
		seen[parsed.Host] = struct{}{}
		domains = append(domains, parsed.Host)
	}
	return domains
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if err := validateAbsURL("base URL", c.BaseURL); err != nil {
		return err
	}
	if err := validateAbsURL("source URL", c.SourceURL); err != nil {
		return err
	}

	if len(c.Pages) == 0 {
		return fmt.Errorf("at least one menu page is required")
	}
	// A label may span several pages; the same URL twice is a mistake.
	urls := make(map[string]struct{}, len(c.Pages))
	for i, page := range c.Pages {
		if strings.TrimSpace(page.Label) == "" {
			return fmt.Errorf("menu page %d: label cannot be empty", i)
		}
		if _, dup := urls[page.URL]; dup {
			return fmt.Errorf("menu page %d: duplicate url %q", i, page.URL)
		}
		urls[page.URL] = struct{}{}
		if err := validateAbsURL(fmt.Sprintf("menu page %q URL", page.Label), page.URL); err != nil {
			return err
		}
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max retries must be positive")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.MaxRateLimitWaits < 0 {
		return fmt.Errorf("max rate limit waits cannot be negative")
	}
	if c.SnapshotFile == "" {
		return fmt.Errorf("snapshot file cannot be empty")
	}
	if c.PreviousFile == "" || c.PreviousFile == c.SnapshotFile {
		return fmt.Errorf("previous snapshot file must be set and differ from the snapshot file")
	}
	if c.RunLogFile == "" {
		return fmt.Errorf("run log file cannot be empty")
	}
	if c.RunLogLimit <= 0 {
		return fmt.Errorf("run log limit must be positive")
	}
	if c.ChangelogLimit <= 0 {
		return fmt.Errorf("changelog limit must be positive")
	}
	if c.LockTTL < 0 {
		return fmt.Errorf("lock ttl cannot be negative")
	}
	if c.DedupeMaxSize <= 0 {
		return fmt.Errorf("dedupe max size must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

func validateAbsURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
