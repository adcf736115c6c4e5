package main

import (
	"strings"
	"testing"
	"time"
)

func TestParseFlagsDefaults(t *testing.T) {
	cfg, err := parseFlags(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if len(cfg.Pages) != 4 {
		t.Fatalf("pages = %d, want 4", len(cfg.Pages))
	}
}

func TestParseFlagsEnvAndOverrides(t *testing.T) {
	t.Setenv("SCRAPER_MAX_RETRIES", "5")
	t.Setenv("SCRAPER_TIMEOUT", "10s")
	t.Setenv("SCRAPER_MENU_PAGES", "Taps=https://untappd.com/v/x/1?menu_id=1;Cans=https://untappd.com/v/x/1?menu_id=2")

	cfg, err := parseFlags([]string{"-timeout", "5s", "-csv", "out/beers.csv", "-v"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.MaxRetries != 5 {
		t.Fatalf("max retries = %d, want 5 from env", cfg.MaxRetries)
	}
	if cfg.Timeout != 5*time.Second {
		t.Fatalf("timeout = %v, flag should win over env", cfg.Timeout)
	}
	if len(cfg.Pages) != 2 || cfg.Pages[1].Label != "Cans" {
		t.Fatalf("pages = %+v", cfg.Pages)
	}
	if cfg.CSVFile != "out/beers.csv" || !cfg.Verbose {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestParseFlagsInvalidEnv(t *testing.T) {
	t.Setenv("SCRAPER_MAX_RETRIES", "three")
	_, err := parseFlags(nil)
	if err == nil || !strings.Contains(err.Error(), "SCRAPER_MAX_RETRIES") {
		t.Fatalf("expected env error, got %v", err)
	}
}

func TestParseFlagsInvalidPages(t *testing.T) {
	if _, err := parseFlags([]string{"-pages", "no-equals-sign"}); err == nil {
		t.Fatalf("expected error for malformed pages")
	}
}
