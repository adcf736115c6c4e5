package config

import (
	"strings"
	"testing"
	"time"

	"github.com/aluiziolira/go-beer-menu/models"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "empty base url",
			mutate: func(cfg *Config) {
				cfg.BaseURL = ""
			},
			wantErr: "base URL",
		},
		{
			name: "invalid source url",
			mutate: func(cfg *Config) {
				cfg.SourceURL = "http://"
			},
			wantErr: "source URL",
		},
		{
			name: "no pages",
			mutate: func(cfg *Config) {
				cfg.Pages = nil
			},
			wantErr: "menu page",
		},
		{
			name: "duplicate page url",
			mutate: func(cfg *Config) {
				cfg.Pages = append(cfg.Pages, models.MenuPage{Label: "Again", URL: cfg.Pages[0].URL})
			},
			wantErr: "duplicate url",
		},
		{
			name: "page without host",
			mutate: func(cfg *Config) {
				cfg.Pages[0].URL = "/relative"
			},
			wantErr: "must include a host",
		},
		{
			name: "zero max retries",
			mutate: func(cfg *Config) {
				cfg.MaxRetries = 0
			},
			wantErr: "max retries",
		},
		{
			name: "negative timeout",
			mutate: func(cfg *Config) {
				cfg.Timeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "previous equals snapshot",
			mutate: func(cfg *Config) {
				cfg.PreviousFile = cfg.SnapshotFile
			},
			wantErr: "previous snapshot",
		},
		{
			name: "zero run log limit",
			mutate: func(cfg *Config) {
				cfg.RunLogLimit = 0
			},
			wantErr: "run log limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
	if cfg.Timeout != 30*time.Second || cfg.MaxRetries != 3 || cfg.RunLogLimit != 100 {
		t.Fatalf("unexpected defaults: timeout=%v retries=%d log=%d", cfg.Timeout, cfg.MaxRetries, cfg.RunLogLimit)
	}
	if got := cfg.BeerHost(); got != "untappd.com" {
		t.Fatalf("beer host = %q, want untappd.com", got)
	}
	if got := cfg.AllowedDomains(); len(got) != 1 || got[0] != "untappd.com" {
		t.Fatalf("allowed domains = %v", got)
	}
}

func TestDefaultServerConfigValid(t *testing.T) {
	cfg := DefaultServerConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default server config should validate, got %v", err)
	}
	if cfg.StaleAfter != 48*time.Hour {
		t.Fatalf("stale after = %v, want 48h", cfg.StaleAfter)
	}
}

func TestParsePages(t *testing.T) {
	pages, err := ParsePages("On Tap=https://untappd.com/v/x/1?menu_id=1; Cellar = https://untappd.com/v/x/1?menu_id=2&a=b ;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(pages))
	}
	if pages[1].Label != "Cellar" || pages[1].URL != "https://untappd.com/v/x/1?menu_id=2&a=b" {
		t.Fatalf("unexpected page: %+v", pages[1])
	}
	if got := FormatPages(pages); !strings.HasPrefix(got, "On Tap=") {
		t.Fatalf("format = %q", got)
	}

	for _, bad := range []string{"", "no-separator", "=https://x.test"} {
		if _, err := ParsePages(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}

func TestEnvHelpers(t *testing.T) {
	t.Setenv("BEER_TEST_INT", "7")
	t.Setenv("BEER_TEST_DUR", "1500ms")
	t.Setenv("BEER_TEST_BOOL", "true")
	t.Setenv("BEER_TEST_BLANK", "   ")
	t.Setenv("BEER_TEST_BAD", "seven")

	if v, ok, err := EnvInt("BEER_TEST_INT"); err != nil || !ok || v != 7 {
		t.Fatalf("EnvInt = %d %v %v", v, ok, err)
	}
	if v, ok, err := EnvDuration("BEER_TEST_DUR"); err != nil || !ok || v != 1500*time.Millisecond {
		t.Fatalf("EnvDuration = %v %v %v", v, ok, err)
	}
	if v, ok, err := EnvBool("BEER_TEST_BOOL"); err != nil || !ok || !v {
		t.Fatalf("EnvBool = %v %v %v", v, ok, err)
	}
	if _, ok := EnvString("BEER_TEST_BLANK"); ok {
		t.Fatalf("blank value should be reported unset")
	}
	if _, _, err := EnvInt("BEER_TEST_BAD"); err == nil {
		t.Fatalf("expected parse error")
	}
}
