package config

import (
	"fmt"
	"time"
)

// ServerConfig holds settings for the read-side query server.
type ServerConfig struct {
	Addr          string
	SnapshotFile  string
	RunLogFile    string
	ChangelogFile string
	StaleAfter    time.Duration
	Verbose       bool
}

// DefaultServerConfig mirrors the scraper's default file locations.
func DefaultServerConfig() *ServerConfig {
	cfg := DefaultConfig()
	return &ServerConfig{
		Addr:          ":8080",
		SnapshotFile:  cfg.SnapshotFile,
		RunLogFile:    cfg.RunLogFile,
		ChangelogFile: cfg.ChangelogFile,
		StaleAfter:    48 * time.Hour,
	}
}

// Validate ensures the server configuration is usable.
func (c *ServerConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.SnapshotFile == "" {
		return fmt.Errorf("snapshot file cannot be empty")
	}
	if c.RunLogFile == "" {
		return fmt.Errorf("run log file cannot be empty")
	}
	if c.ChangelogFile == "" {
		return fmt.Errorf("changelog file cannot be empty")
	}
	if c.StaleAfter <= 0 {
		return fmt.Errorf("stale after must be positive")
	}
	return nil
}
