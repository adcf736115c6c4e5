package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/aluiziolira/go-beer-menu/models"
)

// DefaultRunLogLimit is the number of run records kept.
const DefaultRunLogLimit = 100

// RunLog is a newest-first JSON array of run records capped at Limit entries.
type RunLog struct {
	Path  string
	Limit int
}

// NewRunLog returns a run log at path.
func NewRunLog(path string, limit int) *RunLog {
	if limit <= 0 {
		limit = DefaultRunLogLimit
	}
	return &RunLog{Path: path, Limit: limit}
}

// Entries reads the log. A missing file is an empty log.
func (l *RunLog) Entries() ([]models.RunLogEntry, error) {
	var entries []models.RunLogEntry
	if err := readJSON(l.Path, &entries); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.RunLogEntry{}, nil
		}
		return nil, fmt.Errorf("read run log: %w", err)
	}
	return entries, nil
}

// Append prepends entry and drops the oldest records beyond Limit. An
// unreadable log is replaced rather than blocking every later run.
func (l *RunLog) Append(entry models.RunLogEntry) error {
	entries, err := l.Entries()
	if err != nil {
		slog.Warn("run log unreadable, starting a new one",
			slog.String("path", l.Path),
			slog.Any("error", err),
		)
		entries = nil
	}

	entries = prependCapped(entries, entry, l.Limit)
	if err := writeJSONAtomic(l.Path, entries); err != nil {
		return fmt.Errorf("write run log: %w", err)
	}
	return nil
}

func prependCapped[T any](items []T, item T, limit int) []T {
	out := make([]T, 0, min(len(items)+1, limit))
	out = append(out, item)
	for _, existing := range items {
		if len(out) >= limit {
			break
		}
		out = append(out, existing)
	}
	return out
}
