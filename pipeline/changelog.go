package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aluiziolira/go-beer-menu/models"
)

// DefaultChangelogLimit is the number of changelog entries kept.
const DefaultChangelogLimit = 100

// Diff lists beers present in curr but not prev (added) and the reverse
// (removed), keyed by the composite dedup key. Lists follow snapshot order.
func Diff(prev, curr *models.ScrapeSnapshot, at time.Time) models.ChangelogEntry {
	entry := models.ChangelogEntry{
		Timestamp: at.UTC(),
		Added:     []models.ChangelogBeer{},
		Removed:   []models.ChangelogBeer{},
	}

	before := keySet(prev)
	after := keySet(curr)

	if curr != nil {
		for i := range curr.Beers {
			if _, ok := before[curr.Beers[i].DedupKey()]; !ok {
				entry.Added = append(entry.Added, changelogBeer(&curr.Beers[i]))
			}
		}
	}
	if prev != nil {
		for i := range prev.Beers {
			if _, ok := after[prev.Beers[i].DedupKey()]; !ok {
				entry.Removed = append(entry.Removed, changelogBeer(&prev.Beers[i]))
			}
		}
	}

	entry.AddedCount = len(entry.Added)
	entry.RemovedCount = len(entry.Removed)
	return entry
}

func keySet(s *models.ScrapeSnapshot) map[string]struct{} {
	if s == nil {
		return map[string]struct{}{}
	}
	set := make(map[string]struct{}, len(s.Beers))
	for i := range s.Beers {
		set[s.Beers[i].DedupKey()] = struct{}{}
	}
	return set
}

func changelogBeer(b *models.BeerRecord) models.ChangelogBeer {
	return models.ChangelogBeer{
		Name:        b.Name,
		Brewery:     b.Brewery,
		Category:    b.Category,
		Subcategory: b.Subcategory,
		BeerURL:     b.BeerURL,
	}
}

// Changelog is a newest-first JSON array of snapshot diffs.
type Changelog struct {
	Path  string
	Limit int
}

// NewChangelog returns a changelog at path.
func NewChangelog(path string, limit int) *Changelog {
	if limit <= 0 {
		limit = DefaultChangelogLimit
	}
	return &Changelog{Path: path, Limit: limit}
}

// Entries reads the changelog. A missing file is an empty changelog.
func (c *Changelog) Entries() ([]models.ChangelogEntry, error) {
	var entries []models.ChangelogEntry
	if err := readJSON(c.Path, &entries); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []models.ChangelogEntry{}, nil
		}
		return nil, fmt.Errorf("read changelog: %w", err)
	}
	return entries, nil
}

// Record prepends entry unless it is empty. It reports whether anything was written.
func (c *Changelog) Record(entry models.ChangelogEntry) (bool, error) {
	if entry.Empty() {
		return false, nil
	}
	entries, err := c.Entries()
	if err != nil {
		slog.Warn("changelog unreadable, starting a new one",
			slog.String("path", c.Path),
			slog.Any("error", err),
		)
		entries = nil
	}
	entries = prependCapped(entries, entry, c.Limit)
	if err := writeJSONAtomic(c.Path, entries); err != nil {
		return false, fmt.Errorf("write changelog: %w", err)
	}
	return true, nil
}
