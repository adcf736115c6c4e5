package pipeline

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-beer-menu/models"
)

// Deduper keeps the first record seen for every composite key, in arrival order.
type Deduper struct {
	seen       *lru.Cache[string, struct{}]
	size       int
	records    []models.BeerRecord
	duplicates int
}

// NewDeduper sizes the seen set for maxSize keys. The set grows past that
// rather than evicting, since a forgotten key would let a duplicate through.
func NewDeduper(maxSize int) (*Deduper, error) {
	cache, err := lru.New[string, struct{}](maxSize)
	if err != nil {
		return nil, fmt.Errorf("create dedupe cache: %w", err)
	}
	return &Deduper{seen: cache, size: maxSize}, nil
}

// Add keeps rec unless its key was already seen. It reports whether rec was kept.
func (d *Deduper) Add(rec models.BeerRecord) bool {
	key := rec.DedupKey()
	if d.seen.Contains(key) {
		d.duplicates++
		return false
	}
	if d.seen.Len() >= d.size {
		d.size *= 2
		d.seen.Resize(d.size)
	}
	d.seen.Add(key, struct{}{})
	d.records = append(d.records, rec)
	return true
}

// Records returns the kept records in first-seen order.
func (d *Deduper) Records() []models.BeerRecord {
	out := make([]models.BeerRecord, len(d.records))
	copy(out, d.records)
	return out
}

// Duplicates returns how many records were dropped.
func (d *Deduper) Duplicates() int {
	return d.duplicates
}
