// Package models defines data structures for the scraper and the snapshot it produces.
package models

import "time"

// MenuPage is one configured venue menu URL and the category it lists.
type MenuPage struct {
	Label string `json:"label"`
	URL   string `json:"url"`
}

// BeerRecord represents one beer listed on a venue menu page.
// Optional fields are nil when the listing did not carry them.
type BeerRecord struct {
	Name          string   `csv:"name" json:"name"`
	BeerURL       string   `csv:"beer_url" json:"beer_url"`
	ImageURL      *string  `csv:"image_url" json:"image_url"`
	Style         *string  `csv:"style" json:"style"`
	Brewery       *string  `csv:"brewery" json:"brewery"`
	BreweryURL    *string  `csv:"brewery_url" json:"brewery_url"`
	Category      string   `csv:"category" json:"category"`
	Subcategory   *string  `csv:"subcategory" json:"subcategory"`
	ABV           *float64 `csv:"abv" json:"abv"`
	IBU           *int     `csv:"ibu" json:"ibu"`
	Rating        *float64 `csv:"rating" json:"rating"`
	Container     *string  `csv:"container" json:"container"`
	SourceMenuURL string   `csv:"source_menu_url" json:"source_menu_url"`
}

// DedupKey is the run-level uniqueness key: the same beer may appear once per
// menu section.
func (b *BeerRecord) DedupKey() string {
	sub := ""
	if b.Subcategory != nil {
		sub = *b.Subcategory
	}
	return b.BeerURL + "||" + b.Category + "||" + sub
}

// ScrapeStats summarises one pipeline run.
type ScrapeStats struct {
	TotalFetched      int            `json:"total_fetched"`
	TotalValid        int            `json:"total_valid"`
	DuplicatesRemoved int            `json:"duplicates_removed"`
	Errors            int            `json:"errors"`
	ByCategory        map[string]int `json:"by_category"`
}

// ScrapeSnapshot is the persisted artifact consumed by every reader.
type ScrapeSnapshot struct {
	Source                string       `json:"source"`
	FetchedAt             time.Time    `json:"fetched_at"`
	Count                 int          `json:"count"`
	ScrapeDurationSeconds float64      `json:"scrape_duration_seconds"`
	Stats                 ScrapeStats  `json:"stats"`
	Beers                 []BeerRecord `json:"beers"`
}

// ScrapeResult holds the merged output of one aggregation pass, before it is
// stamped and persisted.
type ScrapeResult struct {
	Beers       []BeerRecord
	Stats       ScrapeStats
	StartTime   time.Time
	EndTime     time.Time
	FailedPages []MenuPage
}

// Duration returns how long the aggregation took.
func (r *ScrapeResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// RunLogEntry is one audit record in the rolling scrape log.
type RunLogEntry struct {
	Timestamp       time.Time    `json:"timestamp"`
	Success         bool         `json:"success"`
	DurationSeconds float64      `json:"duration_seconds"`
	BeersCount      *int         `json:"beers_count,omitempty"`
	Error           string       `json:"error,omitempty"`
	Stack           string       `json:"stack,omitempty"`
	Stats           *ScrapeStats `json:"stats"`
}

// ChangelogBeer identifies a beer in a changelog entry.
type ChangelogBeer struct {
	Name        string  `json:"name"`
	Brewery     *string `json:"brewery"`
	Category    string  `json:"category"`
	Subcategory *string `json:"subcategory"`
	BeerURL     string  `json:"beer_url"`
}

// ChangelogEntry lists what changed between two consecutive snapshots.
type ChangelogEntry struct {
	Timestamp    time.Time       `json:"timestamp"`
	AddedCount   int             `json:"added_count"`
	RemovedCount int             `json:"removed_count"`
	Added        []ChangelogBeer `json:"added"`
	Removed      []ChangelogBeer `json:"removed"`
}

// Empty reports whether the entry records no change.
func (e *ChangelogEntry) Empty() bool {
	return len(e.Added) == 0 && len(e.Removed) == 0
}
