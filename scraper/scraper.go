package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aluiziolira/go-beer-menu/config"
	"github.com/aluiziolira/go-beer-menu/models"
	"github.com/aluiziolira/go-beer-menu/parser"
	"github.com/aluiziolira/go-beer-menu/pipeline"
)

// Scraper fetches every configured menu page concurrently and merges the
// records into one deduplicated result.
type Scraper struct {
	cfg       *config.Config
	fetcher   *Fetcher
	extractor *parser.Extractor
	Metrics   *Metrics
}

// NewScraper builds a scraper instance configured from cfg.
func NewScraper(cfg *config.Config) (*Scraper, error) {
	metrics := NewMetrics()

	fetcher, err := NewFetcher(cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("create fetcher: %w", err)
	}

	extractor, err := parser.NewExtractor(parser.ExtractorOptions{
		BaseURL:           cfg.BaseURL,
		BeerHost:          cfg.BeerHost(),
		SectionedCategory: cfg.SectionedCategory,
		OnWarnings: func(*models.BeerRecord, []string) {
			metrics.IncValidationWarning()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create extractor: %w", err)
	}

	return &Scraper{
		cfg:       cfg,
		fetcher:   fetcher,
		extractor: extractor,
		Metrics:   metrics,
	}, nil
}

// Extractor exposes the extractor so callers can register extra layouts.
func (s *Scraper) Extractor() *parser.Extractor {
	return s.extractor
}

type pageResult struct {
	page  models.MenuPage
	beers []models.BeerRecord
	err   error
}

// Run scrapes all pages. A failed page contributes nothing and is counted in
// Stats.Errors. Run fails only when ctx is cancelled or the merge cannot start.
func (s *Scraper) Run(ctx context.Context) (*models.ScrapeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	results := make([]pageResult, len(s.cfg.Pages))
	var wg sync.WaitGroup
	for i, page := range s.cfg.Pages {
		wg.Add(1)
		go func(i int, page models.MenuPage) {
			defer wg.Done()
			beers, err := s.scrapePage(ctx, page)
			results[i] = pageResult{page: page, beers: beers, err: err}
		}(i, page)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scrape cancelled: %w", err)
	}

	fetched := 0
	for _, res := range results {
		fetched += len(res.beers)
	}
	deduper, err := pipeline.NewDeduper(max(s.cfg.DedupeMaxSize, fetched))
	if err != nil {
		return nil, err
	}

	stats := models.ScrapeStats{ByCategory: make(map[string]int, len(s.cfg.Pages))}
	for _, page := range s.cfg.Pages {
		stats.ByCategory[page.Label] = 0
	}
	var failed []models.MenuPage
	for _, res := range results {
		if res.err != nil {
			stats.Errors++
			failed = append(failed, res.page)
			s.Metrics.IncPageFailure(res.page.Label)
			slog.Error("menu page failed",
				slog.String("category", res.page.Label),
				slog.String("url", res.page.URL),
				slog.Any("error", res.err),
			)
			continue
		}
		stats.TotalFetched += len(res.beers)
		s.Metrics.AddBeers(res.page.Label, len(res.beers))
		for _, rec := range res.beers {
			deduper.Add(rec)
		}
	}

	beers := deduper.Records()
	for i := range beers {
		stats.ByCategory[beers[i].Category]++
	}
	stats.TotalValid = len(beers)
	stats.DuplicatesRemoved = deduper.Duplicates()
	s.Metrics.AddDuplicates(stats.DuplicatesRemoved)

	result := &models.ScrapeResult{
		Beers:       beers,
		Stats:       stats,
		StartTime:   start,
		EndTime:     time.Now(),
		FailedPages: failed,
	}

	slog.Info("scrape finished",
		slog.Int("pages", len(s.cfg.Pages)),
		slog.Int("failed_pages", stats.Errors),
		slog.Int("fetched", stats.TotalFetched),
		slog.Int("valid", stats.TotalValid),
		slog.Int("duplicates", stats.DuplicatesRemoved),
		slog.Duration("duration", result.Duration()),
	)
	return result, nil
}

func (s *Scraper) scrapePage(ctx context.Context, page models.MenuPage) ([]models.BeerRecord, error) {
	body, err := s.fetcher.Fetch(ctx, page.URL)
	if err != nil {
		return nil, err
	}
	beers, err := s.extractor.ExtractBeersFromPage(string(body), page.Label, page.URL)
	if err != nil {
		return nil, err
	}
	slog.Debug("menu page scraped",
		slog.String("category", page.Label),
		slog.Int("beers", len(beers)),
	)
	return beers, nil
}
