// Package pipeline merges scraped records and persists the snapshot, run log
// and changelog.
package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-beer-menu/config"
	"github.com/aluiziolira/go-beer-menu/models"
)

// Options configures the optional outputs of a Pipeline.
type Options struct {
	Source    string
	Changelog *Changelog
	CSVFile   string
}

// Pipeline turns a scrape result into the persisted snapshot and records the
// run in the run log.
type Pipeline struct {
	store     SnapshotStore
	runLog    *RunLog
	changelog *Changelog
	source    string
	csvFile   string
	now       func() time.Time
}

// NewPipeline builds a pipeline around store and runLog.
func NewPipeline(store SnapshotStore, runLog *RunLog, opts Options) *Pipeline {
	return &Pipeline{
		store:     store,
		runLog:    runLog,
		changelog: opts.Changelog,
		source:    opts.Source,
		csvFile:   opts.CSVFile,
		now:       time.Now,
	}
}

// FromConfig wires the file-backed store, run log and changelog from cfg.
func FromConfig(cfg *config.Config) *Pipeline {
	var changelog *Changelog
	if cfg.ChangelogFile != "" {
		changelog = NewChangelog(cfg.ChangelogFile, cfg.ChangelogLimit)
	}
	return NewPipeline(
		NewFileStore(cfg.SnapshotFile, cfg.PreviousFile),
		NewRunLog(cfg.RunLogFile, cfg.RunLogLimit),
		Options{
			Source:    cfg.SourceURL,
			Changelog: changelog,
			CSVFile:   cfg.CSVFile,
		},
	)
}

// Snapshot builds the persisted form of result. fetched_at is the time of this
// call, not of the scrape.
func (p *Pipeline) Snapshot(result *models.ScrapeResult) *models.ScrapeSnapshot {
	beers := result.Beers
	if beers == nil {
		beers = []models.BeerRecord{}
	}
	stats := result.Stats
	if stats.ByCategory == nil {
		stats.ByCategory = map[string]int{}
	}
	return &models.ScrapeSnapshot{
		Source:                p.source,
		FetchedAt:             p.now().UTC(),
		Count:                 len(beers),
		ScrapeDurationSeconds: result.Duration().Seconds(),
		Stats:                 stats,
		Beers:                 beers,
	}
}

// Persist saves the snapshot, then updates the changelog and CSV export. Only
// the snapshot write is fatal.
func (p *Pipeline) Persist(result *models.ScrapeResult) (*models.ScrapeSnapshot, error) {
	if result == nil {
		return nil, fmt.Errorf("scrape result is nil")
	}
	snapshot := p.Snapshot(result)
	if err := p.store.Save(snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	slog.Info("snapshot written", slog.Int("beers", snapshot.Count))

	if p.changelog != nil {
		if err := p.recordChangelog(snapshot); err != nil {
			slog.Error("changelog update failed", slog.Any("error", err))
		}
	}
	if p.csvFile != "" {
		if err := ExportCSV(p.csvFile, snapshot.Beers); err != nil {
			slog.Error("csv export failed", slog.String("path", p.csvFile), slog.Any("error", err))
		}
	}
	return snapshot, nil
}

type previousLoader interface {
	LoadPrevious() (*models.ScrapeSnapshot, error)
}

func (p *Pipeline) recordChangelog(current *models.ScrapeSnapshot) error {
	loader, ok := p.store.(previousLoader)
	if !ok {
		return nil
	}
	previous, err := loader.LoadPrevious()
	if errors.Is(err, ErrSnapshotNotFound) {
		slog.Debug("no previous snapshot, skipping changelog")
		return nil
	}
	if err != nil {
		return err
	}

	entry := Diff(previous, current, current.FetchedAt)
	written, err := p.changelog.Record(entry)
	if err != nil {
		return err
	}
	if written {
		slog.Info("changelog updated",
			slog.Int("added", entry.AddedCount),
			slog.Int("removed", entry.RemovedCount),
		)
	}
	return nil
}

// RecordSuccess appends a success entry for snapshot.
func (p *Pipeline) RecordSuccess(snapshot *models.ScrapeSnapshot, duration time.Duration) error {
	count := snapshot.Count
	stats := snapshot.Stats
	return p.runLog.Append(models.RunLogEntry{
		Timestamp:       p.now().UTC(),
		Success:         true,
		DurationSeconds: duration.Seconds(),
		BeersCount:      &count,
		Stats:           &stats,
	})
}

// RecordFailure appends a failure entry. stats is nil when the run failed
// before producing any.
func (p *Pipeline) RecordFailure(runErr error, stack string, stats *models.ScrapeStats, duration time.Duration) error {
	message := "unknown error"
	if runErr != nil {
		message = runErr.Error()
	}
	return p.runLog.Append(models.RunLogEntry{
		Timestamp:       p.now().UTC(),
		Success:         false,
		DurationSeconds: duration.Seconds(),
		Error:           message,
		Stack:           stack,
		Stats:           stats,
	})
}
