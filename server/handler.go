// Package server exposes the snapshot, run log and changelog over HTTP.
package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aluiziolira/go-beer-menu/models"
	"github.com/aluiziolira/go-beer-menu/pipeline"
	"github.com/aluiziolira/go-beer-menu/query"
)

// SnapshotLoader reads the current snapshot.
type SnapshotLoader interface {
	Load() (*models.ScrapeSnapshot, error)
}

// RunLogReader reads the scrape run log.
type RunLogReader interface {
	Entries() ([]models.RunLogEntry, error)
}

// ChangelogReader reads the snapshot changelog.
type ChangelogReader interface {
	Entries() ([]models.ChangelogEntry, error)
}

// Handler serves the read-side endpoints. Every request reads from its
// sources afresh.
type Handler struct {
	snapshots  SnapshotLoader
	runLog     RunLogReader
	changelog  ChangelogReader
	staleAfter time.Duration
	now        func() time.Time
}

// NewHandler creates a handler over the given sources.
func NewHandler(snapshots SnapshotLoader, runLog RunLogReader, changelog ChangelogReader, staleAfter time.Duration) *Handler {
	if staleAfter <= 0 {
		staleAfter = query.DefaultStaleAfter
	}
	return &Handler{
		snapshots:  snapshots,
		runLog:     runLog,
		changelog:  changelog,
		staleAfter: staleAfter,
		now:        time.Now,
	}
}

// SetupRoutes registers the API routes on router.
func (h *Handler) SetupRoutes(router gin.IRouter) {
	api := router.Group("/api")
	api.GET("/beers", h.ListBeers)
	api.GET("/stats", h.GetStats)
	api.GET("/changelog", h.GetChangelog)
	api.GET("/scrape-log", h.GetScrapeLog)
	api.GET("/health", h.GetHealth)
}

// BeersResponse is one page of beers with the snapshot it came from.
type BeersResponse struct {
	Source    string    `json:"source"`
	FetchedAt time.Time `json:"fetched_at"`
	query.Page
}

// ListBeers handles GET /api/beers.
func (h *Handler) ListBeers(c *gin.Context) {
	params, err := query.ParseParams(c.Request.URL.Query())
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, ok := h.loadSnapshot(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, BeersResponse{
		Source:    snapshot.Source,
		FetchedAt: snapshot.FetchedAt,
		Page:      query.Apply(snapshot.Beers, params),
	})
}

// GetStats handles GET /api/stats.
func (h *Handler) GetStats(c *gin.Context) {
	top, err := intQuery(c, "top", query.DefaultTopN)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snapshot, ok := h.loadSnapshot(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, query.ComputeStats(snapshot, top))
}

// GetChangelog handles GET /api/changelog.
func (h *Handler) GetChangelog(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.changelog.Entries()
	if err != nil {
		slog.Error("read changelog", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "changelog unreadable"})
		return
	}
	entries = truncate(entries, limit)
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// GetScrapeLog handles GET /api/scrape-log.
func (h *Handler) GetScrapeLog(c *gin.Context) {
	limit, err := intQuery(c, "limit", 0)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entries, err := h.runLog.Entries()
	if err != nil {
		slog.Error("read run log", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "scrape log unreadable"})
		return
	}
	entries = truncate(entries, limit)
	c.JSON(http.StatusOK, gin.H{"entries": entries, "count": len(entries)})
}

// GetHealth handles GET /api/health. A stale snapshot is reported as degraded
// with 200; a missing one is 503.
func (h *Handler) GetHealth(c *gin.Context) {
	snapshot, err := h.snapshots.Load()
	switch {
	case errors.Is(err, pipeline.ErrSnapshotNotFound):
		c.JSON(http.StatusServiceUnavailable, query.Health(nil, h.now(), h.staleAfter))
		return
	case err != nil:
		slog.Error("read snapshot", slog.Any("error", err))
		report := query.Health(nil, h.now(), h.staleAfter)
		report.Error = "snapshot unreadable"
		c.JSON(http.StatusInternalServerError, report)
		return
	}
	c.JSON(http.StatusOK, query.Health(snapshot, h.now(), h.staleAfter))
}

func (h *Handler) loadSnapshot(c *gin.Context) (*models.ScrapeSnapshot, bool) {
	snapshot, err := h.snapshots.Load()
	if errors.Is(err, pipeline.ErrSnapshotNotFound) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "snapshot not available"})
		return nil, false
	}
	if err != nil {
		slog.Error("read snapshot", slog.Any("error", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "snapshot unreadable"})
		return nil, false
	}
	return snapshot, true
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, errors.New("invalid " + key + " " + strconv.Quote(raw))
	}
	return v, nil
}

func truncate[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		return items[:limit]
	}
	return items
}
