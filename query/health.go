package query

import (
	"time"

	"github.com/aluiziolira/go-beer-menu/models"
)

// DefaultStaleAfter is the snapshot age beyond which health is degraded.
const DefaultStaleAfter = 48 * time.Hour

// HealthStatus is the snapshot health reported by /api/health.
type HealthStatus string

const (
	StatusOK       HealthStatus = "ok"
	StatusDegraded HealthStatus = "degraded"
	StatusError    HealthStatus = "error"
)

// HealthReport is the body of the health endpoint.
type HealthReport struct {
	Status            HealthStatus `json:"status"`
	FetchedAt         *time.Time   `json:"fetched_at"`
	AgeSeconds        *float64     `json:"age_seconds"`
	StaleAfterSeconds float64      `json:"stale_after_seconds"`
	Count             int          `json:"count"`
	Error             string       `json:"error,omitempty"`
}

// Health reports ok while the snapshot is at most staleAfter old and degraded
// after that. A nil snapshot reports an error status.
func Health(snapshot *models.ScrapeSnapshot, now time.Time, staleAfter time.Duration) HealthReport {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	report := HealthReport{StaleAfterSeconds: staleAfter.Seconds()}
	if snapshot == nil {
		report.Status = StatusError
		report.Error = "snapshot not available"
		return report
	}

	fetched := snapshot.FetchedAt
	age := now.Sub(fetched)
	ageSeconds := age.Seconds()
	report.FetchedAt = &fetched
	report.AgeSeconds = &ageSeconds
	report.Count = snapshot.Count

	report.Status = StatusOK
	if age > staleAfter {
		report.Status = StatusDegraded
	}
	return report
}
