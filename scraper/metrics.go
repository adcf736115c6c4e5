package scraper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the scraper.
type Metrics struct {
	Registry            *prometheus.Registry
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     prometheus.Histogram
	RetriesTotal        prometheus.Counter
	RateLimitWaitsTotal prometheus.Counter
	ErrorsTotal         *prometheus.CounterVec
	PageFailuresTotal   *prometheus.CounterVec
	BeersExtractedTotal *prometheus.CounterVec
	ValidationWarnings  prometheus.Counter
	DuplicatesRemoved   prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_requests_total",
			Help: "Total HTTP requests issued by the scraper.",
		},
		[]string{"outcome"},
	)
	requestDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scraper_request_duration_seconds",
			Help:    "HTTP request latency for menu page requests.",
			Buckets: prometheus.DefBuckets,
		},
	)
	retries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_retries_total",
			Help: "Total number of retry attempts scheduled.",
		},
	)
	rateLimitWaits := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_rate_limit_waits_total",
			Help: "Total number of backoffs caused by HTTP 429 responses.",
		},
	)
	errorsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_errors_total",
			Help: "Total number of failed request attempts by type.",
		},
		[]string{"error_type"},
	)
	pageFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_page_failures_total",
			Help: "Menu pages that contributed no beers because every attempt failed.",
		},
		[]string{"category"},
	)
	beersExtracted := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scraper_beers_extracted_total",
			Help: "Beers extracted from menu pages before run-level dedup.",
		},
		[]string{"category"},
	)
	validationWarnings := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_validation_warnings_total",
			Help: "Records kept despite failing validation.",
		},
	)
	duplicates := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scraper_duplicates_removed_total",
			Help: "Records dropped by run-level dedup.",
		},
	)

	registry.MustRegister(requests, requestDuration, retries, rateLimitWaits, errorsTotal,
		pageFailures, beersExtracted, validationWarnings, duplicates)

	return &Metrics{
		Registry:            registry,
		RequestsTotal:       requests,
		RequestDuration:     requestDuration,
		RetriesTotal:        retries,
		RateLimitWaitsTotal: rateLimitWaits,
		ErrorsTotal:         errorsTotal,
		PageFailuresTotal:   pageFailures,
		BeersExtractedTotal: beersExtracted,
		ValidationWarnings:  validationWarnings,
		DuplicatesRemoved:   duplicates,
	}
}

// IncRequest increments the requests total counter.
func (m *Metrics) IncRequest(outcome string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records an HTTP request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.RequestDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.RetriesTotal.Inc()
}

// IncRateLimitWait increments the 429 backoff counter.
func (m *Metrics) IncRateLimitWait() {
	if m == nil {
		return
	}
	m.RateLimitWaitsTotal.Inc()
}

// IncError increments the errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(errorType).Inc()
}

// IncPageFailure records a menu page that yielded nothing.
func (m *Metrics) IncPageFailure(category string) {
	if m == nil {
		return
	}
	m.PageFailuresTotal.WithLabelValues(category).Inc()
}

// AddBeers records beers extracted for a category.
func (m *Metrics) AddBeers(category string, n int) {
	if m == nil {
		return
	}
	m.BeersExtractedTotal.WithLabelValues(category).Add(float64(n))
}

// IncValidationWarning records a record kept with warnings.
func (m *Metrics) IncValidationWarning() {
	if m == nil {
		return
	}
	m.ValidationWarnings.Inc()
}

// AddDuplicates records records removed by run-level dedup.
func (m *Metrics) AddDuplicates(n int) {
	if m == nil {
		return
	}
	m.DuplicatesRemoved.Add(float64(n))
}
