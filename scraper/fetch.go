package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aluiziolira/go-beer-menu/config"
	"github.com/gocolly/colly/v2"
)

// Fetcher downloads menu pages with a per-attempt timeout and bounded retries.
type Fetcher struct {
	collector         *colly.Collector
	metrics           *Metrics
	maxRetries        int
	backoff           time.Duration
	maxRateLimitWaits int

	sleep func(ctx context.Context, d time.Duration) error
}

// NewFetcher builds a synchronous collector restricted to the hosts of the
// configured menu pages.
func NewFetcher(cfg *config.Config, metrics *Metrics) (*Fetcher, error) {
	domains := cfg.AllowedDomains()
	if len(domains) == 0 {
		return nil, fmt.Errorf("no valid menu page hosts configured")
	}

	collector := colly.NewCollector(
		colly.AllowedDomains(domains...),
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
	)
	collector.SetRequestTimeout(cfg.Timeout)
	collector.IgnoreRobotsTxt = !cfg.RespectRobotsTxt
	// Every HTTP response reaches OnResponse; classifyError decides on status.
	collector.ParseHTTPErrorResponse = true
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Fetcher{
		collector:         collector,
		metrics:           metrics,
		maxRetries:        cfg.MaxRetries,
		backoff:           cfg.RetryBackoff,
		maxRateLimitWaits: cfg.MaxRateLimitWaits,
		sleep:             sleepContext,
	}, nil
}

// WithTransport replaces the HTTP transport used for every request.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// Fetch returns the body of pageURL. Failed attempts wait backoff*attempt
// before the next one. A 429 waits backoff*attempt*2 and repeats the same
// attempt, up to maxRateLimitWaits times per call.
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) ([]byte, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	attempt := 1
	rateLimitWaits := 0
	var lastErr error
	for {
		if err := ctx.Err(); err != nil {
			return nil, &FetchError{URL: pageURL, Attempts: attempt - 1, Err: err}
		}

		body, status, err := f.do(pageURL)
		classified := classifyError(err, status)
		if classified == nil {
			f.metrics.IncRequest("success")
			return body, nil
		}

		lastErr = classified
		label := errorTypeLabel(classified)
		f.metrics.IncRequest("failure")
		f.metrics.IncError(label)

		if isRateLimited(classified) && rateLimitWaits < f.maxRateLimitWaits {
			rateLimitWaits++
			delay := f.backoff * time.Duration(attempt) * 2
			slog.Warn("rate limited, backing off",
				slog.String("url", pageURL),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			f.metrics.IncRateLimitWait()
			if err := f.sleep(ctx, delay); err != nil {
				return nil, &FetchError{URL: pageURL, Attempts: attempt, Err: err}
			}
			continue
		}

		if attempt >= f.maxRetries {
			break
		}

		delay := f.backoff * time.Duration(attempt)
		slog.Warn("request failed, retrying",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", f.maxRetries),
			slog.String("error_type", label),
			slog.Duration("delay", delay),
			slog.Any("error", classified),
		)
		f.metrics.IncRetries()
		if err := f.sleep(ctx, delay); err != nil {
			return nil, &FetchError{URL: pageURL, Attempts: attempt, Err: err}
		}
		attempt++
	}

	slog.Error("fetch failed",
		slog.String("url", pageURL),
		slog.Int("attempts", attempt),
		slog.String("error_type", errorTypeLabel(lastErr)),
		slog.Any("error", lastErr),
	)
	return nil, &FetchError{URL: pageURL, Attempts: attempt, Err: lastErr}
}

// do issues a single request. Each call clones the collector so callbacks
// stay local to the request while the HTTP backend is shared.
func (f *Fetcher) do(pageURL string) ([]byte, int, error) {
	c := f.collector.Clone()
	c.AllowURLRevisit = true
	c.ParseHTTPErrorResponse = true

	var body []byte
	status := 0
	c.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	c.OnError(func(r *colly.Response, _ error) {
		if r != nil && r.StatusCode != 0 {
			status = r.StatusCode
		}
	})

	start := time.Now()
	err := c.Visit(pageURL)
	f.metrics.ObserveDuration(time.Since(start))
	return body, status, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
