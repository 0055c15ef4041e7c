// Package source opens dataset locations: local files, or http(s) URLs
// downloaded once with bounded size and retries.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/aluiziolira/go-books-catalog/config"
	"github.com/aluiziolira/go-books-catalog/metrics"
)

// Fetcher resolves dataset locations to readers.
type Fetcher struct {
	cfg       *config.Config
	collector *colly.Collector
	Metrics   *metrics.Metrics

	// sleep waits between attempts; replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error

	mu           sync.Mutex
	totalRetries int
	errorsByType map[string]int
}

// NewFetcher builds a fetcher configured from cfg. m may be nil.
func NewFetcher(cfg *config.Config, m *metrics.Metrics) *Fetcher {
	collector := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(cfg.MaxBodyBytes),
	)
	collector.SetRequestTimeout(cfg.FetchTimeout)
	collector.WithTransport(&http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.FetchTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	})

	return &Fetcher{
		cfg:          cfg,
		collector:    collector,
		Metrics:      m,
		sleep:        sleepContext,
		errorsByType: make(map[string]int),
	}
}

// WithTransport replaces the HTTP transport used for remote locations.
func (f *Fetcher) WithTransport(rt http.RoundTripper) {
	f.collector.WithTransport(rt)
}

// IsRemote reports whether location is an http(s) URL.
func IsRemote(location string) bool {
	lower := strings.ToLower(location)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

// Open returns a reader over the data at location. Local paths and file://
// URLs are opened directly; http(s) URLs are downloaded in full first.
func (f *Fetcher) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	if IsRemote(location) {
		body, err := f.Fetch(ctx, location)
		if err != nil {
			return nil, err
		}
		return io.NopCloser(bytes.NewReader(body)), nil
	}

	path := location
	if strings.Contains(location, "://") {
		parsed, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("parse location %q: %w", location, err)
		}
		if parsed.Scheme != "file" {
			return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, parsed.Scheme)
		}
		path = parsed.Path
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	return file, nil
}

// Fetch downloads rawURL, retrying transient failures with capped
// exponential backoff. A body cut at the size limit is trimmed back to its
// last complete line.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			f.recordRetry()
			delay := f.backoff(attempt)
			slog.Debug("retrying source download",
				slog.String("url", rawURL),
				slog.Int("attempt", attempt),
				slog.Duration("delay", delay),
			)
			if err := f.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		body, err := f.fetchOnce(rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("download %s: %w", rawURL, lastErr)
}

func (f *Fetcher) fetchOnce(rawURL string) ([]byte, error) {
	c := f.collector.Clone()

	var (
		body    []byte
		failure error
		start   time.Time
	)
	c.OnRequest(func(r *colly.Request) {
		start = time.Now()
		f.Metrics.IncFetchRequest("started")
	})
	c.OnResponse(func(r *colly.Response) {
		f.Metrics.ObserveFetchDuration(time.Since(start))
		f.Metrics.IncFetchRequest("completed")
		body = r.Body
	})
	c.OnError(func(r *colly.Response, err error) {
		statusCode := 0
		if r != nil {
			statusCode = r.StatusCode
		}
		failure = classifyError(err, statusCode)
		category := errorTypeLabel(failure)

		f.mu.Lock()
		f.errorsByType[category]++
		f.mu.Unlock()

		slog.Error("source request error",
			slog.String("url", rawURL),
			slog.String("category", category),
			slog.Any("error", err),
		)
		f.Metrics.IncError(category)
	})

	if err := c.Visit(rawURL); err != nil && failure == nil {
		failure = classifyError(err, 0)
	}
	if failure != nil {
		return nil, failure
	}
	if body == nil {
		return nil, errors.New("empty response")
	}
	if max := f.cfg.MaxBodyBytes; max > 0 && len(body) >= max {
		if i := bytes.LastIndexByte(body, '\n'); i >= 0 {
			body = body[:i+1]
		}
		slog.Warn("source body truncated at size limit",
			slog.String("url", rawURL),
			slog.Int("max_bytes", max),
		)
	}
	return body, nil
}

func (f *Fetcher) backoff(attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	base := f.cfg.RetryBackoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<(attempt-1))
	if max := f.cfg.RetryBackoffMax; max > 0 && delay > max {
		delay = max
	}
	return delay
}

func (f *Fetcher) recordRetry() {
	f.mu.Lock()
	f.totalRetries++
	f.mu.Unlock()
	f.Metrics.IncRetries()
}

// TotalRetries reports how many retries have been attempted.
func (f *Fetcher) TotalRetries() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totalRetries
}

// ErrorsByType returns the failed request counts by error category.
func (f *Fetcher) ErrorsByType() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.errorsByType))
	for k, v := range f.errorsByType {
		out[k] = v
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
