package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"

	"github.com/aluiziolira/go-books-catalog/config"
	"github.com/aluiziolira/go-books-catalog/metrics"
)

func newTestFetcher(t *testing.T, cfg *config.Config) (*Fetcher, *httpmock.MockTransport) {
	t.Helper()
	f := NewFetcher(cfg, metrics.New())
	f.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	transport := httpmock.NewMockTransport()
	f.WithTransport(transport)
	return f, transport
}

func TestFetchSuccess(t *testing.T) {
	cfg := config.DefaultConfig()
	f, transport := newTestFetcher(t, cfg)

	const url = "http://example.test/books.csv"
	transport.RegisterResponder("GET", url, httpmock.NewStringResponder(http.StatusOK, "Title\nDune\n"))

	rc, err := f.Open(context.Background(), url)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()

	body, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(body) != "Title\nDune\n" {
		t.Fatalf("body = %q", body)
	}
	if got := transport.GetCallCountInfo()["GET "+url]; got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxRetries = 2
	f, transport := newTestFetcher(t, cfg)

	const url = "http://example.test/ratings.csv"
	transport.RegisterResponder("GET", url, httpmock.ResponderFromMultipleResponses([]*http.Response{
		httpmock.NewStringResponse(http.StatusServiceUnavailable, ""),
		httpmock.NewStringResponse(http.StatusTooManyRequests, ""),
		httpmock.NewStringResponse(http.StatusOK, "Id\nB1\n"),
	}))

	body, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "Id\nB1\n" {
		t.Fatalf("body = %q", body)
	}
	if got := f.TotalRetries(); got != 2 {
		t.Fatalf("retries = %d, want 2", got)
	}
	errs := f.ErrorsByType()
	if errs["server"] != 1 || errs["rate_limited"] != 1 {
		t.Fatalf("errors by type = %v", errs)
	}
}

func TestFetchDoesNotRetryNotFound(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxRetries = 3
	f, transport := newTestFetcher(t, cfg)

	const url = "http://example.test/missing.csv"
	transport.RegisterResponder("GET", url, httpmock.NewStringResponder(http.StatusNotFound, ""))

	_, err := f.Fetch(context.Background(), url)
	var notFound ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := transport.GetCallCountInfo()["GET "+url]; got != 1 {
		t.Fatalf("calls = %d, want 1", got)
	}
	if got := f.TotalRetries(); got != 0 {
		t.Fatalf("retries = %d, want 0", got)
	}
}

func TestFetchStopsWhenContextCancelled(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxRetries = 5
	f, transport := newTestFetcher(t, cfg)

	const url = "http://example.test/flaky.csv"
	transport.RegisterResponder("GET", url, httpmock.NewStringResponder(http.StatusBadGateway, ""))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Fetch(ctx, url); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestFetchTrimsTruncatedBody(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.MaxBodyBytes = 16
	f, transport := newTestFetcher(t, cfg)

	const url = "http://example.test/big.csv"
	transport.RegisterResponder("GET", url, httpmock.NewStringResponder(http.StatusOK, "Title\nDune\nFoundation\n"))

	body, err := f.Fetch(context.Background(), url)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(body) != "Title\nDune\n" {
		t.Fatalf("body = %q, want trimmed to last full line", body)
	}
}

func TestOpenLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "books.csv")
	if err := os.WriteFile(path, []byte("Title\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := NewFetcher(config.DefaultConfig(), nil)
	for _, location := range []string{path, "file://" + path} {
		rc, err := f.Open(context.Background(), location)
		if err != nil {
			t.Fatalf("open %s: %v", location, err)
		}
		body, _ := io.ReadAll(rc)
		rc.Close()
		if string(body) != "Title\n" {
			t.Fatalf("body = %q", body)
		}
	}

	if _, err := f.Open(context.Background(), filepath.Join(t.TempDir(), "absent.csv")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
	if _, err := f.Open(context.Background(), "ftp://example.test/books.csv"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Fatalf("expected ErrUnsupportedScheme, got %v", err)
	}
}

func TestBackoffCapped(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.RetryBackoff = 200 * time.Millisecond
	cfg.RetryBackoffMax = 500 * time.Millisecond
	f := NewFetcher(cfg, nil)

	if got := f.backoff(1); got != 200*time.Millisecond {
		t.Fatalf("first delay = %v", got)
	}
	if got := f.backoff(4); got != cfg.RetryBackoffMax {
		t.Fatalf("delay %v should be capped at %v", got, cfg.RetryBackoffMax)
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		statusCode int
		expected   string
	}{
		{name: "nil", err: nil, statusCode: 0, expected: "unknown"},
		{name: "context timeout", err: context.DeadlineExceeded, statusCode: 0, expected: "timeout"},
		{name: "net timeout", err: &net.DNSError{IsTimeout: true}, statusCode: 0, expected: "timeout"},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, statusCode: 0, expected: "connection"},
		{name: "forbidden", err: nil, statusCode: http.StatusForbidden, expected: "forbidden"},
		{name: "not found", err: nil, statusCode: http.StatusNotFound, expected: "not_found"},
		{name: "rate limited", err: nil, statusCode: http.StatusTooManyRequests, expected: "rate_limited"},
		{name: "server", err: nil, statusCode: http.StatusBadGateway, expected: "server"},
		{name: "other", err: errors.New("some other error"), statusCode: 0, expected: "other"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errorTypeLabel(classifyError(tt.err, tt.statusCode)); got != tt.expected {
				t.Fatalf("classifyError(%v, %d) = %q, want %q", tt.err, tt.statusCode, got, tt.expected)
			}
		})
	}
}

func TestRetryable(t *testing.T) {
	tests := []struct {
		err      error
		expected bool
	}{
		{err: ErrServer{Err: errors.New("502")}, expected: true},
		{err: ErrTimeout{Err: context.DeadlineExceeded}, expected: true},
		{err: ErrNotFound{Err: errors.New("404")}, expected: false},
		{err: ErrForbidden{Err: errors.New("403")}, expected: false},
		{err: fmt.Errorf("wrapped: %w", context.Canceled), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := retryable(tt.err); got != tt.expected {
				t.Fatalf("retryable(%v) = %v, want %v", tt.err, got, tt.expected)
			}
		})
	}
}
