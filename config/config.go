package config

import (
	"fmt"
	"strings"
	"time"
)

// MaxRows caps how many rows are read from each dataset.
const MaxRows = 10000

// Config holds catalog service configuration.
type Config struct {
	BooksPath        string
	RatingsPath      string
	SettingsPath     string
	SourceFormat     string // csv or jsonl; empty selects by file extension
	MaxRows          int
	DecodeWorkers    int
	Addr             string
	MetricsAddr      string
	CORSOrigins      []string
	MaxPageSize      int
	MaxTopRatedLimit int
	CacheSize        int
	FetchTimeout     time.Duration
	MaxRetries       int
	RetryBackoff     time.Duration
	RetryBackoffMax  time.Duration
	MaxBodyBytes     int
	UserAgent        string
	Verbose          bool
}

// DefaultConfig returns the defaults of a local development setup.
func DefaultConfig() *Config {
	return &Config{
		BooksPath:        "data/books_data.csv",
		RatingsPath:      "data/books_rating.csv",
		SettingsPath:     "settings.json",
		SourceFormat:     "",
		MaxRows:          MaxRows,
		DecodeWorkers:    4,
		Addr:             ":8000",
		MetricsAddr:      "",
		CORSOrigins:      ParseOrigins("http://localhost:3000,http://127.0.0.1:3000"),
		MaxPageSize:      100,
		MaxTopRatedLimit: 50,
		CacheSize:        512,
		FetchTimeout:     30 * time.Second,
		MaxRetries:       2,
		RetryBackoff:     200 * time.Millisecond,
		RetryBackoffMax:  2 * time.Second,
		MaxBodyBytes:     256 << 20,
		UserAgent:        "go-books-catalog/1.0",
		Verbose:          false,
	}
}

// ParseOrigins splits a comma separated origin list, dropping blanks.
func ParseOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BooksPath == "" {
		return fmt.Errorf("books path cannot be empty")
	}
	if c.RatingsPath == "" {
		return fmt.Errorf("ratings path cannot be empty")
	}
	if c.SourceFormat != "" && c.SourceFormat != "csv" && c.SourceFormat != "jsonl" {
		return fmt.Errorf("source format must be csv or jsonl")
	}
	if c.MaxRows <= 0 {
		return fmt.Errorf("max rows must be positive")
	}
	if c.DecodeWorkers <= 0 {
		return fmt.Errorf("decode workers must be positive")
	}
	if c.Addr == "" {
		return fmt.Errorf("listen address cannot be empty")
	}
	if c.MaxPageSize <= 0 {
		return fmt.Errorf("max page size must be positive")
	}
	if c.MaxTopRatedLimit <= 0 {
		return fmt.Errorf("max top-rated limit must be positive")
	}
	if c.CacheSize < 0 {
		return fmt.Errorf("cache size cannot be negative")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("fetch timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max body bytes must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}
