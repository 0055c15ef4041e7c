package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-books-catalog/api"
	"github.com/aluiziolira/go-books-catalog/catalog"
	"github.com/aluiziolira/go-books-catalog/config"
	"github.com/aluiziolira/go-books-catalog/metrics"
	"github.com/aluiziolira/go-books-catalog/models"
	"github.com/aluiziolira/go-books-catalog/source"
)

func main() {
	defaultCfg := config.DefaultConfig()
	booksDefault := defaultCfg.BooksPath
	if value, ok := config.EnvString("BOOKS_DATA_PATH"); ok {
		booksDefault = value
	}
	ratingsDefault := defaultCfg.RatingsPath
	if value, ok := config.EnvString("BOOKS_RATING_PATH"); ok {
		ratingsDefault = value
	}
	settingsDefault := defaultCfg.SettingsPath
	if value, ok := config.EnvString("CONFIG_PATH"); ok {
		settingsDefault = value
	}
	originsDefault := strings.Join(defaultCfg.CORSOrigins, ",")
	if value, ok := config.EnvString("CORS_ORIGINS"); ok {
		originsDefault = value
	}
	addrDefault := defaultCfg.Addr
	if value, ok := config.EnvString("API_ADDR"); ok {
		addrDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("METRICS_ADDR"); ok {
		metricsDefault = value
	}
	workersDefault := defaultCfg.DecodeWorkers
	if value, ok, err := config.EnvInt("DECODE_WORKERS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid DECODE_WORKERS: %v\n", err)
		os.Exit(1)
	} else if ok {
		workersDefault = value
	}

	booksPath := flag.String("books", booksDefault, "Book dataset location (path, file:// or http(s):// URL)")
	ratingsPath := flag.String("ratings", ratingsDefault, "Rating dataset location (path, file:// or http(s):// URL)")
	settingsPath := flag.String("settings", settingsDefault, "JSON settings file")
	format := flag.String("format", "", "Source format: csv or jsonl (default: by file extension)")
	workers := flag.Int("workers", workersDefault, "Number of decode workers")
	addr := flag.String("addr", addrDefault, "HTTP listen address")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	origins := flag.String("cors-origins", originsDefault, "Comma separated allowed CORS origins")
	cacheSize := flag.Int("cache-size", defaultCfg.CacheSize, "Entries per aggregate cache (0 disables caching)")
	fetchTimeoutMs := flag.Int("fetch-timeout", int(defaultCfg.FetchTimeout/time.Millisecond), "Remote source request timeout (milliseconds)")
	maxRetries := flag.Int("max-retries", defaultCfg.MaxRetries, "Maximum retry attempts per remote source")
	retryBackoffMs := flag.Int("retry-backoff", int(defaultCfg.RetryBackoff/time.Millisecond), "Initial retry backoff (milliseconds)")
	retryBackoffMaxMs := flag.Int("retry-backoff-max", int(defaultCfg.RetryBackoffMax/time.Millisecond), "Maximum retry backoff (milliseconds)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level.Level())

	cfg := config.DefaultConfig()
	cfg.BooksPath = *booksPath
	cfg.RatingsPath = *ratingsPath
	cfg.SettingsPath = *settingsPath
	cfg.SourceFormat = strings.ToLower(*format)
	cfg.DecodeWorkers = *workers
	cfg.Addr = *addr
	cfg.MetricsAddr = *metricsAddr
	cfg.CORSOrigins = config.ParseOrigins(*origins)
	cfg.CacheSize = *cacheSize
	cfg.FetchTimeout = time.Duration(*fetchTimeoutMs) * time.Millisecond
	cfg.MaxRetries = *maxRetries
	cfg.RetryBackoff = time.Duration(*retryBackoffMs) * time.Millisecond
	cfg.RetryBackoffMax = time.Duration(*retryBackoffMaxMs) * time.Millisecond
	cfg.Verbose = *verbose
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		slog.Warn("settings unavailable, using fallback settings",
			slog.String("path", cfg.SettingsPath),
			slog.Any("error", err),
		)
		settings = config.FallbackSettings()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("metrics server failed", slog.Any("error", err))
			}
		}()
		slog.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	slog.Info("loading datasets",
		slog.String("books", cfg.BooksPath),
		slog.String("ratings", cfg.RatingsPath),
		slog.Int("workers", cfg.DecodeWorkers),
	)
	startTime := time.Now()
	fetcher := source.NewFetcher(cfg, m)
	cat, err := catalog.NewLoader(cfg, fetcher, m).Load(ctx)
	if err != nil {
		slog.Info("shutdown signal received during load", slog.Any("error", err))
		return
	}
	printSummary(cat, settings, time.Since(startTime), fetcher)

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.NewRouter(cfg, settings, cat, m),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("starting server", slog.String("addr", cfg.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutdown signal received, draining connections")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown failed", slog.Any("error", err))
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown failed", slog.Any("error", err))
		}
	}
}

func printSummary(cat *catalog.Catalog, settings config.Settings, duration time.Duration, fetcher *source.Fetcher) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Catalog loaded")

	for _, result := range cat.Results {
		printResult(result)
	}
	if retries := fetcher.TotalRetries(); retries > 0 {
		fmt.Printf("  Fetch retries: %d\n", retries)
	}
	if errs := fetcher.ErrorsByType(); len(errs) > 0 {
		fmt.Printf("  Fetch errors:  %v\n", errs)
	}
	fmt.Printf("  Page size:     %d\n", settings.PageSize)
	fmt.Printf("  Ratings API:   %t\n", settings.IsEnabled(config.FeatureRatings))
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Println(separator)
}

func printResult(result models.LoadResult) {
	status := "ok"
	if result.Err != nil {
		status = "failed (" + result.Err.Error() + ")"
	}
	fmt.Printf("  %-8s       %d rows, %s\n", result.Dataset+":", result.Rows, status)
	if len(result.Fallbacks) > 0 {
		fmt.Printf("  %-8s       fallbacks %v\n", "", result.Fallbacks)
	}
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
