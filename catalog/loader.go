package catalog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aluiziolira/go-books-catalog/config"
	"github.com/aluiziolira/go-books-catalog/metrics"
	"github.com/aluiziolira/go-books-catalog/models"
	"github.com/aluiziolira/go-books-catalog/pipeline"
	"github.com/aluiziolira/go-books-catalog/source"
	"github.com/aluiziolira/go-books-catalog/store"
)

const (
	DatasetBooks   = "books"
	DatasetRatings = "ratings"

	// rows handed to the decode pipeline per submission
	chunkSize = 1000

	progressInterval = 2 * time.Second
)

// Opener resolves a dataset location to a reader.
type Opener interface {
	Open(ctx context.Context, location string) (io.ReadCloser, error)
}

// Loader reads both datasets once at startup.
type Loader struct {
	cfg     *config.Config
	opener  Opener
	metrics *metrics.Metrics
}

// NewLoader builds a loader. A nil opener uses a source.Fetcher built from cfg.
func NewLoader(cfg *config.Config, opener Opener, m *metrics.Metrics) *Loader {
	if opener == nil {
		opener = source.NewFetcher(cfg, m)
	}
	return &Loader{cfg: cfg, opener: opener, metrics: m}
}

// LoadBooks loads the book dataset. Any failure yields an empty store and a
// result carrying the error; the failure is logged, never returned.
func (l *Loader) LoadBooks(ctx context.Context) (*store.Store[models.Book], models.LoadResult) {
	return loadDataset(ctx, l, DatasetBooks, l.cfg.BooksPath, models.BookColumns, decodeBook)
}

// LoadRatings loads the rating dataset under the same rules as LoadBooks.
func (l *Loader) LoadRatings(ctx context.Context) (*store.Store[models.Rating], models.LoadResult) {
	return loadDataset(ctx, l, DatasetRatings, l.cfg.RatingsPath, models.RatingColumns, decodeRating)
}

func loadDataset[T any](ctx context.Context, l *Loader, dataset, location string, required []string, decode pipeline.DecodeFunc[T]) (*store.Store[T], models.LoadResult) {
	result := models.LoadResult{
		Dataset:   dataset,
		Location:  location,
		StartTime: time.Now(),
	}

	records, fallbacks, err := readDataset(ctx, l, location, required, decode)
	result.EndTime = time.Now()
	result.Fallbacks = fallbacks
	if err != nil {
		result.Err = err
		slog.Warn("dataset load failed, serving empty dataset",
			slog.String("dataset", dataset),
			slog.String("location", location),
			slog.Any("error", err),
		)
		l.metrics.ObserveLoad(result)
		return store.Empty[T](), result
	}

	result.Rows = len(records)
	slog.Info("dataset loaded",
		slog.String("dataset", dataset),
		slog.String("location", location),
		slog.Int("rows", result.Rows),
		slog.Any("fallbacks", fallbacks),
		slog.Duration("duration", result.Duration()),
	)
	l.metrics.ObserveLoad(result)
	return store.New(records), result
}

func readDataset[T any](ctx context.Context, l *Loader, location string, required []string, decode pipeline.DecodeFunc[T]) ([]T, map[string]int, error) {
	format, err := pipeline.FormatFor(location, l.cfg.SourceFormat)
	if err != nil {
		return nil, nil, err
	}

	rc, err := l.opener.Open(ctx, location)
	if err != nil {
		return nil, nil, err
	}
	defer rc.Close()

	return DecodeRows(ctx, rc, format, required, l.cfg.MaxRows, l.cfg.DecodeWorkers, decode)
}

// DecodeRows reads at most limit rows from r and decodes them on workers
// goroutines. Records come back in source order; a read error discards
// everything decoded so far.
func DecodeRows[T any](ctx context.Context, r io.Reader, format pipeline.Format, required []string, limit, workers int, decode pipeline.DecodeFunc[T]) ([]T, map[string]int, error) {
	rr, err := pipeline.NewRowReader(r, format, required)
	if err != nil {
		return nil, nil, err
	}

	p := pipeline.NewPipeline(ctx, decode)
	p.Start(workers)
	p.StartMetricsReporting(progressInterval)

	readErr := func() error {
		read := 0
		for limit <= 0 || read < limit {
			want := chunkSize
			if limit > 0 {
				want = min(want, limit-read)
			}
			chunk, err := pipeline.ReadRows(rr, want)
			if err != nil {
				return err
			}
			if err := p.Process(chunk...); err != nil {
				return err
			}
			read += len(chunk)
			if len(chunk) < want {
				return nil
			}
		}
		return nil
	}()

	closeErr := p.Close()
	if closeErr == nil {
		closeErr = ctx.Err()
	}
	if readErr != nil {
		return nil, p.Fallbacks(), readErr
	}
	if closeErr != nil {
		return nil, p.Fallbacks(), fmt.Errorf("decode rows: %w", closeErr)
	}
	return p.Results(), p.Fallbacks(), nil
}
