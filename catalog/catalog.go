package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/aluiziolira/go-books-catalog/models"
	"github.com/aluiziolira/go-books-catalog/store"
)

// Catalog bundles the services of both datasets.
type Catalog struct {
	Books   *BookService
	Ratings *RatingService
	Results []models.LoadResult
}

// Load reads both datasets concurrently and blocks until both are resident.
// A dataset that fails to load is served empty. The only error is ctx ending
// before both loads finish, in which case no catalog is returned.
func (l *Loader) Load(ctx context.Context) (*Catalog, error) {
	var (
		books         *store.Store[models.Book]
		ratings       *store.Store[models.Rating]
		booksResult   models.LoadResult
		ratingsResult models.LoadResult
	)

	var g errgroup.Group
	g.Go(func() error {
		books, booksResult = l.LoadBooks(ctx)
		return ctx.Err()
	})
	g.Go(func() error {
		ratings, ratingsResult = l.LoadRatings(ctx)
		return ctx.Err()
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	return &Catalog{
		Books:   NewBookService(books),
		Ratings: NewRatingService(ratings, l.cfg.CacheSize, l.metrics),
		Results: []models.LoadResult{booksResult, ratingsResult},
	}, nil
}
