package catalog

import (
	"maps"
	"slices"

	"github.com/aluiziolira/go-books-catalog/metrics"
	"github.com/aluiziolira/go-books-catalog/models"
	"github.com/aluiziolira/go-books-catalog/query"
	"github.com/aluiziolira/go-books-catalog/store"
)

// RatingQuery holds the optional filters of a rating listing. Empty ids and
// nil scores are unset; set filters combine with AND.
type RatingQuery struct {
	Page     int
	PerPage  int
	BookID   string
	UserID   string
	MinScore *float64
	MaxScore *float64
}

type topRatedKey struct {
	limit      int
	minRatings int
}

// RatingService serves queries and aggregates over the rating dataset.
// Ratings reference books by free-text id; no link to the book dataset is
// enforced.
type RatingService struct {
	ratings *store.Store[models.Rating]
	byBook  *store.Index[string]
	byUser  *store.Index[string]

	stats    *memo[string, *models.BookStats]
	topRated *memo[topRatedKey, []models.TopRatedBook]
}

// NewRatingService wraps a loaded rating store. cacheSize bounds each
// aggregate cache; zero disables caching. m may be nil.
func NewRatingService(ratings *store.Store[models.Rating], cacheSize int, m *metrics.Metrics) *RatingService {
	if ratings == nil {
		ratings = store.Empty[models.Rating]()
	}
	return &RatingService{
		ratings:  ratings,
		byBook:   store.BuildIndex(ratings, func(r models.Rating) string { return r.BookID }),
		byUser:   store.BuildIndex(ratings, func(r models.Rating) string { return r.UserID }),
		stats:    newMemo[string, *models.BookStats]("book_stats", cacheSize, m),
		topRated: newMemo[topRatedKey, []models.TopRatedBook]("top_rated", cacheSize, m),
	}
}

// Len reports how many ratings are loaded.
func (s *RatingService) Len() int {
	return s.ratings.Len()
}

// GetByID returns the rating at id.
func (s *RatingService) GetByID(id int) (models.Rating, bool) {
	return s.ratings.Get(id)
}

// LookupRaw resolves a textual id; non-integer text is not found.
func (s *RatingService) LookupRaw(raw string) (models.Rating, bool) {
	return s.ratings.GetRaw(raw)
}

// List filters and paginates the ratings.
func (s *RatingService) List(q RatingQuery) models.Page[models.Rating] {
	var preds []query.Predicate[models.Rating]
	if q.BookID != "" {
		preds = append(preds, func(r models.Rating) bool { return r.BookID == q.BookID })
	}
	if q.UserID != "" {
		preds = append(preds, func(r models.Rating) bool { return r.UserID == q.UserID })
	}
	if q.MinScore != nil || q.MaxScore != nil {
		preds = append(preds, func(r models.Rating) bool { return query.InRange(r.Score, q.MinScore, q.MaxScore) })
	}
	matches := query.Filter(s.ratings.All(), query.And(preds...))
	return query.Paginate(matches, q.Page, q.PerPage)
}

// ForBook returns every rating whose book id equals bookID.
func (s *RatingService) ForBook(bookID string) []models.Rating {
	return query.Filter(s.ratings.At(s.byBook.Lookup(bookID)), nil)
}

// ByUser returns every rating whose user id equals userID.
func (s *RatingService) ByUser(userID string) []models.Rating {
	return query.Filter(s.ratings.At(s.byUser.Lookup(userID)), nil)
}

// SearchReviews paginates ratings whose summary or text contains text,
// ignoring case.
func (s *RatingService) SearchReviews(text string, page, perPage int) models.Page[models.Rating] {
	needle := query.NewNeedle(text)
	matches := query.Filter(s.ratings.All(), func(r models.Rating) bool {
		return needle.In(r.Summary) || needle.In(r.Text)
	})
	return query.Paginate(matches, page, perPage)
}

// Stats aggregates the scored ratings of bookID. It returns nil when the
// book has no rating with a score.
func (s *RatingService) Stats(bookID string) *models.BookStats {
	stats := s.stats.get(bookID, func() *models.BookStats {
		return s.computeStats(bookID)
	})
	if stats == nil {
		return nil
	}
	out := *stats
	out.ScoreDistribution = maps.Clone(stats.ScoreDistribution)
	return &out
}

func (s *RatingService) computeStats(bookID string) *models.BookStats {
	ids := s.byBook.Lookup(bookID)
	if len(ids) == 0 {
		return nil
	}

	first, _ := s.ratings.Get(ids[0])
	stats := &models.BookStats{
		BookID:            bookID,
		Title:             first.Title,
		ScoreDistribution: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	var sum float64
	for r := range s.ratings.At(ids) {
		if r.Score == nil {
			continue
		}
		score := *r.Score
		stats.TotalRatings++
		sum += score
		if bin := int(score); float64(bin) == score && bin >= 1 && bin <= 5 {
			stats.ScoreDistribution[bin]++
		}
	}
	if stats.TotalRatings == 0 {
		return nil
	}
	stats.AverageScore = sum / float64(stats.TotalRatings)
	return stats
}

// TopRated ranks books by mean score among those with at least minRatings
// scored ratings. Equal means keep the order in which the book ids first
// appear in the dataset. A limit of zero or less yields an empty result.
func (s *RatingService) TopRated(limit, minRatings int) []models.TopRatedBook {
	if limit <= 0 {
		return []models.TopRatedBook{}
	}
	key := topRatedKey{limit: limit, minRatings: minRatings}
	return slices.Clone(s.topRated.get(key, func() []models.TopRatedBook {
		return s.computeTopRated(limit, minRatings)
	}))
}

func (s *RatingService) computeTopRated(limit, minRatings int) []models.TopRatedBook {
	ranked := make([]models.TopRatedBook, 0, s.byBook.Len())
	for bookID := range s.byBook.Keys() {
		ids := s.byBook.Lookup(bookID)
		first, _ := s.ratings.Get(ids[0])

		count := 0
		var sum float64
		for r := range s.ratings.At(ids) {
			if r.Score != nil {
				count++
				sum += *r.Score
			}
		}
		if count == 0 || count < minRatings {
			continue
		}
		ranked = append(ranked, models.TopRatedBook{
			BookID:       bookID,
			Title:        first.Title,
			TotalRatings: count,
			AverageScore: sum / float64(count),
		})
	}

	slices.SortStableFunc(ranked, func(a, b models.TopRatedBook) int {
		switch {
		case a.AverageScore > b.AverageScore:
			return -1
		case a.AverageScore < b.AverageScore:
			return 1
		default:
			return 0
		}
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
