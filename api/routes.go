// Package api exposes the catalog over HTTP as huma operations.
package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/aluiziolira/go-books-catalog/catalog"
	"github.com/aluiziolira/go-books-catalog/config"
	"github.com/aluiziolira/go-books-catalog/models"
	"github.com/aluiziolira/go-books-catalog/parser"
)

type PlainOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

type BookListInput struct {
	Page     int    `query:"page" default:"1" doc:"Page number"`
	PerPage  int    `query:"per_page" doc:"Items per page, capped at the server maximum"`
	Search   string `query:"search" doc:"Search title, description or author (case-insensitive)"`
	Category string `query:"category" doc:"Filter by category (case-insensitive)"`
	Author   string `query:"author" doc:"Filter by author (case-insensitive)"`
}

type BookListOutput struct {
	Body struct {
		Books      []models.Book     `json:"books"`
		Pagination models.Pagination `json:"pagination"`
	}
}

type IDInput struct {
	ID string `path:"id" doc:"Zero-based record position"`
}

type BookOutput struct {
	Body models.Book
}

type BooksOutput struct {
	Body []models.Book
}

type TitleInput struct {
	Title string `path:"title"`
}

type AuthorInput struct {
	Author string `path:"author"`
}

type CategoryInput struct {
	Category string `path:"category"`
}

type CategoriesOutput struct {
	Body struct {
		Categories []string `json:"categories"`
	}
}

type AuthorsOutput struct {
	Body struct {
		Authors []string `json:"authors"`
	}
}

type RatingListInput struct {
	Page     int    `query:"page" default:"1" doc:"Page number"`
	PerPage  int    `query:"per_page" doc:"Items per page, capped at the server maximum"`
	BookID   string `query:"book_id" doc:"Filter by book id"`
	UserID   string `query:"user_id" doc:"Filter by user id"`
	MinScore string `query:"min_score" doc:"Minimum score, inclusive; ignored unless numeric"`
	MaxScore string `query:"max_score" doc:"Maximum score, inclusive; ignored unless numeric"`
}

type RatingListOutput struct {
	Body struct {
		Ratings    []models.Rating   `json:"ratings"`
		Pagination models.Pagination `json:"pagination"`
	}
}

type RatingOutput struct {
	Body models.Rating
}

type RatingsOutput struct {
	Body []models.Rating
}

type BookIDInput struct {
	BookID string `path:"book_id"`
}

type UserIDInput struct {
	UserID string `path:"user_id"`
}

type StatsOutput struct {
	Body models.BookStats
}

type TopRatedInput struct {
	Limit      int `query:"limit" default:"10" doc:"Number of books to return, capped at the server maximum"`
	MinRatings int `query:"min_ratings" default:"5" doc:"Minimum number of scored ratings"`
}

type TopRatedOutput struct {
	Body []models.TopRatedBook
}

type ReviewSearchInput struct {
	Q       string `query:"q" doc:"Text to find in review summaries and bodies"`
	Page    int    `query:"page" default:"1" doc:"Page number"`
	PerPage int    `query:"per_page" doc:"Items per page, capped at the server maximum"`
}

type ReviewSearchOutput struct {
	Body struct {
		Reviews    []models.Rating   `json:"reviews"`
		Pagination models.Pagination `json:"pagination"`
	}
}

type handlers struct {
	books    *catalog.BookService
	ratings  *catalog.RatingService
	settings config.Settings
	cfg      *config.Config
}

// Setup registers the catalog operations on api. Rating operations are only
// registered when the Ratings feature flag is on.
func Setup(api huma.API, cat *catalog.Catalog, settings config.Settings, cfg *config.Config) {
	h := &handlers{
		books:    cat.Books,
		ratings:  cat.Ratings,
		settings: settings,
		cfg:      cfg,
	}

	huma.Register(api, huma.Operation{
		OperationID: "HealthCheck",
		Method:      http.MethodGet,
		Path:        "/healthz",
		Summary:     "Health check",
		Tags:        []string{"Health"},
	}, func(ctx context.Context, input *struct{}) (*PlainOutput, error) {
		return &PlainOutput{ContentType: "text/plain", Body: []byte("OK")}, nil
	})

	h.registerBooks(api)
	if settings.IsEnabled(config.FeatureRatings) {
		h.registerRatings(api)
	}
}

func (h *handlers) registerBooks(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "ListBooks",
		Method:      http.MethodGet,
		Path:        "/books",
		Summary:     "List books",
		Description: "Get all books with pagination and optional filtering",
		Tags:        []string{"Books"},
	}, func(ctx context.Context, input *BookListInput) (*BookListOutput, error) {
		page := h.books.List(catalog.BookQuery{
			Page:     input.Page,
			PerPage:  h.perPage(input.PerPage),
			Search:   input.Search,
			Category: input.Category,
			Author:   input.Author,
		})
		resp := &BookListOutput{}
		resp.Body.Books = page.Items
		resp.Body.Pagination = page.Meta()
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetBook",
		Method:      http.MethodGet,
		Path:        "/books/{id}",
		Summary:     "Get a book by id",
		Tags:        []string{"Books"},
	}, func(ctx context.Context, input *IDInput) (*BookOutput, error) {
		book, ok := h.books.LookupRaw(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("book not found")
		}
		return &BookOutput{Body: book}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "SearchBooksByTitle",
		Method:      http.MethodGet,
		Path:        "/books/search/{title}",
		Summary:     "Search books by title",
		Tags:        []string{"Books"},
	}, func(ctx context.Context, input *TitleInput) (*BooksOutput, error) {
		return &BooksOutput{Body: h.books.SearchByTitle(input.Title)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetBooksByAuthor",
		Method:      http.MethodGet,
		Path:        "/books/author/{author}",
		Summary:     "Get books by author",
		Tags:        []string{"Books"},
	}, func(ctx context.Context, input *AuthorInput) (*BooksOutput, error) {
		return &BooksOutput{Body: h.books.ByAuthor(input.Author)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetBooksByCategory",
		Method:      http.MethodGet,
		Path:        "/books/category/{category}",
		Summary:     "Get books by category",
		Tags:        []string{"Books"},
	}, func(ctx context.Context, input *CategoryInput) (*BooksOutput, error) {
		return &BooksOutput{Body: h.books.ByCategory(input.Category)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ListCategories",
		Method:      http.MethodGet,
		Path:        "/books/categories",
		Summary:     "Get all book categories",
		Tags:        []string{"Books"},
	}, func(ctx context.Context, input *struct{}) (*CategoriesOutput, error) {
		resp := &CategoriesOutput{}
		resp.Body.Categories = h.books.Categories()
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "ListAuthors",
		Method:      http.MethodGet,
		Path:        "/books/authors",
		Summary:     "Get all authors",
		Tags:        []string{"Books"},
	}, func(ctx context.Context, input *struct{}) (*AuthorsOutput, error) {
		resp := &AuthorsOutput{}
		resp.Body.Authors = h.books.Authors()
		return resp, nil
	})
}

func (h *handlers) registerRatings(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "ListRatings",
		Method:      http.MethodGet,
		Path:        "/ratings",
		Summary:     "List ratings",
		Description: "Get all ratings with pagination and optional filtering",
		Tags:        []string{"Ratings"},
	}, func(ctx context.Context, input *RatingListInput) (*RatingListOutput, error) {
		page := h.ratings.List(catalog.RatingQuery{
			Page:     input.Page,
			PerPage:  h.perPage(input.PerPage),
			BookID:   input.BookID,
			UserID:   input.UserID,
			MinScore: parser.ParseOptionalFloat(input.MinScore),
			MaxScore: parser.ParseOptionalFloat(input.MaxScore),
		})
		resp := &RatingListOutput{}
		resp.Body.Ratings = page.Items
		resp.Body.Pagination = page.Meta()
		return resp, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetRating",
		Method:      http.MethodGet,
		Path:        "/ratings/{id}",
		Summary:     "Get a rating by review id",
		Tags:        []string{"Ratings"},
	}, func(ctx context.Context, input *IDInput) (*RatingOutput, error) {
		rating, ok := h.ratings.LookupRaw(input.ID)
		if !ok {
			return nil, huma.Error404NotFound("rating not found")
		}
		return &RatingOutput{Body: rating}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetRatingsForBook",
		Method:      http.MethodGet,
		Path:        "/ratings/book/{book_id}",
		Summary:     "Get all ratings for a book",
		Tags:        []string{"Ratings"},
	}, func(ctx context.Context, input *BookIDInput) (*RatingsOutput, error) {
		return &RatingsOutput{Body: h.ratings.ForBook(input.BookID)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetRatingsByUser",
		Method:      http.MethodGet,
		Path:        "/ratings/user/{user_id}",
		Summary:     "Get all ratings by a user",
		Tags:        []string{"Ratings"},
	}, func(ctx context.Context, input *UserIDInput) (*RatingsOutput, error) {
		return &RatingsOutput{Body: h.ratings.ByUser(input.UserID)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetBookRatingStats",
		Method:      http.MethodGet,
		Path:        "/ratings/stats/{book_id}",
		Summary:     "Get rating statistics for a book",
		Tags:        []string{"Ratings"},
	}, func(ctx context.Context, input *BookIDInput) (*StatsOutput, error) {
		stats := h.ratings.Stats(input.BookID)
		if stats == nil {
			return nil, huma.Error404NotFound("no ratings found for this book")
		}
		return &StatsOutput{Body: *stats}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "GetTopRatedBooks",
		Method:      http.MethodGet,
		Path:        "/ratings/top-rated",
		Summary:     "Get top rated books",
		Tags:        []string{"Ratings"},
	}, func(ctx context.Context, input *TopRatedInput) (*TopRatedOutput, error) {
		limit := min(input.Limit, h.cfg.MaxTopRatedLimit)
		return &TopRatedOutput{Body: h.ratings.TopRated(limit, input.MinRatings)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "SearchReviews",
		Method:      http.MethodGet,
		Path:        "/ratings/search",
		Summary:     "Search reviews by text content",
		Tags:        []string{"Ratings"},
	}, func(ctx context.Context, input *ReviewSearchInput) (*ReviewSearchOutput, error) {
		if input.Q == "" {
			return nil, huma.Error400BadRequest("search query 'q' is required")
		}
		page := h.ratings.SearchReviews(input.Q, input.Page, h.perPage(input.PerPage))
		resp := &ReviewSearchOutput{}
		resp.Body.Reviews = page.Items
		resp.Body.Pagination = page.Meta()
		return resp, nil
	})
}

// perPage applies the settings page size when none was requested and caps
// the result at the configured maximum.
func (h *handlers) perPage(requested int) int {
	if requested <= 0 {
		requested = h.settings.PageSize
	}
	if requested <= 0 {
		requested = config.DefaultPageSize
	}
	return min(requested, h.cfg.MaxPageSize)
}
