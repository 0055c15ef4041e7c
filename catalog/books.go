// Package catalog answers queries over the loaded book and rating datasets.
// Services hold an immutable store and never mutate it, so one instance may
// serve any number of concurrent callers.
package catalog

import (
	"github.com/aluiziolira/go-books-catalog/models"
	"github.com/aluiziolira/go-books-catalog/query"
	"github.com/aluiziolira/go-books-catalog/store"
)

// BookField names a searchable book field.
type BookField int

const (
	FieldTitle BookField = iota
	FieldDescription
	FieldAuthors
	FieldCategories
	FieldPublisher
)

// BookQuery holds the optional filters of a book listing. Empty strings are
// unset filters; set filters combine with AND.
type BookQuery struct {
	Page    int
	PerPage int
	// Search matches title, description or any author.
	Search   string
	Category string
	Author   string
}

// BookService serves queries over the book dataset.
type BookService struct {
	books *store.Store[models.Book]
}

// NewBookService wraps a loaded book store.
func NewBookService(books *store.Store[models.Book]) *BookService {
	if books == nil {
		books = store.Empty[models.Book]()
	}
	return &BookService{books: books}
}

// Len reports how many books are loaded.
func (s *BookService) Len() int {
	return s.books.Len()
}

// GetByID returns the book at id.
func (s *BookService) GetByID(id int) (models.Book, bool) {
	return s.books.Get(id)
}

// LookupRaw resolves a textual id; non-integer text is not found.
func (s *BookService) LookupRaw(raw string) (models.Book, bool) {
	return s.books.GetRaw(raw)
}

// List filters and paginates the catalog.
func (s *BookService) List(q BookQuery) models.Page[models.Book] {
	var preds []query.Predicate[models.Book]
	if q.Search != "" {
		preds = append(preds, textPredicate(q.Search, FieldTitle, FieldDescription, FieldAuthors))
	}
	if q.Category != "" {
		preds = append(preds, textPredicate(q.Category, FieldCategories))
	}
	if q.Author != "" {
		preds = append(preds, textPredicate(q.Author, FieldAuthors))
	}
	matches := query.Filter(s.books.All(), query.And(preds...))
	return query.Paginate(matches, q.Page, q.PerPage)
}

// Search returns books where q occurs, ignoring case, in any of fields. List
// fields match when q occurs in at least one element. With no fields given,
// title, description and authors are searched. An empty q matches all books.
func (s *BookService) Search(q string, fields ...BookField) []models.Book {
	if len(fields) == 0 {
		fields = []BookField{FieldTitle, FieldDescription, FieldAuthors}
	}
	return query.Filter(s.books.All(), textPredicate(q, fields...))
}

// SearchByTitle returns books whose title contains title, ignoring case.
func (s *BookService) SearchByTitle(title string) []models.Book {
	return s.Search(title, FieldTitle)
}

// ByAuthor returns books with an author containing author, ignoring case.
func (s *BookService) ByAuthor(author string) []models.Book {
	return query.Filter(s.books.All(), textPredicate(author, FieldAuthors))
}

// ByCategory returns books with a category containing category, ignoring case.
func (s *BookService) ByCategory(category string) []models.Book {
	return query.Filter(s.books.All(), textPredicate(category, FieldCategories))
}

// Categories returns every distinct non-empty category in lexicographic order.
func (s *BookService) Categories() []string {
	return query.Distinct(query.Map(s.books.All(), func(b models.Book) []string { return b.Categories }))
}

// Authors returns every distinct non-empty author in lexicographic order.
func (s *BookService) Authors() []string {
	return query.Distinct(query.Map(s.books.All(), func(b models.Book) []string { return b.Authors }))
}

func textPredicate(q string, fields ...BookField) query.Predicate[models.Book] {
	needle := query.NewNeedle(q)
	if needle.Empty() {
		return nil
	}
	return func(b models.Book) bool {
		for _, field := range fields {
			if bookFieldMatches(needle, b, field) {
				return true
			}
		}
		return false
	}
}

func bookFieldMatches(needle query.Needle, b models.Book, field BookField) bool {
	switch field {
	case FieldTitle:
		return needle.In(b.Title)
	case FieldDescription:
		return needle.In(b.Description)
	case FieldAuthors:
		return needle.InAny(b.Authors)
	case FieldCategories:
		return needle.InAny(b.Categories)
	case FieldPublisher:
		return needle.In(b.Publisher)
	default:
		return false
	}
}
