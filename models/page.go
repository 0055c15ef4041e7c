package models

// Page is one slice of an ordered result set.
type Page[T any] struct {
	Items   []T `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
}

// Pagination is the envelope metadata without the items.
type Pagination struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
}

// Meta returns the pagination metadata of p.
func (p Page[T]) Meta() Pagination {
	return Pagination{
		Page:    p.Page,
		PerPage: p.PerPage,
		Pages:   p.Pages,
		Total:   p.Total,
	}
}
