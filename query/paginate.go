package query

import "github.com/aluiziolira/go-books-catalog/models"

// Paginate returns the 1-based page of items holding [(page-1)*perPage,
// page*perPage) clipped to the slice. A perPage of zero or less yields no
// items and zero pages. Pages outside 1..Pages yield no items but keep the
// totals. Items is a copy and never nil.
func Paginate[T any](items []T, page, perPage int) models.Page[T] {
	total := len(items)
	result := models.Page[T]{
		Items:   []T{},
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}
	if perPage <= 0 {
		return result
	}
	result.Pages = total / perPage
	if total%perPage != 0 {
		result.Pages++
	}
	if page < 1 || page > result.Pages {
		return result
	}

	start := (page - 1) * perPage
	end := min(start+perPage, total)
	result.Items = append(result.Items, items[start:end]...)
	return result
}
