package parser

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/aluiziolira/go-books-catalog/models"
)

// missingMarkers are the cell spellings treated as a missing value.
var missingMarkers = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsMissing reports whether a raw cell denotes a missing value.
func IsMissing(cell string) bool {
	_, ok := missingMarkers[cell]
	return ok
}

// NormalizeCell maps missing-value markers to the empty string and leaves
// every other value untouched.
func NormalizeCell(cell string) string {
	if IsMissing(cell) {
		return ""
	}
	return cell
}

// ParseOptionalFloat returns nil for missing, unparsable or non-finite input.
func ParseOptionalFloat(cell string) *float64 {
	cell = strings.TrimSpace(NormalizeCell(cell))
	if cell == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ParseOptionalInt accepts integer or finite float text and truncates the
// latter toward zero. Anything else yields nil.
func ParseOptionalInt(cell string) *int64 {
	cell = strings.TrimSpace(NormalizeCell(cell))
	if cell == "" {
		return nil
	}
	if v, err := strconv.ParseInt(cell, 10, 64); err == nil {
		return &v
	}
	f := ParseOptionalFloat(cell)
	if f == nil || *f >= math.MaxInt64 || *f < math.MinInt64 {
		return nil
	}
	v := int64(*f)
	return &v
}

// ValidateBook reports a book that lacks its required title. Loading keeps
// such rows so identifiers stay gap-free; the error only feeds load reports.
func ValidateBook(b *models.Book) error {
	if b == nil {
		return fmt.Errorf("book is nil")
	}
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("book %d missing title", b.ID)
	}
	return nil
}

// ValidateRating reports ratings whose score lies outside 1..5. Out-of-range
// scores are kept and still count toward totals and means.
func ValidateRating(r *models.Rating) error {
	if r == nil {
		return fmt.Errorf("rating is nil")
	}
	if r.Score != nil && (*r.Score < 1 || *r.Score > 5) {
		return fmt.Errorf("rating %d score %v out of range", r.ReviewID, *r.Score)
	}
	return nil
}
