package catalog

import (
	"strings"

	"github.com/aluiziolira/go-books-catalog/models"
	"github.com/aluiziolira/go-books-catalog/parser"
	"github.com/aluiziolira/go-books-catalog/pipeline"
)

func decodeBook(id int, row pipeline.Row, tally *pipeline.Tally) models.Book {
	book := models.Book{
		ID:            id,
		Title:         parser.NormalizeCell(row.Get("Title")),
		Description:   parser.NormalizeCell(row.Get("description")),
		Authors:       decodeList(row.Get("authors"), "authors", tally),
		Image:         parser.NormalizeCell(row.Get("image")),
		PreviewLink:   parser.NormalizeCell(row.Get("previewLink")),
		Publisher:     parser.NormalizeCell(row.Get("publisher")),
		PublishedDate: parser.NormalizeCell(row.Get("publishedDate")),
		InfoLink:      parser.NormalizeCell(row.Get("infoLink")),
		Categories:    decodeList(row.Get("categories"), "categories", tally),
		RatingsCount:  decodeFloat(row.Get("ratingsCount"), "ratings_count", tally),
	}
	if err := parser.ValidateBook(&book); err != nil {
		tally.Add("title_missing")
	}
	return book
}

func decodeRating(id int, row pipeline.Row, tally *pipeline.Tally) models.Rating {
	rating := models.Rating{
		ReviewID:    id,
		BookID:      parser.NormalizeCell(row.Get("Id")),
		Title:       parser.NormalizeCell(row.Get("Title")),
		Price:       parser.NormalizeCell(row.Get("Price")),
		UserID:      parser.NormalizeCell(row.Get("User_id")),
		ProfileName: parser.NormalizeCell(row.Get("profileName")),
		Helpfulness: parser.NormalizeCell(row.Get("review/helpfulness")),
		Score:       decodeFloat(row.Get("review/score"), "score", tally),
		Time:        decodeInt(row.Get("review/time"), "time", tally),
		Summary:     parser.NormalizeCell(row.Get("review/summary")),
		Text:        parser.NormalizeCell(row.Get("review/text")),
	}
	if err := parser.ValidateRating(&rating); err != nil {
		tally.Add("score_out_of_range")
	}
	return rating
}

// decodeList tallies list cells that needed the scalar or raw fallback.
func decodeList(cell, field string, tally *pipeline.Tally) []string {
	values, outcome := parser.ParseList(cell)
	switch outcome {
	case parser.ListScalar, parser.ListRaw:
		tally.Add(field + "_" + outcome.String())
	}
	return values
}

func decodeFloat(cell, field string, tally *pipeline.Tally) *float64 {
	v := parser.ParseOptionalFloat(cell)
	if v == nil && !blank(cell) {
		tally.Add(field + "_invalid")
	}
	return v
}

func decodeInt(cell, field string, tally *pipeline.Tally) *int64 {
	v := parser.ParseOptionalInt(cell)
	if v == nil && !blank(cell) {
		tally.Add(field + "_invalid")
	}
	return v
}

func blank(cell string) bool {
	return parser.NormalizeCell(strings.TrimSpace(cell)) == ""
}
