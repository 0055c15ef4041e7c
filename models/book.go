// Package models defines the records and result shapes of the catalog engine.
package models

import "time"

// Book is one row of the book catalog. ID is the 0-based load position.
type Book struct {
	ID            int      `csv:"id" json:"id"`
	Title         string   `csv:"Title" json:"title"`
	Description   string   `csv:"description" json:"description"`
	Authors       []string `csv:"authors" json:"authors"`
	Image         string   `csv:"image" json:"image"`
	PreviewLink   string   `csv:"previewLink" json:"preview_link"`
	Publisher     string   `csv:"publisher" json:"publisher"`
	PublishedDate string   `csv:"publishedDate" json:"published_date"`
	InfoLink      string   `csv:"infoLink" json:"info_link"`
	Categories    []string `csv:"categories" json:"categories"`
	RatingsCount  *float64 `csv:"ratingsCount" json:"ratings_count"`
}

// BookColumns lists the source columns of the book dataset in file order.
var BookColumns = []string{
	"Title", "description", "authors", "image", "previewLink",
	"publisher", "publishedDate", "infoLink", "categories", "ratingsCount",
}

// LoadResult summarises a single dataset load.
type LoadResult struct {
	Dataset   string
	Location  string
	Rows      int
	Fallbacks map[string]int
	StartTime time.Time
	EndTime   time.Time
	Err       error
}

// Duration reports how long the load took.
func (r LoadResult) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}
