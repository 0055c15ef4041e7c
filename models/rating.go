package models

// Rating is one user review. BookID is free text and may not match any Book.
type Rating struct {
	ReviewID    int      `csv:"review_id" json:"review_id"`
	BookID      string   `csv:"Id" json:"id"`
	Title       string   `csv:"Title" json:"title"`
	Price       string   `csv:"Price" json:"price"`
	UserID      string   `csv:"User_id" json:"user_id"`
	ProfileName string   `csv:"profileName" json:"profile_name"`
	Helpfulness string   `csv:"review/helpfulness" json:"helpfulness"`
	Score       *float64 `csv:"review/score" json:"score"`
	Time        *int64   `csv:"review/time" json:"time"`
	Summary     string   `csv:"review/summary" json:"summary"`
	Text        string   `csv:"review/text" json:"text"`
}

// RatingColumns lists the source columns of the ratings dataset in file order.
var RatingColumns = []string{
	"Id", "Title", "Price", "User_id", "profileName",
	"review/helpfulness", "review/score", "review/time",
	"review/summary", "review/text",
}

// BookStats is the per-book rating aggregate.
type BookStats struct {
	BookID            string      `json:"book_id"`
	Title             string      `json:"title"`
	TotalRatings      int         `json:"total_ratings"`
	AverageScore      float64     `json:"average_score"`
	ScoreDistribution map[int]int `json:"score_distribution"`
}

// TopRatedBook is one entry of the top-rated ranking.
type TopRatedBook struct {
	BookID       string  `json:"book_id"`
	Title        string  `json:"title"`
	TotalRatings int     `json:"total_ratings"`
	AverageScore float64 `json:"average_score"`
}
