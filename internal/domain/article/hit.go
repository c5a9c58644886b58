package article

// Hit is an article returned by a retrieval strategy with its engine score.
// Scores are strategy-specific and not comparable across strategies.
type Hit struct {
	Article Article
	Score   float64
}

// QueryResult is the public projection of a Hit.
type QueryResult struct {
	Title         string  `json:"title"`
	Content       string  `json:"content"`
	Author        string  `json:"author"`
	PublishedDate string  `json:"published_date"`
	Score         float64 `json:"score"`
}
