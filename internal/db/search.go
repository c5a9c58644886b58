package db

import "github.com/kailas-cloud/articlesearch/internal/domain/search/filter"

// VectorScoreField is the pseudo-field carrying the KNN distance in FT.SEARCH replies.
const VectorScoreField = "__vector_score"

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName string
	// Field is the vector field query name (alias); empty means DefaultVectorField.
	Field        string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for full-text search on a single TEXT field.
type TextQuery struct {
	IndexName string
	// Field restricts matching to one TEXT field; empty searches all TEXT fields.
	Field string
	Query string
	// MatchAny ORs the query terms instead of requiring all of them.
	MatchAny     bool
	Filters      filter.Expression
	TopK         int
	ReturnFields []string
}

// DefaultVectorField is the query name of the vector field when KNNQuery.Field is empty.
const DefaultVectorField = "vector"

// MatchAll is the query string selecting every document of an index.
const MatchAll = "*"

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
