package article

import "github.com/kailas-cloud/articlesearch/internal/db"

// Hash field names.
const (
	fieldTitle         = "title"
	fieldContent       = "content"
	fieldAuthor        = "author"
	fieldPublishedDate = "published_date"
	fieldDocID         = "doc_id"
	fieldEmbedding     = "embedding"

	// vectorAlias is the query name of the embedding field.
	vectorAlias = "vector"
)

// resultFields are returned by every query; the embedding blob never is.
var resultFields = []string{fieldTitle, fieldContent, fieldAuthor, fieldPublishedDate, fieldDocID}

// buildIndex creates the article index definition.
// TEXT fields back lexical and title lookup, TAG doc_id backs self-exclusion.
func buildIndex(cfg Config) (*db.IndexDefinition, error) {
	return db.NewIndex(cfg.indexName()).
		Prefix(cfg.keyPrefix()).
		Text(fieldTitle).
		Text(fieldContent).
		Text(fieldAuthor).
		Tag(fieldPublishedDate).
		Tag(fieldDocID).
		VectorHNSW(fieldEmbedding, vectorAlias, cfg.Dimensions, db.DistanceCosine, cfg.HNSW.M, cfg.HNSW.EFConstruct).
		Build()
}
