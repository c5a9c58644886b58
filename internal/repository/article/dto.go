package article

import (
	"strings"

	"github.com/kailas-cloud/articlesearch/internal/db"
	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
)

// toHash flattens an article into hash fields. Empty optional fields are omitted.
func toHash(id string, a *domart.Article) map[string]string {
	h := map[string]string{
		fieldTitle:     a.Title(),
		fieldContent:   a.Content(),
		fieldDocID:     id,
		fieldEmbedding: db.EncodeVector(a.Vector()),
	}
	if a.Author() != "" {
		h[fieldAuthor] = a.Author()
	}
	if a.PublishedDate() != "" {
		h[fieldPublishedDate] = a.PublishedDate()
	}
	return h
}

// fromHash rebuilds an article from hash fields. The id falls back to the key suffix
// for hashes written without doc_id.
func fromHash(key, prefix string, h map[string]string) domart.Article {
	id := h[fieldDocID]
	if id == "" {
		id = strings.TrimPrefix(key, prefix)
	}
	return domart.Reconstruct(
		id,
		h[fieldTitle],
		h[fieldContent],
		h[fieldAuthor],
		h[fieldPublishedDate],
		db.DecodeVector(h[fieldEmbedding]),
	)
}

// toHits converts store entries into scored hits, preserving engine order.
func toHits(sr *db.SearchResult, prefix string) []domart.Hit {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}
	hits := make([]domart.Hit, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		hits = append(hits, domart.Hit{Article: fromHash(e.Key, prefix, e.Fields), Score: e.Score})
	}
	return hits
}
