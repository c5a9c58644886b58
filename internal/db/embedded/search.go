package embedded

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/kailas-cloud/articlesearch/internal/db"
)

// SearchKNN returns the K nearest hashes by cosine similarity, best first.
// Filters are applied to the ranked candidates, so exclusions never shrink K
// while other candidates remain.
func (s *Store) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Vector) == 0 {
		return nil, fmt.Errorf("vector is required")
	}
	if q.K <= 0 {
		return nil, fmt.Errorf("k must be positive")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.lookup(q.IndexName)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	if idx.vecs == nil {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("index %s has no vector field", q.IndexName)}
	}
	if field := q.Field; field != "" && field != idx.vecField.QueryName() {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("unknown vector field %s", field)}
	}
	if len(q.Vector) != idx.vecField.VectorDim {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf(
			"query vector has %d dimensions, index expects %d", len(q.Vector), idx.vecField.VectorDim)}
	}

	count := idx.vecs.Count()
	if count == 0 {
		return &db.SearchResult{}, nil
	}
	n := min(q.K, count)
	if !q.Filters.IsEmpty() {
		n = count
	}

	hits, err := idx.vecs.QueryEmbedding(ctx, q.Vector, n, nil, nil)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	entries := make([]db.SearchEntry, 0, min(q.K, len(hits)))
	for _, h := range hits {
		fields := s.hashCopy(h.ID)
		if fields == nil || !q.Filters.Matches(fields) {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    h.ID,
			Score:  max(0, float64(h.Similarity)),
			Fields: project(fields, q.ReturnFields),
		})
		if len(entries) == q.K {
			break
		}
	}

	return &db.SearchResult{Total: len(entries), Entries: entries}, nil
}

// SearchText runs a bleve match query with the standard analyzer.
func (s *Store) SearchText(_ context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}
	if strings.TrimSpace(q.Query) == "" {
		return nil, fmt.Errorf("query is required")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.lookup(q.IndexName)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}
	if q.Field != "" && !idx.textNames[q.Field] {
		return nil, &db.Error{Op: db.OpSearch, Err: fmt.Errorf("unknown text field %s", q.Field)}
	}

	mq := bleve.NewMatchQuery(q.Query)
	if q.Field != "" {
		mq.SetField(q.Field)
	}
	if q.MatchAny {
		mq.SetOperator(query.MatchQueryOperatorOr)
	} else {
		mq.SetOperator(query.MatchQueryOperatorAnd)
	}

	size := q.TopK
	if !q.Filters.IsEmpty() {
		size = len(s.hashes)
	}

	res, err := idx.text.Search(bleve.NewSearchRequestOptions(mq, size, 0, false))
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	entries := make([]db.SearchEntry, 0, min(q.TopK, len(res.Hits)))
	for _, h := range res.Hits {
		fields := s.hashCopy(h.ID)
		if fields == nil || !q.Filters.Matches(fields) {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    h.ID,
			Score:  h.Score,
			Fields: project(fields, q.ReturnFields),
		})
		if len(entries) == q.TopK {
			break
		}
	}

	total := int(res.Total)
	if !q.Filters.IsEmpty() {
		total = len(entries)
	}
	return &db.SearchResult{Total: total, Entries: entries}, nil
}

// SearchList pages through an index. "*" matches everything; any other query
// uses the bleve query-string syntax (e.g. "doc_id:abc").
func (s *Store) SearchList(
	_ context.Context, name, q string, offset, limit int, fields []string,
) (*db.SearchResult, error) {
	if name == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, err := s.lookup(name)
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	var bq query.Query
	if q == "" || q == db.MatchAll {
		bq = bleve.NewMatchAllQuery()
	} else {
		bq = bleve.NewQueryStringQuery(q)
	}

	res, err := idx.text.Search(bleve.NewSearchRequestOptions(bq, limit, offset, false))
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	entries := make([]db.SearchEntry, 0, len(res.Hits))
	for _, h := range res.Hits {
		stored := s.hashCopy(h.ID)
		if stored == nil {
			continue
		}
		entries = append(entries, db.SearchEntry{
			Key:    h.ID,
			Fields: project(stored, fields),
		})
	}

	return &db.SearchResult{Total: int(res.Total), Entries: entries}, nil
}

// project keeps only the requested fields; no request means every field.
func project(fields map[string]string, keep []string) map[string]string {
	if len(keep) == 0 {
		return fields
	}
	out := make(map[string]string, len(keep))
	for _, k := range keep {
		if v, ok := fields[k]; ok {
			out[k] = v
		}
	}
	return out
}
