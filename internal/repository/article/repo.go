package article

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/kailas-cloud/articlesearch/internal/db"
	"github.com/kailas-cloud/articlesearch/internal/domain"
	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
	"github.com/kailas-cloud/articlesearch/internal/domain/search/filter"
)

// store is the consumer interface for article persistence (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
	SearchList(ctx context.Context, index, query string, offset, limit int, fields []string) (*db.SearchResult, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config describes where articles live in the store.
type Config struct {
	// KeyPrefix namespaces every key, e.g. "articlesearch:".
	KeyPrefix string
	// Name is the index name without prefix, e.g. "articles".
	Name       string
	Dimensions int
	HNSW       HNSWConfig
}

func (c Config) indexName() string { return c.KeyPrefix + c.Name + ":idx" }
func (c Config) keyPrefix() string { return c.KeyPrefix + c.Name + ":" }

// Repo implements the article repository used by indexing and retrieval.
type Repo struct {
	store store
	cfg   Config
	newID func() string
}

// New creates an article repository.
func New(s store, cfg Config) *Repo {
	if cfg.Name == "" {
		cfg.Name = "articles"
	}
	if cfg.HNSW.M <= 0 {
		cfg.HNSW.M = 16
	}
	if cfg.HNSW.EFConstruct <= 0 {
		cfg.HNSW.EFConstruct = 200
	}
	return &Repo{store: s, cfg: cfg, newID: uuid.NewString}
}

// IndexName returns the full index name.
func (r *Repo) IndexName() string { return r.cfg.indexName() }

// RecreateIndex drops the article index together with its documents, if present,
// and creates an empty one.
func (r *Repo) RecreateIndex(ctx context.Context) error {
	def, err := buildIndex(r.cfg)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}

	exists, err := r.store.IndexExists(ctx, def.Name)
	if err != nil {
		return fmt.Errorf("check index %s: %w", def.Name, err)
	}
	if exists {
		if err := r.store.DropIndex(ctx, def.Name, true); err != nil && !errors.Is(err, db.ErrIndexNotFound) {
			return fmt.Errorf("drop index %s: %w", def.Name, err)
		}
	}

	if err := r.store.CreateIndex(ctx, def); err != nil {
		return fmt.Errorf("create index %s: %w", def.Name, err)
	}
	return nil
}

// Upsert stores one article under a generated id and returns the id.
func (r *Repo) Upsert(ctx context.Context, a *domart.Article) (string, error) {
	if err := r.checkVector(a); err != nil {
		return "", err
	}
	id := r.newID()
	key := r.cfg.keyPrefix() + id
	if err := r.store.HSet(ctx, key, toHash(id, a)); err != nil {
		return "", fmt.Errorf("hset %s: %w", key, err)
	}
	return id, nil
}

// UpsertBatch stores articles in one pipeline and returns their ids in input order.
func (r *Repo) UpsertBatch(ctx context.Context, articles []domart.Article) ([]string, error) {
	if len(articles) == 0 {
		return nil, nil
	}
	ids := make([]string, len(articles))
	items := make([]db.HashSetItem, len(articles))
	for i := range articles {
		if err := r.checkVector(&articles[i]); err != nil {
			return nil, fmt.Errorf("article %d: %w", i, err)
		}
		ids[i] = r.newID()
		items[i] = db.HashSetItem{Key: r.cfg.keyPrefix() + ids[i], Fields: toHash(ids[i], &articles[i])}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return nil, fmt.Errorf("hset batch: %w", err)
	}
	return ids, nil
}

// SearchKNN returns up to k articles nearest to vector, best first.
// A non-empty excludeID is filtered out by the store.
func (r *Repo) SearchKNN(ctx context.Context, vector []float32, k int, excludeID string) ([]domart.Hit, error) {
	var filters filter.Expression
	if excludeID != "" {
		var err error
		if filters, err = filter.Exclude(fieldDocID, excludeID); err != nil {
			return nil, fmt.Errorf("exclude filter: %w", err)
		}
	}

	sr, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.cfg.indexName(),
		Field:        vectorAlias,
		Filters:      filters,
		Vector:       vector,
		K:            k,
		ReturnFields: resultFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search knn: %w", err)
	}
	return toHits(sr, r.cfg.keyPrefix()), nil
}

// SearchContent runs a full-text match on article content, any term matching.
func (r *Repo) SearchContent(ctx context.Context, query string, k int) ([]domart.Hit, error) {
	return r.searchText(ctx, fieldContent, query, k)
}

// FindByTitle returns the best title match together with its embedding.
// domain.ErrArticleNotFound is returned when nothing matches.
func (r *Repo) FindByTitle(ctx context.Context, title string) (domart.Article, error) {
	hits, err := r.searchText(ctx, fieldTitle, title, 1)
	if err != nil {
		return domart.Article{}, err
	}
	if len(hits) == 0 {
		return domart.Article{}, domain.ErrArticleNotFound
	}

	id := hits[0].Article.ID()
	key := r.cfg.keyPrefix() + id
	h, err := r.store.HGetAll(ctx, key)
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domart.Article{}, domain.ErrArticleNotFound
		}
		return domart.Article{}, fmt.Errorf("hgetall %s: %w", key, err)
	}

	a := fromHash(key, r.cfg.keyPrefix(), h)
	if len(a.Vector()) == 0 {
		// Only reachable lexically; there is nothing to recommend from.
		return domart.Article{}, domain.ErrArticleNotFound
	}
	return a, nil
}

// List returns up to limit articles via a match-all query, in engine order.
func (r *Repo) List(ctx context.Context, limit int) ([]domart.Article, error) {
	sr, err := r.store.SearchList(ctx, r.cfg.indexName(), db.MatchAll, 0, limit, resultFields)
	if err != nil {
		return nil, fmt.Errorf("search list: %w", err)
	}
	if sr == nil || len(sr.Entries) == 0 {
		return nil, nil
	}
	out := make([]domart.Article, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		out = append(out, fromHash(e.Key, r.cfg.keyPrefix(), e.Fields))
	}
	return out, nil
}

func (r *Repo) searchText(ctx context.Context, field, query string, k int) ([]domart.Hit, error) {
	sr, err := r.store.SearchText(ctx, &db.TextQuery{
		IndexName:    r.cfg.indexName(),
		Field:        field,
		Query:        query,
		MatchAny:     true,
		TopK:         k,
		ReturnFields: resultFields,
	})
	if err != nil {
		return nil, fmt.Errorf("search text %s: %w", field, err)
	}
	return toHits(sr, r.cfg.keyPrefix()), nil
}

func (r *Repo) checkVector(a *domart.Article) error {
	if got := len(a.Vector()); got != r.cfg.Dimensions {
		return fmt.Errorf("%w: got %d, want %d", domain.ErrVectorDimMismatch, got, r.cfg.Dimensions)
	}
	return nil
}
