package retrieval

import (
	"context"

	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
)

// Repository defines the storage contract for retrieval.
type Repository interface {
	// SearchKNN returns up to k nearest articles; excludeID, when set, is filtered by the store.
	SearchKNN(ctx context.Context, vector []float32, k int, excludeID string) ([]domart.Hit, error)
	// SearchContent returns up to k lexical matches on article content.
	SearchContent(ctx context.Context, query string, k int) ([]domart.Hit, error)
	// FindByTitle returns the best title match with its embedding, or domain.ErrArticleNotFound.
	FindByTitle(ctx context.Context, title string) (domart.Article, error)
	// List returns up to limit articles.
	List(ctx context.Context, limit int) ([]domart.Article, error)
}
