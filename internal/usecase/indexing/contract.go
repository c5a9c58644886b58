package indexing

import (
	"context"

	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
)

// Repository is the article persistence consumed by the pipeline.
type Repository interface {
	RecreateIndex(ctx context.Context) error
	UpsertBatch(ctx context.Context, articles []domart.Article) ([]string, error)
}
