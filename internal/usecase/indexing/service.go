package indexing

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/articlesearch/internal/domain"
	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
	"github.com/kailas-cloud/articlesearch/internal/metrics"
)

// upsertBatchSize caps the number of hashes written per pipeline round trip.
const upsertBatchSize = 256

// Result summarizes an indexing pass.
type Result struct {
	IDs      []string
	Duration time.Duration
}

// Service turns raw articles into embedded, indexed documents.
type Service struct {
	repo     Repository
	embedder domain.Embedder
	workers  int
	logger   *zap.Logger
}

// New creates the indexing pipeline. workers <= 0 means half the CPUs.
func New(repo Repository, embedder domain.Embedder, workers int, logger *zap.Logger) *Service {
	if workers <= 0 {
		workers = max(1, runtime.NumCPU()/2)
	}
	return &Service{repo: repo, embedder: embedder, workers: workers, logger: logger}
}

// Run embeds every article, then recreates the index and writes them.
// The pass is atomic with respect to embedding: if any article fails to embed,
// nothing is written and the previous index is left untouched.
func (s *Service) Run(ctx context.Context, articles []domart.Article) (Result, error) {
	start := time.Now()

	embedded, err := s.embedAll(ctx, articles)
	if err != nil {
		return Result{}, err
	}

	if err := s.repo.RecreateIndex(ctx); err != nil {
		return Result{}, fmt.Errorf("recreate index: %w", err)
	}

	ids := make([]string, 0, len(embedded))
	for from := 0; from < len(embedded); from += upsertBatchSize {
		to := min(from+upsertBatchSize, len(embedded))
		batch, err := s.repo.UpsertBatch(ctx, embedded[from:to])
		if err != nil {
			return Result{}, fmt.Errorf("upsert articles %d..%d: %w", from, to-1, err)
		}
		ids = append(ids, batch...)
	}

	duration := time.Since(start)
	metrics.IndexedArticlesTotal.Add(float64(len(ids)))
	metrics.IndexingDuration.Observe(duration.Seconds())

	s.logger.Info("Indexing completed",
		zap.Int("articles", len(ids)),
		zap.Duration("duration", duration),
		zap.Int("workers", s.workers),
	)
	return Result{IDs: ids, Duration: duration}, nil
}

// embedAll computes all embeddings in parallel. The first failure cancels the rest.
func (s *Service) embedAll(ctx context.Context, articles []domart.Article) ([]domart.Article, error) {
	if len(articles) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(min(s.workers, len(articles)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]domart.Article, len(articles))
	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for i := range articles {
		wg.Add(1)
		a := articles[i]
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			res, err := s.embedder.Embed(ctx, a.EmbeddingText())
			if err != nil {
				s.logger.Error("Article embedding failed",
					zap.Int("position", i),
					zap.String("title", a.Title()),
					zap.Error(err),
				)
				fail(fmt.Errorf("embed article %d %q: %w", i, a.Title(), err))
				return
			}
			if len(res.Embedding) == 0 {
				fail(fmt.Errorf("embed article %d %q: empty vector: %w", i, a.Title(), domain.ErrVectorDimMismatch))
				return
			}
			out[i] = a.WithVector(res.Embedding)
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit article %d: %w", i, submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("embed articles: %w", err)
	}
	return out, nil
}
