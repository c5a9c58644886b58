package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/kailas-cloud/articlesearch/internal/domain"
	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
	"github.com/kailas-cloud/articlesearch/internal/metrics"
)

// Strategy names, used as metric labels.
const (
	StrategySemantic  = "semantic"
	StrategyLexical   = "lexical"
	StrategyRandom    = "random"
	StrategyRecommend = "recommend"
)

// RandomScore is the score of every randomly sampled article.
const RandomScore = 1.0

// Config holds retrieval defaults.
type Config struct {
	DefaultK    int
	RandomCount int
	MinimumPool int
	// PoolLimit caps how many articles the random sampler reads.
	PoolLimit int
}

// DefaultConfig returns the stock retrieval settings.
func DefaultConfig() Config {
	return Config{DefaultK: 3, RandomCount: 9, MinimumPool: 9, PoolLimit: 1000}
}

// Service implements the four read-only retrieval strategies.
// It holds no per-request state and is safe for concurrent use.
type Service struct {
	repo  Repository
	embed domain.Embedder
	cfg   Config
	intN  func(n int) int
}

// New creates a retrieval service. Zero config fields take DefaultConfig values.
func New(repo Repository, embed domain.Embedder, cfg Config) *Service {
	def := DefaultConfig()
	if cfg.DefaultK <= 0 {
		cfg.DefaultK = def.DefaultK
	}
	if cfg.RandomCount <= 0 {
		cfg.RandomCount = def.RandomCount
	}
	if cfg.MinimumPool <= 0 {
		cfg.MinimumPool = def.MinimumPool
	}
	if cfg.PoolLimit <= 0 {
		cfg.PoolLimit = def.PoolLimit
	}
	return &Service{repo: repo, embed: embed, cfg: cfg, intN: rand.IntN}
}

// Semantic embeds the query and returns its k nearest articles with the engine score.
func (s *Service) Semantic(ctx context.Context, query string, k int) (_ []domart.QueryResult, err error) {
	defer observe(StrategySemantic, time.Now(), &err)

	if strings.TrimSpace(query) == "" {
		return nil, emptyQuery()
	}
	vec, err := s.vectorize(ctx, query)
	if err != nil {
		return nil, err
	}
	hits, err := s.repo.SearchKNN(ctx, vec, s.k(k), "")
	if err != nil {
		return nil, upstream(err)
	}
	return toQueryResults(hits), nil
}

// Lexical runs a full-text match on article content.
func (s *Service) Lexical(ctx context.Context, query string, k int) (_ []domart.QueryResult, err error) {
	defer observe(StrategyLexical, time.Now(), &err)

	if strings.TrimSpace(query) == "" {
		return nil, emptyQuery()
	}
	hits, err := s.repo.SearchContent(ctx, query, s.k(k))
	if err != nil {
		return nil, upstream(err)
	}
	return toQueryResults(hits), nil
}

// Random returns count distinct articles sampled uniformly from a pool of at most
// PoolLimit articles. A pool smaller than minimumPool is an InsufficientData failure.
func (s *Service) Random(ctx context.Context, count, minimumPool int) (_ []domart.QueryResult, err error) {
	defer observe(StrategyRandom, time.Now(), &err)

	if count <= 0 {
		count = s.cfg.RandomCount
	}
	if minimumPool <= 0 {
		minimumPool = s.cfg.MinimumPool
	}
	// Sampling without replacement needs at least count articles.
	minimumPool = max(minimumPool, count)

	pool, err := s.repo.List(ctx, s.cfg.PoolLimit)
	if err != nil {
		return nil, upstream(err)
	}
	if len(pool) < minimumPool {
		return nil, domain.NewFailure(domain.KindInsufficientData,
			fmt.Sprintf("Not enough articles to fetch %d random ones.", count), nil)
	}

	picked := sample(pool, count, s.intN)
	out := make([]domart.QueryResult, len(picked))
	for i, a := range picked {
		out[i] = toQueryResult(domart.Hit{Article: a, Score: RandomScore})
	}
	return out, nil
}

// Recommend finds the article best matching title and returns its k nearest
// neighbours, never including the article itself.
func (s *Service) Recommend(ctx context.Context, title string, k int) (_ []domart.QueryResult, err error) {
	defer observe(StrategyRecommend, time.Now(), &err)

	if strings.TrimSpace(title) == "" {
		return nil, domain.NewFailure(domain.KindInvalidArgument, "Title must not be empty.", nil)
	}
	k = s.k(k)

	src, err := s.repo.FindByTitle(ctx, title)
	if err != nil {
		if errors.Is(err, domain.ErrArticleNotFound) {
			return nil, domain.NewFailure(domain.KindNotFound, "Article not found.", err)
		}
		return nil, upstream(err)
	}

	hits, err := s.repo.SearchKNN(ctx, src.Vector(), k+1, src.ID())
	if err != nil {
		return nil, upstream(err)
	}
	return toQueryResults(excludeAndTruncate(hits, src.ID(), k)), nil
}

func (s *Service) k(k int) int {
	if k <= 0 {
		return s.cfg.DefaultK
	}
	return k
}

func (s *Service) vectorize(ctx context.Context, text string) ([]float32, error) {
	res, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, domain.NewFailure(domain.KindEmbedding, "Could not embed the query.", err)
	}
	return res.Embedding, nil
}

// excludeAndTruncate drops every hit with the given id and keeps at most k.
func excludeAndTruncate(hits []domart.Hit, id string, k int) []domart.Hit {
	out := make([]domart.Hit, 0, max(0, min(k, len(hits))))
	if k <= 0 {
		return out
	}
	for _, h := range hits {
		if h.Article.ID() == id {
			continue
		}
		out = append(out, h)
		if len(out) == k {
			break
		}
	}
	return out
}

// sample picks count distinct elements uniformly at random (partial Fisher-Yates).
func sample[T any](pool []T, count int, intN func(int) int) []T {
	idx := make([]int, len(pool))
	for i := range idx {
		idx[i] = i
	}
	count = min(count, len(pool))
	out := make([]T, count)
	for i := range count {
		j := i + intN(len(idx)-i)
		idx[i], idx[j] = idx[j], idx[i]
		out[i] = pool[idx[i]]
	}
	return out
}

// toQueryResult is the single projection shared by every strategy.
func toQueryResult(h domart.Hit) domart.QueryResult {
	return domart.QueryResult{
		Title:         h.Article.Title(),
		Content:       h.Article.Content(),
		Author:        h.Article.Author(),
		PublishedDate: h.Article.PublishedDate(),
		Score:         h.Score,
	}
}

func toQueryResults(hits []domart.Hit) []domart.QueryResult {
	out := make([]domart.QueryResult, len(hits))
	for i, h := range hits {
		out[i] = toQueryResult(h)
	}
	return out
}

func emptyQuery() error {
	return domain.NewFailure(domain.KindInvalidArgument, "Query must not be empty.", nil)
}

func upstream(err error) error {
	return domain.NewFailure(domain.KindUpstreamQuery, "Search query failed.", err)
}

func observe(strategy string, start time.Time, errp *error) {
	status := "success"
	if err := *errp; err != nil {
		status = "error"
		var f *domain.Failure
		if errors.As(err, &f) {
			status = string(f.Kind)
		}
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(strategy, status).Inc()
	metrics.RetrievalDuration.WithLabelValues(strategy).Observe(time.Since(start).Seconds())
}
