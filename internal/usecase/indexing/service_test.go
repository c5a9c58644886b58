package indexing

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/articlesearch/internal/domain"
	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
	"github.com/kailas-cloud/articlesearch/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterRetrievalMetrics()
	os.Exit(m.Run())
}

type mockRepo struct {
	mu          sync.Mutex
	calls       []string
	stored      []domart.Article
	recreateErr error
	upsertErr   error
}

func (m *mockRepo) RecreateIndex(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "recreate")
	return m.recreateErr
}

func (m *mockRepo) UpsertBatch(_ context.Context, articles []domart.Article) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "upsert")
	if m.upsertErr != nil {
		return nil, m.upsertErr
	}
	ids := make([]string, len(articles))
	for i, a := range articles {
		ids[i] = "id-" + a.Title()
	}
	m.stored = append(m.stored, articles...)
	return ids, nil
}

// lenEmbedder returns a 3-dim vector derived from the text; texts containing
// "fail" produce an error.
type lenEmbedder struct {
	mu    sync.Mutex
	texts []string
}

func (e *lenEmbedder) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	e.mu.Lock()
	e.texts = append(e.texts, text)
	e.mu.Unlock()
	if strings.Contains(text, "fail") {
		return domain.EmbeddingResult{}, domain.ErrEmbeddingProviderError
	}
	return domain.EmbeddingResult{Embedding: []float32{float32(len(text)), 1, 0}}, nil
}

func articles(t *testing.T, titles ...string) []domart.Article {
	t.Helper()
	out := make([]domart.Article, 0, len(titles))
	for _, title := range titles {
		a, err := domart.New(title, "body of "+title, "", "")
		require.NoError(t, err)
		out = append(out, a)
	}
	return out
}

func TestRun_IndexesAll(t *testing.T) {
	repo := &mockRepo{}
	emb := &lenEmbedder{}
	svc := New(repo, emb, 4, zap.NewNop())

	res, err := svc.Run(context.Background(), articles(t, "A", "B", "C"))
	require.NoError(t, err)

	assert.Equal(t, []string{"id-A", "id-B", "id-C"}, res.IDs)
	assert.Equal(t, []string{"recreate", "upsert"}, repo.calls)
	require.Len(t, repo.stored, 3)
	for _, a := range repo.stored {
		assert.Len(t, a.Vector(), 3)
	}
	assert.Contains(t, emb.texts, "A body of A")
}

func TestRun_PreservesInputOrder(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &lenEmbedder{}, 8, zap.NewNop())

	titles := make([]string, 50)
	for i := range titles {
		titles[i] = strings.Repeat("x", i+1)
	}
	_, err := svc.Run(context.Background(), articles(t, titles...))
	require.NoError(t, err)

	require.Len(t, repo.stored, 50)
	for i, a := range repo.stored {
		assert.Equal(t, titles[i], a.Title())
		assert.Equal(t, float32(len(a.EmbeddingText())), a.Vector()[0])
	}
}

func TestRun_EmbeddingFailureWritesNothing(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &lenEmbedder{}, 2, zap.NewNop())

	_, err := svc.Run(context.Background(), articles(t, "A", "fail here", "C"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingProviderError)
	assert.Empty(t, repo.calls, "no write may happen when an embedding fails")
}

func TestRun_UpsertFailure(t *testing.T) {
	repo := &mockRepo{upsertErr: errors.New("connection reset")}
	svc := New(repo, &lenEmbedder{}, 2, zap.NewNop())

	_, err := svc.Run(context.Background(), articles(t, "A"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestRun_RecreateFailure(t *testing.T) {
	repo := &mockRepo{recreateErr: errors.New("rejected")}
	svc := New(repo, &lenEmbedder{}, 2, zap.NewNop())

	_, err := svc.Run(context.Background(), articles(t, "A"))
	require.Error(t, err)
	assert.Equal(t, []string{"recreate"}, repo.calls)
}

func TestRun_Empty(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &lenEmbedder{}, 2, zap.NewNop())

	res, err := svc.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, res.IDs)
	assert.Equal(t, []string{"recreate"}, repo.calls)
}

func TestRun_BatchesUpserts(t *testing.T) {
	repo := &mockRepo{}
	svc := New(repo, &lenEmbedder{}, 4, zap.NewNop())

	titles := make([]string, upsertBatchSize+1)
	for i := range titles {
		titles[i] = "t"
	}
	res, err := svc.Run(context.Background(), articles(t, titles...))
	require.NoError(t, err)
	assert.Len(t, res.IDs, upsertBatchSize+1)
	assert.Equal(t, []string{"recreate", "upsert", "upsert"}, repo.calls)
}

func TestRun_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	repo := &mockRepo{}
	svc := New(repo, &lenEmbedder{}, 2, zap.NewNop())

	_, err := svc.Run(ctx, articles(t, "A", "B"))
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, repo.calls)
}

func TestNew_DefaultWorkers(t *testing.T) {
	svc := New(&mockRepo{}, &lenEmbedder{}, 0, zap.NewNop())
	assert.GreaterOrEqual(t, svc.workers, 1)
}
