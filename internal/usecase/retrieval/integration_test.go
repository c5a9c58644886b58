package retrieval

import (
	"context"
	"hash/fnv"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/articlesearch/internal/db/embedded"
	"github.com/kailas-cloud/articlesearch/internal/domain"
	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
	artrepo "github.com/kailas-cloud/articlesearch/internal/repository/article"
	"github.com/kailas-cloud/articlesearch/internal/usecase/indexing"
)

const testDim = 16

// bagOfWords hashes lowercase tokens into a fixed-size count vector.
type bagOfWords struct{}

func (bagOfWords) Embed(_ context.Context, text string) (domain.EmbeddingResult, error) {
	v := make([]float32, testDim)
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		v[h.Sum32()%testDim]++
	}
	// Keep every vector non-zero so it is indexable.
	v[testDim-1] += 0.01
	return domain.EmbeddingResult{Embedding: v}, nil
}

func setup(t *testing.T, raw [][2]string) *Service {
	t.Helper()
	ctx := context.Background()
	store := embedded.NewStore()
	t.Cleanup(store.Close)

	repo := artrepo.New(store, artrepo.Config{KeyPrefix: "it:", Dimensions: testDim})
	articles := make([]domart.Article, 0, len(raw))
	for _, r := range raw {
		a, err := domart.New(r[0], r[1], "", "")
		require.NoError(t, err)
		articles = append(articles, a)
	}
	_, err := indexing.New(repo, bagOfWords{}, 2, zap.NewNop()).Run(ctx, articles)
	require.NoError(t, err)

	return New(repo, bagOfWords{}, Config{})
}

func TestIntegration_RoundTrip(t *testing.T) {
	svc := setup(t, [][2]string{
		{"AI in Healthcare", "AI diagnoses disease"},
		{"Gardening", "plant tomatoes in spring"},
		{"Cooking", "boil pasta in salted water"},
	})
	ctx := context.Background()

	lex, err := svc.Lexical(ctx, "disease", 3)
	require.NoError(t, err)
	require.Len(t, lex, 1)
	assert.Equal(t, "AI in Healthcare", lex[0].Title)
	assert.Greater(t, lex[0].Score, 0.0)

	sem, err := svc.Semantic(ctx, "medical AI", 3)
	require.NoError(t, err)
	require.Len(t, sem, 3)
	assert.Equal(t, "AI in Healthcare", sem[0].Title)
	for i := 1; i < len(sem); i++ {
		assert.GreaterOrEqual(t, sem[i-1].Score, sem[i].Score)
	}
}

func TestIntegration_SemanticSmallCorpus(t *testing.T) {
	svc := setup(t, [][2]string{{"Only", "one article"}})

	got, err := svc.Semantic(context.Background(), "article", 3)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestIntegration_RecommendScenario(t *testing.T) {
	svc := setup(t, [][2]string{
		{"Alpha", "first letter"},
		{"Beta", "second letter"},
		{"Gamma", "third letter"},
		{"Delta", "fourth letter"},
	})

	got, err := svc.Recommend(context.Background(), "Alpha", 3)
	require.NoError(t, err)
	titles := make([]string, len(got))
	for i, r := range got {
		titles[i] = r.Title
	}
	assert.ElementsMatch(t, []string{"Beta", "Gamma", "Delta"}, titles)
}

func TestIntegration_RecommendUnknownTitle(t *testing.T) {
	svc := setup(t, [][2]string{{"Alpha", "first letter"}})

	_, err := svc.Recommend(context.Background(), "Zebra", 3)
	require.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestIntegration_PunctuationOnlyQuery(t *testing.T) {
	svc := setup(t, [][2]string{{"Alpha", "first letter"}, {"Beta", "second letter"}})
	ctx := context.Background()

	lex, err := svc.Lexical(ctx, "?!", 3)
	require.NoError(t, err)
	assert.Empty(t, lex)

	_, err = svc.Recommend(ctx, "?!", 3)
	require.ErrorIs(t, err, domain.ErrArticleNotFound)
}

func TestIntegration_Random(t *testing.T) {
	nine := make([][2]string, 9)
	for i := range nine {
		nine[i] = [2]string{"Title " + string(rune('A'+i)), "content"}
	}

	svc := setup(t, nine)
	got, err := svc.Random(context.Background(), 9, 9)
	require.NoError(t, err)
	titles := make([]string, len(got))
	for i, r := range got {
		titles[i] = r.Title
	}
	want := make([]string, 9)
	for i := range nine {
		want[i] = nine[i][0]
	}
	assert.ElementsMatch(t, want, titles)

	svc = setup(t, nine[:8])
	_, err = svc.Random(context.Background(), 9, 9)
	require.ErrorIs(t, err, domain.ErrInsufficientData)
}
