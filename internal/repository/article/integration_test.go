package article

import (
	"context"
	"errors"
	"testing"

	"github.com/kailas-cloud/articlesearch/internal/db/embedded"
	"github.com/kailas-cloud/articlesearch/internal/domain"
	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
)

func TestEmbeddedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := embedded.NewStore()
	t.Cleanup(s.Close)

	r := New(s, Config{KeyPrefix: "it:", Dimensions: 3})
	if err := r.RecreateIndex(ctx); err != nil {
		t.Fatalf("recreate: %v", err)
	}

	a := withVector(t, "AI in Healthcare", "AI diagnoses disease", "", "", []float32{1, 0, 0})
	b := withVector(t, "Gardening", "plant tomatoes", "Ann", "2023-05-01", []float32{0, 1, 0})
	ids, err := r.UpsertBatch(ctx, []domart.Article{a, b})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	hits, err := r.SearchContent(ctx, "disease", 3)
	if err != nil {
		t.Fatalf("content: %v", err)
	}
	if len(hits) != 1 || hits[0].Article.Title() != "AI in Healthcare" || hits[0].Score <= 0 {
		t.Errorf("content hits = %+v", hits)
	}

	found, err := r.FindByTitle(ctx, "AI in Healthcare")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if found.ID() != ids[0] || len(found.Vector()) != 3 {
		t.Errorf("found = %q %v", found.ID(), found.Vector())
	}

	near, err := r.SearchKNN(ctx, found.Vector(), 2, found.ID())
	if err != nil {
		t.Fatalf("knn: %v", err)
	}
	if len(near) != 1 || near[0].Article.ID() != ids[1] {
		t.Errorf("knn hits = %+v", near)
	}
	if near[0].Article.Author() != "Ann" {
		t.Errorf("author = %q", near[0].Article.Author())
	}

	all, err := r.List(ctx, 1000)
	if err != nil || len(all) != 2 {
		t.Errorf("list = %d, %v", len(all), err)
	}

	// Recreation is destructive.
	if err := r.RecreateIndex(ctx); err != nil {
		t.Fatalf("recreate: %v", err)
	}
	all, err = r.List(ctx, 1000)
	if err != nil || len(all) != 0 {
		t.Errorf("expected empty index after recreate, got %d, %v", len(all), err)
	}
	if _, err := r.FindByTitle(ctx, "AI"); !errors.Is(err, domain.ErrArticleNotFound) {
		t.Errorf("expected ErrArticleNotFound, got %v", err)
	}
}
