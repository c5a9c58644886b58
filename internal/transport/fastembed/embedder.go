//go:build cgo

package fastembed

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	fastembed "github.com/anush008/fastembed-go"

	"github.com/kailas-cloud/articlesearch/internal/domain"
)

// Embedder runs a local ONNX sentence-embedding model.
type Embedder struct {
	mu        sync.RWMutex
	model     *fastembed.FlagEmbedding
	modelName string
}

// NewEmbedder loads the model, downloading it into CacheDir on first use.
// A model that cannot be loaded is a startup error.
func NewEmbedder(cfg Config) (*Embedder, error) {
	canonical, dim, err := resolveModel(cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.Dimensions > 0 && cfg.Dimensions != dim {
		return nil, fmt.Errorf("model %s produces %d dimensions, configured %d", cfg.Model, dim, cfg.Dimensions)
	}

	cacheDir := cfg.CacheDir
	if cacheDir == "" {
		cacheDir = filepath.Join(".", "local_cache")
	}
	maxLength := cfg.MaxLength
	if maxLength == 0 {
		maxLength = 512
	}
	showProgress := false

	flag, err := fastembed.NewFlagEmbedding(&fastembed.InitOptions{
		Model:                fastembed.EmbeddingModel(canonical),
		CacheDir:             cacheDir,
		MaxLength:            maxLength,
		ShowDownloadProgress: &showProgress,
	})
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", cfg.Model, err)
	}

	name := cfg.Model
	if name == "" {
		name = DefaultModel
	}
	return &Embedder{model: flag, modelName: name}, nil
}

// Provider returns the provider label.
func (e *Embedder) Provider() string { return ProviderName }

// Model returns the configured model name.
func (e *Embedder) Model() string { return e.modelName }

// Embed implements domain.Embedder. The text is embedded as is, without
// query or passage prefixes, so documents and queries share one space.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.EmbeddingResult{}, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return domain.EmbeddingResult{}, fmt.Errorf("model closed: %w", domain.ErrEmbeddingProviderError)
	}

	out, err := e.model.Embed([]string{text}, 1)
	if err != nil {
		return domain.EmbeddingResult{}, fmt.Errorf("fastembed: %v: %w", err, domain.ErrEmbeddingProviderError)
	}
	if len(out) != 1 {
		return domain.EmbeddingResult{}, fmt.Errorf("fastembed returned %d vectors: %w",
			len(out), domain.ErrEmbeddingProviderError)
	}
	return domain.EmbeddingResult{Embedding: out[0]}, nil
}

// HealthCheck reports whether the model is loaded.
func (e *Embedder) HealthCheck(_ context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.model == nil {
		return fmt.Errorf("model closed: %w", domain.ErrEmbeddingProviderError)
	}
	return nil
}

// Close releases the ONNX session.
func (e *Embedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
		return nil
	}
	err := e.model.Destroy()
	e.model = nil
	if err != nil {
		return fmt.Errorf("destroy model: %w", err)
	}
	return nil
}
