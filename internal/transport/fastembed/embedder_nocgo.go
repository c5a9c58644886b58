//go:build !cgo

package fastembed

import (
	"context"
	"errors"

	"github.com/kailas-cloud/articlesearch/internal/domain"
)

// ErrNotAvailable is returned when the binary was built without cgo.
var ErrNotAvailable = errors.New("fastembed: not available (binary built without cgo, use the openai provider)")

// Embedder is a stub for non-cgo builds.
type Embedder struct{}

// NewEmbedder validates the model name and then fails: ONNX needs cgo.
func NewEmbedder(cfg Config) (*Embedder, error) {
	if _, _, err := resolveModel(cfg.Model); err != nil {
		return nil, err
	}
	return nil, ErrNotAvailable
}

// Provider returns the provider label.
func (e *Embedder) Provider() string { return ProviderName }

// Model returns an empty name.
func (e *Embedder) Model() string { return "" }

// Embed always fails.
func (e *Embedder) Embed(context.Context, string) (domain.EmbeddingResult, error) {
	return domain.EmbeddingResult{}, ErrNotAvailable
}

// HealthCheck always fails.
func (e *Embedder) HealthCheck(context.Context) error { return ErrNotAvailable }

// Close is a no-op.
func (e *Embedder) Close() error { return nil }
