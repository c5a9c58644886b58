package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/articlesearch/internal/domain"
	"github.com/kailas-cloud/articlesearch/internal/metrics"
)

// InstrumentedEmbedder wraps an Embedder with dimension validation, metrics and logging.
// Token metrics stay in the remote transport, which is the only place that sees usage.
type InstrumentedEmbedder struct {
	inner      domain.Embedder
	provider   string
	model      string
	dimensions int
	logger     *zap.Logger
}

// NewInstrumentedEmbedder wraps an embedder. Every vector it returns has exactly
// dimensions elements.
func NewInstrumentedEmbedder(
	inner domain.Embedder, provider, model string, dimensions int, logger *zap.Logger,
) *InstrumentedEmbedder {
	return &InstrumentedEmbedder{
		inner:      inner,
		provider:   provider,
		model:      model,
		dimensions: dimensions,
		logger:     logger,
	}
}

// Dimensions returns the enforced vector size.
func (p *InstrumentedEmbedder) Dimensions() int { return p.dimensions }

// Embed delegates to the inner embedder and checks the vector size.
func (p *InstrumentedEmbedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	start := time.Now()
	result, err := p.inner.Embed(ctx, text)
	duration := time.Since(start)

	if err != nil {
		p.fail(errorType(err))
		p.logger.Error("Embedding request failed",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		if !errors.Is(err, domain.ErrEmbeddingProviderError) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %w", domain.ErrEmbeddingProviderError, err)
		}
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w", err)
	}

	if got := len(result.Embedding); got != p.dimensions {
		p.fail("dimension_mismatch")
		p.logger.Error("Embedding has unexpected dimensions",
			zap.String("provider", p.provider),
			zap.String("model", p.model),
			zap.Int("got", got),
			zap.Int("want", p.dimensions),
		)
		return domain.EmbeddingResult{}, fmt.Errorf("embed: %w: got %d, want %d",
			domain.ErrVectorDimMismatch, got, p.dimensions)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues(p.provider, p.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues(p.provider, p.model).Observe(duration.Seconds())

	p.logger.Debug("Embedding request completed",
		zap.String("provider", p.provider),
		zap.String("model", p.model),
		zap.Duration("duration", duration),
		zap.Int("dimensions", len(result.Embedding)),
		zap.Int("total_tokens", result.TotalTokens),
	)
	return result, nil
}

// HealthCheck proxies to the inner embedder when it supports health checks.
func (p *InstrumentedEmbedder) HealthCheck(ctx context.Context) error {
	if hc, ok := p.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent proxy
	}
	return nil
}

func (p *InstrumentedEmbedder) fail(errType string) {
	metrics.EmbeddingRequestsTotal.WithLabelValues(p.provider, p.model, "error").Inc()
	metrics.EmbeddingErrorsTotal.WithLabelValues(p.provider, p.model, errType).Inc()
}

func errorType(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "provider_error"
	}
}
