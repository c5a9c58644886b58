package domain

import "errors"

var (
	// ErrArticleNotFound signals that no article matches a lookup.
	ErrArticleNotFound = errors.New("article not found")
	// ErrInsufficientData signals that the corpus is too small for the request.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUpstreamQuery signals that the document store rejected or failed a query.
	ErrUpstreamQuery = errors.New("upstream query failed")
	// ErrInvalidQuery signals an empty or malformed query.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
)
