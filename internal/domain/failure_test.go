package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestFailure_IsKindSentinel(t *testing.T) {
	tests := []struct {
		kind FailureKind
		want error
	}{
		{KindNotFound, ErrArticleNotFound},
		{KindInsufficientData, ErrInsufficientData},
		{KindUpstreamQuery, ErrUpstreamQuery},
		{KindInvalidArgument, ErrInvalidQuery},
		{KindEmbedding, ErrEmbeddingProviderError},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			var err error = NewFailure(tt.kind, "msg", nil)
			if !errors.Is(err, tt.want) {
				t.Errorf("errors.Is(%s, %v) = false", tt.kind, tt.want)
			}
			if errors.Is(err, ErrVectorDimMismatch) {
				t.Error("unexpected match on unrelated sentinel")
			}
		})
	}
}

func TestFailure_UnwrapsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("search: %w", NewFailure(KindUpstreamQuery, "query failed", cause))

	if !errors.Is(err, cause) {
		t.Error("cause not reachable")
	}
	if !errors.Is(err, ErrUpstreamQuery) {
		t.Error("kind sentinel not reachable")
	}
	var f *Failure
	if !errors.As(err, &f) || f.Kind != KindUpstreamQuery {
		t.Errorf("errors.As failed: %v", f)
	}
	if got := f.Error(); got != "query failed: connection refused" {
		t.Errorf("Error() = %q", got)
	}
}

func TestFailure_MessageOnly(t *testing.T) {
	f := NewFailure(KindNotFound, "Article not found.", nil)
	if f.Error() != "Article not found." {
		t.Errorf("Error() = %q", f.Error())
	}
	if f.Unwrap() != nil {
		t.Error("expected nil cause")
	}
}

func TestFailure_UnknownKind(t *testing.T) {
	f := NewFailure("other", "x", nil)
	if errors.Is(f, ErrArticleNotFound) {
		t.Error("unknown kind must not match sentinels")
	}
}
