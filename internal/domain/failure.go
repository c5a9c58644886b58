package domain

// FailureKind classifies query-time failures surfaced by the retrieval engine.
type FailureKind string

// Failure kinds.
const (
	KindNotFound         FailureKind = "not_found"
	KindInsufficientData FailureKind = "insufficient_data"
	KindUpstreamQuery    FailureKind = "upstream_query_failed"
	KindInvalidArgument  FailureKind = "invalid_query"
	KindEmbedding        FailureKind = "embedding_provider_error"
)

// Failure is a structured query-time failure: a kind, a client-facing message
// and the underlying cause.
type Failure struct {
	Kind    FailureKind
	Message string
	Err     error
}

// NewFailure creates a Failure.
func NewFailure(kind FailureKind, message string, cause error) *Failure {
	return &Failure{Kind: kind, Message: message, Err: cause}
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Message
	}
	return f.Message + ": " + f.Err.Error()
}

func (f *Failure) Unwrap() error { return f.Err }

// Is matches the sentinel of the failure kind, so callers can use
// errors.Is(err, ErrArticleNotFound) without knowing about Failure.
func (f *Failure) Is(target error) bool {
	s := f.Kind.sentinel()
	return s != nil && target == s
}

func (k FailureKind) sentinel() error {
	switch k {
	case KindNotFound:
		return ErrArticleNotFound
	case KindInsufficientData:
		return ErrInsufficientData
	case KindUpstreamQuery:
		return ErrUpstreamQuery
	case KindInvalidArgument:
		return ErrInvalidQuery
	case KindEmbedding:
		return ErrEmbeddingProviderError
	default:
		return nil
	}
}
