package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/articlesearch/internal/domain"
	domart "github.com/kailas-cloud/articlesearch/internal/domain/article"
	logpkg "github.com/kailas-cloud/articlesearch/internal/logger"
	"github.com/kailas-cloud/articlesearch/internal/metrics"
	healthuc "github.com/kailas-cloud/articlesearch/internal/usecase/health"
)

// Error codes returned in the {code, message} error body.
const (
	CodeBadRequest    = "bad_request"
	CodeInternalError = "internal_error"
)

// Retriever is the retrieval engine as seen by the HTTP layer.
type Retriever interface {
	Semantic(ctx context.Context, query string, k int) ([]domart.QueryResult, error)
	Lexical(ctx context.Context, query string, k int) ([]domart.QueryResult, error)
	Random(ctx context.Context, count, minimumPool int) ([]domart.QueryResult, error)
	Recommend(ctx context.Context, title string, k int) ([]domart.QueryResult, error)
}

// HealthReporter produces the aggregated health report.
type HealthReporter interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server maps HTTP requests onto retrieval strategies.
type Server struct {
	retrieval     Retriever
	health        HealthReporter
	logger        *zap.Logger
	corsOrigins   []string
	errorHandlers []errorHandler
}

// Option configures a Server.
type Option func(*Server)

// WithCORSOrigins restricts CORS to the given origins. Empty or "*" allows all.
func WithCORSOrigins(origins []string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// NewServer creates an HTTP API server.
func NewServer(retrieval Retriever, health HealthReporter, logger *zap.Logger, opts ...Option) *Server {
	s := &Server{
		retrieval: retrieval,
		health:    health,
		logger:    logger,
	}
	for _, o := range opts {
		o(s)
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrArticleNotFound, http.StatusNotFound, domain.KindNotFound),
		sentinelHandler(domain.ErrInsufficientData, http.StatusNotFound, domain.KindInsufficientData),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, domain.KindInvalidArgument),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, domain.KindEmbedding),
		sentinelHandler(domain.ErrUpstreamQuery, http.StatusBadGateway, domain.KindUpstreamQuery),
	}
	return s
}

// Handler builds the router with the full middleware stack.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(JSONRecoverer(s.logger))
	r.Use(CORS(s.corsOrigins))
	r.Use(chiMiddleware.RequestID)
	r.Use(WideEvent(s.logger))
	r.Use(metrics.Middleware())

	r.Post("/good-search", s.GoodSearch)
	r.Post("/bad-search", s.BadSearch)
	r.Get("/random-articles", s.RandomArticles)
	r.Get("/recommend-articles", s.RecommendArticles)
	r.Get("/health", s.HealthCheck)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
	return r
}

type searchRequest struct {
	Query string `json:"query"`
}

// GoodSearch handles POST /good-search (semantic KNN).
func (s *Server) GoodSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	results, err := s.retrieval.Semantic(r.Context(), req.Query, 0)
	s.respond(w, r, results, err)
}

// BadSearch handles POST /bad-search (lexical content match).
func (s *Server) BadSearch(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeSearch(w, r)
	if !ok {
		return
	}
	results, err := s.retrieval.Lexical(r.Context(), req.Query, 0)
	s.respond(w, r, results, err)
}

// RandomArticles handles GET /random-articles.
func (s *Server) RandomArticles(w http.ResponseWriter, r *http.Request) {
	results, err := s.retrieval.Random(r.Context(), 0, 0)
	s.respond(w, r, results, err)
}

// RecommendArticles handles GET /recommend-articles?title=.
func (s *Server) RecommendArticles(w http.ResponseWriter, r *http.Request) {
	results, err := s.retrieval.Recommend(r.Context(), r.URL.Query().Get("title"), 0)
	s.respond(w, r, results, err)
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthResponse{Status: string(report.Status), Checks: checks})
}

func decodeSearch(w http.ResponseWriter, r *http.Request) (searchRequest, bool) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return searchRequest{}, false
	}
	return req, true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, results []domart.QueryResult, err error) {
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if results == nil {
		results = []domart.QueryResult{}
	}
	writeJSON(w, http.StatusOK, results)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

func sentinelHandler(sentinel error, status int, kind domain.FailureKind) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, string(kind), safeMessage(err, sentinel))
		return true
	}
}

// safeMessage prefers the client-facing Failure message over the raw error chain.
func safeMessage(err, sentinel error) string {
	var f *domain.Failure
	if errors.As(err, &f) && f.Message != "" {
		return f.Message
	}
	return sentinel.Error()
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
