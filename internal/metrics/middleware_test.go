package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Post("/good-search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("POST", "/good-search", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("POST", "/good-search", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

// articleRouter mounts the service routes with canned statuses.
func articleRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Post("/good-search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	r.Post("/bad-search", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("[]"))
	})
	r.Get("/random-articles", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/recommend-articles", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("title") == "" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("[]"))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	return r
}

func TestMetricsMiddleware_ServiceRoutes(t *testing.T) {
	r := articleRouter()

	tests := []struct {
		name   string
		method string
		target string
		route  string
		status string
	}{
		{"semantic upstream failure", "POST", "/good-search", "/good-search", "502"},
		{"lexical", "POST", "/bad-search", "/bad-search", "200"},
		{"random insufficient data", "GET", "/random-articles", "/random-articles", "404"},
		{"recommend hit", "GET", "/recommend-articles?title=Go", "/recommend-articles", "200"},
		{"recommend miss", "GET", "/recommend-articles?title=", "/recommend-articles", "404"},
		{"health degraded", "GET", "/health", "/health", "503"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			counter := httpRequestsTotal.WithLabelValues(tc.method, tc.route, tc.status)
			before := testutil.ToFloat64(counter)

			req := httptest.NewRequest(tc.method, tc.target, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			if got := strconv.Itoa(rr.Code); got != tc.status {
				t.Fatalf("status = %s, want %s", got, tc.status)
			}
			if after := testutil.ToFloat64(counter); after != before+1 {
				t.Errorf("requests_total{%s %s %s} = %f, want %f", tc.method, tc.route, tc.status, after, before+1)
			}
		})
	}
}

func TestMetricsMiddleware_QueryStringNotInLabel(t *testing.T) {
	r := articleRouter()

	for _, title := range []string{"Go", "Rust", "Zig"} {
		req := httptest.NewRequest("GET", "/recommend-articles?title="+title, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/recommend-articles?title=Go", "200")); v != 0 {
		t.Errorf("query string leaked into path label: %f", v)
	}
	if v := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/recommend-articles", "200")); v < 3 {
		t.Errorf("expected >= 3 recommend requests under the route label, got %f", v)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/bad-search", "/bad-search"},
		{"/health", "/health"},
	}

	for _, tc := range tests {
		result := normalizePath(tc.input)
		if result != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestMetricsHandler_ViaPromhttp(t *testing.T) {
	r := chi.NewRouter()

	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("# metrics placeholder"))
	})

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	if len(body) == 0 {
		t.Error("expected non-empty metrics response")
	}
}
