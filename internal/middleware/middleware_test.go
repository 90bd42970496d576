package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YashwanthKamireddi/project-prerana/internal/infrastructure"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func TestRequestID(t *testing.T) {
	tests := []struct {
		name       string
		headerID   string
		wantHeader bool
	}{
		{
			name:       "generates new request ID",
			headerID:   "",
			wantHeader: true,
		},
		{
			name:       "preserves existing request ID",
			headerID:   "existing-id-123",
			wantHeader: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var capturedID string
			var capturedTraceID string

			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				capturedID = GetReqID(r.Context())
				capturedTraceID = infrastructure.GetTraceID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if tt.headerID != "" {
				req.Header.Set("X-Request-ID", tt.headerID)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.NotEmpty(t, capturedID)
			assert.Equal(t, capturedID, capturedTraceID)
			assert.Equal(t, capturedID, rec.Header().Get("X-Request-ID"))

			if tt.headerID != "" {
				assert.Equal(t, tt.headerID, capturedID)
			}
		})
	}
}

func TestStructuredLogger(t *testing.T) {
	handler := StructuredLogger(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("created"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/items", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "created", rec.Body.String())
}

func TestRecoverer(t *testing.T) {
	handler := Recoverer(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something broke")
	}))

	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-abc"))
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/internal-server-error", problem["type"])
	assert.Equal(t, "trace-abc", problem["trace_id"])
}

func TestRateLimiter(t *testing.T) {
	// 1 request per second with burst of 1: second request must be rejected
	rl := NewRateLimiter(1, 1, testLogger())

	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/limited", nil)

	rec1 := httptest.NewRecorder()
	handler.ServeHTTP(rec1, req)
	assert.Equal(t, http.StatusOK, rec1.Code)

	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req)
	assert.Equal(t, http.StatusTooManyRequests, rec2.Code)
	assert.Equal(t, "60", rec2.Header().Get("Retry-After"))

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &problem))
	assert.Equal(t, "/errors/rate-limit-exceeded", problem["type"])
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		method     string
		wantOrigin string
		wantStatus int
	}{
		{
			name:       "allowed origin",
			origins:    []string{"http://localhost:8080"},
			origin:     "http://localhost:8080",
			method:     http.MethodGet,
			wantOrigin: "http://localhost:8080",
			wantStatus: http.StatusOK,
		},
		{
			name:       "disallowed origin",
			origins:    []string{"http://localhost:8080"},
			origin:     "http://evil.example.com",
			method:     http.MethodGet,
			wantOrigin: "",
			wantStatus: http.StatusOK,
		},
		{
			name:       "wildcard origin",
			origins:    []string{"*"},
			origin:     "http://anywhere.example.com",
			method:     http.MethodGet,
			wantOrigin: "http://anywhere.example.com",
			wantStatus: http.StatusOK,
		},
		{
			name:       "preflight request",
			origins:    []string{"http://localhost:8080"},
			origin:     "http://localhost:8080",
			method:     http.MethodOptions,
			wantOrigin: "http://localhost:8080",
			wantStatus: http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := CORS(CORSConfig{AllowedOrigins: tt.origins})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/data", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}

func TestSecureHeadersHandler(t *testing.T) {
	t.Run("production defaults", func(t *testing.T) {
		sh := DefaultSecureHeaders()

		handler := sh.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'self'")
		assert.NotEmpty(t, rec.Header().Get("Permissions-Policy"))
		// No HSTS without TLS
		assert.Empty(t, rec.Header().Get("Strict-Transport-Security"))
	})

	t.Run("dev mode", func(t *testing.T) {
		sh := DefaultSecureHeaders()
		sh.DevMode = true

		handler := sh.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
		assert.Contains(t, rec.Header().Get("Strict-Transport-Security"), "max-age=63072000")
	})
}

func TestAuditLog(t *testing.T) {
	handler := AuditLog(testLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/fraud/freeze", nil)
	rec := httptest.NewRecorder()

	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestProblemFromStatus(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantType  string
		wantTitle string
	}{
		{"not found", http.StatusNotFound, "/errors/not-found", "Not Found"},
		{"method not allowed", http.StatusMethodNotAllowed, "/errors/method-not-allowed", "Method Not Allowed"},
		{"rate limit", http.StatusTooManyRequests, "/errors/rate-limit-exceeded", "Too Many Requests"},
		{"unsupported media type", http.StatusUnsupportedMediaType, "/errors/unsupported-media-type", "Unsupported Media Type"},
		{"gateway timeout", http.StatusGatewayTimeout, "/errors/gateway-timeout", "Gateway Timeout"},
		{"unmapped status", http.StatusTeapot, "/errors/unknown", "I'm a teapot"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problem := ProblemFromStatus(tt.status, "detail", "trace-2")
			assert.Equal(t, tt.status, problem.Status)
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantTitle, problem.Title)
			assert.Equal(t, "trace-2", problem.Trace)
		})
	}
}

func TestRouterFallbackHandlers(t *testing.T) {
	t.Run("not found", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/nope", nil)
		req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-nf"))
		rec := httptest.NewRecorder()

		NotFound(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))

		var problem map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		assert.Equal(t, "/errors/not-found", problem["type"])
		assert.Equal(t, "trace-nf", problem["trace_id"])
		assert.Contains(t, problem["detail"], "/nope")
	})

	t.Run("method not allowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/gaps/analysis", nil)
		rec := httptest.NewRecorder()

		MethodNotAllowed(rec, req)

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

		var problem map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
		assert.Equal(t, "/errors/method-not-allowed", problem["type"])
		assert.Contains(t, problem["detail"], "DELETE")
	})
}
