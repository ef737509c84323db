package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func bareServer() *Server {
	return &Server{
		config:      NewConfig(),
		rateLimiter: rate.NewLimiter(100, 200),
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	valid := uuid.New().String()
	tests := []struct {
		name     string
		header   string
		keepSame bool
	}{
		{"generated when missing", "", false},
		{"kept when valid", valid, true},
		{"replaced when invalid", "not-a-uuid", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured string
			h := bareServer().requestIDMiddleware(func(w http.ResponseWriter, r *http.Request) {
				captured, _ = r.Context().Value(contextKeyRequestID).(string)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("X-Request-Id", tt.header)
			}
			rec := httptest.NewRecorder()
			h(rec, req)

			_, err := uuid.Parse(captured)
			require.NoError(t, err)
			assert.Equal(t, captured, rec.Header().Get("X-Request-Id"))
			if tt.keepSame {
				assert.Equal(t, tt.header, captured)
			} else {
				assert.NotEqual(t, tt.header, captured)
			}
		})
	}
}

func TestVersionMiddleware(t *testing.T) {
	var captured string
	h := bareServer().versionMiddleware(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = r.Context().Value(contextKeyAPIVersion).(string)
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/vnd.copper.v1+json")
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.Equal(t, "v1", captured)
	assert.Equal(t, "v1", rec.Header().Get(APIVersionHeader))
}

func TestVersionMiddleware_RejectsUnsupported(t *testing.T) {
	called := false
	h := bareServer().versionMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept", "application/vnd.copper.v2+json")
	rec := httptest.NewRecorder()
	h(rec, req)

	assert.False(t, called)
	assert.Equal(t, http.StatusNotAcceptable, rec.Code)
	assert.Empty(t, rec.Header().Get(APIVersionHeader))
	assert.Contains(t, rec.Body.String(), ErrCodeNotAcceptable)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := bareServer()
	s.config.RateLimit = 1
	s.config.RateLimitBurst = 1
	s.rateLimiter = rate.NewLimiter(1, 1)

	h := s.rateLimitMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))
	assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestPanicRecoveryMiddleware(t *testing.T) {
	h := bareServer().panicRecoveryMiddleware(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})

	rec := httptest.NewRecorder()
	require.NotPanics(t, func() {
		h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, ErrCodeInternalError, decodeError(t, rec).Code)
}

func TestLoggingMiddleware_PassesStatus(t *testing.T) {
	h := bareServer().loggingMiddleware(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := newResponseWriter(rec)
	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusInternalServerError)
	_, err := rw.Write([]byte("ok"))
	require.NoError(t, err)

	assert.Equal(t, http.StatusAccepted, rw.Status())
	assert.Equal(t, http.StatusAccepted, rec.Code)
}
