package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	cerrors "github.com/velarno/copper/pkg/errors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		code      cerrors.ErrorCode
		status    int
		retryable bool
	}{
		{cerrors.ErrCodeNotFound, http.StatusNotFound, false},
		{cerrors.ErrCodeInvalidRequest, http.StatusBadRequest, false},
		{cerrors.ErrCodeUnsatisfiableBudget, http.StatusUnprocessableEntity, false},
		{cerrors.ErrCodeUnauthorized, http.StatusUnauthorized, false},
		{cerrors.ErrCodeRateLimitExceeded, http.StatusTooManyRequests, true},
		{cerrors.ErrCodeUnavailable, http.StatusServiceUnavailable, true},
		{cerrors.ErrCodeTimeout, http.StatusGatewayTimeout, true},
		{cerrors.ErrCodeInternal, http.StatusInternalServerError, false},
		{cerrors.ErrorCode("SOMETHING_ELSE"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			status, retryable := statusFor(tt.code)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.retryable, retryable)
		})
	}
}

func TestWriteErr(t *testing.T) {
	t.Run("structured error keeps message and context", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(context.WithValue(req.Context(), contextKeyRequestID, "req-1"))
		rec := httptest.NewRecorder()

		err := cerrors.WrapWithContext(cerrors.ErrCodeUnavailable, "costing endpoint down",
			errors.New("dial tcp"), map[string]any{"dataset": "era5"})
		writeErr(rec, req, err)

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "UNAVAILABLE", resp.Code)
		assert.Equal(t, "costing endpoint down", resp.Message)
		assert.Equal(t, "era5", resp.Details["dataset"])
		assert.Equal(t, "req-1", resp.RequestID)
		assert.True(t, resp.Retryable)
	})

	t.Run("plain error is hidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		writeErr(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("secret dsn in message"))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		resp := decodeError(t, rec)
		assert.Equal(t, "INTERNAL", resp.Code)
		assert.Equal(t, "internal server error", resp.Message)
		assert.Nil(t, resp.Details)
		assert.NotEmpty(t, resp.RequestID)
	})
}
