package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeNotFound, "resource not found")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Code != ErrCodeNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeNotFound, err.Code)
	}
	if err.Message != "resource not found" {
		t.Errorf("expected message 'resource not found', got %s", err.Message)
	}
	if err.Cause != nil {
		t.Errorf("expected nil cause, got %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeInternal, "operation failed", cause)

	if err.Code != ErrCodeInternal {
		t.Errorf("expected code %s, got %s", ErrCodeInternal, err.Code)
	}
	if !errors.Is(err, cause) {
		t.Errorf("expected cause to be wrapped")
	}
}

func TestWrapWithContext(t *testing.T) {
	cause := errors.New("connection refused")
	ctx := map[string]any{
		"dataset": "reanalysis-era5-single-levels",
		"status":  503,
	}

	err := WrapWithContext(ErrCodeUnavailable, "costing request failed", cause, ctx)

	if err.Code != ErrCodeUnavailable {
		t.Errorf("expected code %s, got %s", ErrCodeUnavailable, err.Code)
	}
	if err.Context == nil {
		t.Fatal("expected context to be set")
	}
	if err.Context["dataset"] != "reanalysis-era5-single-levels" {
		t.Errorf("expected dataset in context")
	}
}

func TestError(t *testing.T) {
	tests := []struct {
		name     string
		err      *StructuredError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(ErrCodeNotFound, "not found"),
			expected: "[NOT_FOUND] not found",
		},
		{
			name:     "error with cause",
			err:      Wrap(ErrCodeInternal, "failed", errors.New("root cause")),
			expected: "[INTERNAL] failed: root cause",
		},
		{
			name:     "not found helper",
			err:      NotFound("template", "era5"),
			expected: `[NOT_FOUND] template "era5" not found`,
		},
		{
			name:     "validation helper",
			err:      Validation("metadata", "missing required key"),
			expected: "[INVALID_REQUEST] metadata: missing required key",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Wrap(ErrCodeInternal, "wrapped", cause)

	unwrapped := err.Unwrap()
	if !errors.Is(unwrapped, cause) {
		t.Errorf("expected unwrapped error to be original cause")
	}

	if !errors.Is(err, cause) {
		t.Errorf("errors.Is should work with Unwrap")
	}
}

func TestIsCode(t *testing.T) {
	inner := New(ErrCodeUnavailable, "oracle down")
	outer := Wrap(ErrCodeInternal, "estimate failed", inner)
	plain := fmt.Errorf("context: %w", outer)

	tests := []struct {
		name string
		err  error
		code ErrorCode
		want bool
	}{
		{"direct match", inner, ErrCodeUnavailable, true},
		{"nested match", outer, ErrCodeUnavailable, true},
		{"through fmt wrap", plain, ErrCodeInternal, true},
		{"no match", outer, ErrCodeNotFound, false},
		{"plain error", errors.New("x"), ErrCodeInternal, false},
		{"nil error", nil, ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsCode(tt.err, tt.code); got != tt.want {
				t.Errorf("IsCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCodeOfAndField(t *testing.T) {
	err := fmt.Errorf("parse: %w", Validation("parameters", "must be an object"))

	if got := CodeOf(err); got != ErrCodeInvalidRequest {
		t.Errorf("CodeOf() = %s, want %s", got, ErrCodeInvalidRequest)
	}
	if got := Field(err); got != "parameters" {
		t.Errorf("Field() = %q, want parameters", got)
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Errorf("CodeOf(plain) = %q, want empty", got)
	}
	if got := Field(New(ErrCodeInternal, "x")); got != "" {
		t.Errorf("Field() without context = %q, want empty", got)
	}
}
