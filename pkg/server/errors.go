// Copyright (c) 2025, The Copper Authors.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	cerrors "github.com/velarno/copper/pkg/errors"
	"github.com/velarno/copper/pkg/serializer"

	"github.com/google/uuid"
)

// Error codes produced by the HTTP layer itself. Domain failures carry the
// codes of pkg/errors.
const (
	ErrCodeRateLimitExceeded = string(cerrors.ErrCodeRateLimitExceeded)
	ErrCodeInternalError     = string(cerrors.ErrCodeInternal)
	ErrCodeInvalidRequest    = string(cerrors.ErrCodeInvalidRequest)
	ErrCodeNotReady          = "NOT_READY"
	ErrCodeNotAcceptable     = "NOT_ACCEPTABLE"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	RequestID string         `json:"requestId"`
	Timestamp time.Time      `json:"timestamp"`
	Retryable bool           `json:"retryable"`
}

// WriteError writes a structured error response.
func WriteError(w http.ResponseWriter, r *http.Request, statusCode int,
	code, message string, retryable bool, details map[string]any) {

	requestID, _ := r.Context().Value(contextKeyRequestID).(string)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	errResp := ErrorResponse{
		Code:      code,
		Message:   message,
		Details:   details,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		Retryable: retryable,
	}

	serializer.RespondJSON(w, statusCode, errResp)
}

// statusFor maps an error code to its HTTP status and retryability.
func statusFor(code cerrors.ErrorCode) (int, bool) {
	switch code {
	case cerrors.ErrCodeNotFound:
		return http.StatusNotFound, false
	case cerrors.ErrCodeInvalidRequest:
		return http.StatusBadRequest, false
	case cerrors.ErrCodeUnsatisfiableBudget:
		return http.StatusUnprocessableEntity, false
	case cerrors.ErrCodeUnauthorized:
		return http.StatusUnauthorized, false
	case cerrors.ErrCodeRateLimitExceeded:
		return http.StatusTooManyRequests, true
	case cerrors.ErrCodeUnavailable:
		return http.StatusServiceUnavailable, true
	case cerrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout, true
	default:
		return http.StatusInternalServerError, false
	}
}

// writeErr writes err using the code it carries. Errors without a code are
// reported as internal and their message is not exposed.
func writeErr(w http.ResponseWriter, r *http.Request, err error) {
	code := cerrors.CodeOf(err)
	if code == "" {
		code = cerrors.ErrCodeInternal
	}
	status, retryable := statusFor(code)

	message := err.Error()
	var details map[string]any
	var se *cerrors.StructuredError
	if errors.As(err, &se) {
		message = se.Message
		details = se.Context
	}
	if status == http.StatusInternalServerError {
		slog.Error("request failed",
			"requestID", r.Context().Value(contextKeyRequestID),
			"path", r.URL.Path,
			"error", err,
		)
		message = "internal server error"
		details = nil
	}

	WriteError(w, r, status, string(code), message, retryable, details)
}
