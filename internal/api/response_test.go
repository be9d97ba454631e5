// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/homeport/internal/gwerrors"
	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/registry"
)

func TestResponseWriter_Success(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/test", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "req-1"))

	NewResponseWriter(w, r).Success(map[string]string{"message": "hello"})

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var response models.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !response.Success || response.Error != nil {
		t.Errorf("response = %+v", response)
	}
	if response.Meta == nil || response.Meta.Timestamp.IsZero() || response.Meta.RequestID != "req-1" {
		t.Errorf("meta = %+v", response.Meta)
	}
}

func TestResponseWriter_Accepted(t *testing.T) {
	w := httptest.NewRecorder()
	NewResponseWriter(w, httptest.NewRequest(http.MethodPost, "/", nil)).Accepted(nil)
	if w.Code != http.StatusAccepted {
		t.Errorf("status = %d", w.Code)
	}
}

func TestResponseWriter_ErrorCarriesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r = r.WithContext(logging.ContextWithRequestID(r.Context(), "req-err"))

	NewResponseWriter(w, r).ErrorWithDetails(http.StatusBadRequest, ErrCodeBadRequest, "nope", map[string]string{"field": "url"})

	env := expectError(t, w, http.StatusBadRequest, ErrCodeBadRequest)
	if env.Error.RequestID != "req-err" || env.Error.Message != "nope" {
		t.Errorf("error = %+v", env.Error)
	}
}

func TestResponseWriter_GatewayError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		code    string
		message string
	}{
		{
			name:   "unknown instance",
			err:    fmt.Errorf("lookup: %w", registry.ErrNotFound),
			status: http.StatusNotFound,
			code:   ErrCodeNotFound,
		},
		{
			name:   "validation",
			err:    &gwerrors.ValidationError{Field: "url", Reason: "loopback address", Code: "loopback"},
			status: http.StatusBadRequest,
			code:   ErrCodeValidationFailed,
		},
		{
			name:   "upstream",
			err:    &gwerrors.UpstreamError{StatusCode: 401, Message: "Unauthorized", Method: "GET", Path: "/api"},
			status: http.StatusBadGateway,
			code:   ErrCodeUpstream,
		},
		{
			name:   "timeout",
			err:    &gwerrors.TimeoutError{Op: "request", Err: context.DeadlineExceeded},
			status: http.StatusGatewayTimeout,
			code:   ErrCodeTimeout,
		},
		{
			name:   "transport",
			err:    &gwerrors.TransportError{Op: "dial", Err: errors.New("refused")},
			status: http.StatusServiceUnavailable,
			code:   ErrCodeServiceUnavailable,
		},
		{
			name:    "unclassified",
			err:     errors.New("database password is hunter2"),
			status:  http.StatusInternalServerError,
			code:    ErrCodeInternalError,
			message: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			NewResponseWriter(w, httptest.NewRequest(http.MethodGet, "/", nil)).GatewayError(tt.err)

			env := expectError(t, w, tt.status, tt.code)
			if tt.message != "" && env.Error.Message != tt.message {
				t.Errorf("message = %q, want %q", env.Error.Message, tt.message)
			}
		})
	}
}

func TestResponseWriter_GatewayErrorDetails(t *testing.T) {
	w := httptest.NewRecorder()
	err := &gwerrors.ValidationError{Field: "url", Reason: "link-local address", Code: "link_local"}
	NewResponseWriter(w, httptest.NewRequest(http.MethodGet, "/", nil)).GatewayError(err)

	env := expectError(t, w, http.StatusBadRequest, ErrCodeValidationFailed)
	details, ok := env.Error.Details.(map[string]any)
	if !ok || details["field"] != "url" || details["reason"] != "link_local" {
		t.Errorf("details = %v", env.Error.Details)
	}
}
