// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package models

import (
	"time"
)

// APIResponse is the envelope every HTTP endpoint answers with.
//
// Example error response:
//
//	{
//	  "success": false,
//	  "error": {"code": "VALIDATION_ERROR", "message": "invalid address: loopback addresses are not allowed"},
//	  "meta": {"timestamp": "2026-05-01T12:00:00Z", "request_id": "..."}
//	}
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an error response with structured error details.
//
// Common error codes:
//   - VALIDATION_ERROR: malformed input or a forbidden address
//   - UNAUTHORIZED: missing or invalid token
//   - NOT_FOUND: unknown instance
//   - UPSTREAM_ERROR: the backend answered non-2xx
//   - TIMEOUT: the backend did not answer in time
//   - SERVICE_UNAVAILABLE: transport failure, open breaker or disabled instance
//   - TOO_MANY_REQUESTS: rate limited
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Details   any    `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	RequestID  string    `json:"request_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
	DurationMs int64     `json:"duration_ms,omitempty"`
}

// ValidateURLRequest is the body of POST /api/v1/urls/validate.
type ValidateURLRequest struct {
	URL string `json:"url" validate:"required,max=2048"`
}

// ValidateURLResponse reports the verdict for one address.
type ValidateURLResponse struct {
	URL       string `json:"url"`
	Valid     bool   `json:"valid"`
	Canonical string `json:"canonical,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Code      string `json:"code,omitempty"`
}

// GatewayRequest is the body of POST /api/v1/instances/{id}/request.
type GatewayRequest struct {
	Method string `json:"method" validate:"required,gateway_method"`
	Path   string `json:"path" validate:"required,max=2048"`
	Body   any    `json:"body,omitempty"`
}

// GatewayResponse wraps the decoded upstream answer.
type GatewayResponse struct {
	InstanceID string `json:"instance_id"`
	Method     string `json:"method"`
	Path       string `json:"path"`
	Status     int    `json:"status"`
	Body       any    `json:"body"`
}
