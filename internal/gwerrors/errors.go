// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

// Package gwerrors defines the error taxonomy shared by the URL guard, the
// request gateway and the telemetry relay.
//
// Every concrete error type matches exactly one sentinel through errors.Is,
// so callers can branch on the kind without type assertions:
//
//	if errors.Is(err, gwerrors.ErrValidation) {
//	    // never retry, report to the operator
//	}
package gwerrors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel kinds.
var (
	ErrValidation  = errors.New("validation error")
	ErrUpstream    = errors.New("upstream error")
	ErrTimeout     = errors.New("timeout")
	ErrTransport   = errors.New("transport error")
	ErrUnavailable = errors.New("service unavailable")
)

// Kind is a stable, machine-readable error classification.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindUpstream    Kind = "upstream"
	KindTimeout     Kind = "timeout"
	KindTransport   Kind = "transport"
	KindUnavailable Kind = "unavailable"
	KindUnknown     Kind = "unknown"
)

// ValidationError reports a forbidden or malformed address or path.
// It is raised before any network I/O and is never retried.
type ValidationError struct {
	Field  string
	Value  string
	Reason string

	// Code is an optional machine-readable reason, e.g. "loopback".
	Code string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidation builds a ValidationError.
func NewValidation(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

// UpstreamError reports a non-2xx answer from a backend. Message carries a
// bounded excerpt of the response body.
type UpstreamError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("upstream %s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("upstream %s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Is matches ErrUpstream.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// TimeoutError reports that no response arrived inside the deadline.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out after %s", e.Op, e.Timeout)
}

// Is matches ErrTimeout.
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// Unwrap returns the underlying cause.
func (e *TimeoutError) Unwrap() error { return e.Err }

// TransportError reports a connection-level failure: dial refused, socket
// reset, abnormal close.
type TransportError struct {
	InstanceID string
	Op         string
	Err        error
}

func (e *TransportError) Error() string {
	if e.InstanceID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("instance %s: %s: %v", e.InstanceID, e.Op, e.Err)
}

// Is matches ErrTransport.
func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// Unwrap returns the underlying cause.
func (e *TransportError) Unwrap() error { return e.Err }

// UnavailableError reports that a call was refused locally, e.g. because the
// instance's circuit breaker is open or the instance is disabled.
type UnavailableError struct {
	InstanceID string
	Reason     string
	Err        error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("instance %s unavailable: %s", e.InstanceID, e.Reason)
}

// Is matches ErrUnavailable.
func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

// Unwrap returns the underlying cause.
func (e *UnavailableError) Unwrap() error { return e.Err }

// KindOf classifies err.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrUpstream):
		return KindUpstream
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrTransport):
		return KindTransport
	case errors.Is(err, ErrUnavailable):
		return KindUnavailable
	default:
		return KindUnknown
	}
}

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindUpstream:
		return http.StatusBadGateway
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindTransport, KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
