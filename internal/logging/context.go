// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package logging

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey int

const (
	requestIDKey contextKey = iota
	instanceIDKey
)

// GenerateRequestID returns a new random request id.
func GenerateRequestID() string {
	return uuid.NewString()
}

// ContextWithRequestID returns a copy of ctx carrying the HTTP request id.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext returns the request id stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// ContextWithInstanceID marks ctx as work on behalf of one service instance.
func ContextWithInstanceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, instanceIDKey, id)
}

// InstanceIDFromContext returns the instance id stored in ctx, or "".
func InstanceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(instanceIDKey).(string)
	return id
}

// Ctx returns the global logger enriched with the request and instance ids
// found in ctx.
//
//	logging.Ctx(ctx).Warn().Err(err).Msg("Gateway request")
func Ctx(ctx context.Context) *zerolog.Logger {
	l := Logger()
	logCtx := l.With()
	if id := RequestIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("request_id", id)
	}
	if id := InstanceIDFromContext(ctx); id != "" {
		logCtx = logCtx.Str("instance", id)
	}
	l = logCtx.Logger()
	return &l
}
