// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package middleware provides HTTP middleware components for the API server.

Key Components:

  - RequestID: X-Request-ID propagation into the logging context
  - PrometheusMetrics: request count, latency and in-flight gauge keyed by chi route pattern
  - AccessLog: one log line per request, warn level above a latency threshold

RequestID and PrometheusMetrics use the http.HandlerFunc shape; the API
router adapts them for chi's r.Use. Both wrappers keep http.Hijacker
available so WebSocket upgrades pass through.
*/
package middleware
