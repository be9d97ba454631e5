// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package gateway implements the credentialed request client used for one-shot
REST calls against configured backend instances.

A Client is built from one ServiceInstance whose address has passed the
netguard validator. Credentials are injected by an Authenticator chosen from
the instance type and credential shape:

  - HeaderKeyAuth: API key in X-Api-Key, X-Emby-Token, X-Plex-Token or x-api-key
  - BasicAuth: username and password
  - BearerAuth: bearer or session token
  - NoAuth: nothing

Paths are always relative to the base address. Absolute, protocol-relative and
scheme-qualified paths fail with a validation error before any I/O. Failures
are reported with the gwerrors taxonomy (upstream, timeout, transport,
unavailable). This layer never retries.

Each client carries an optional per-instance circuit breaker (sony/gobreaker)
and token-bucket rate limiter (x/time/rate). Pool caches clients per instance
so this state survives between calls.

Logging records method and path only; credentials, query strings and bodies
are never logged.
*/
package gateway
