// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package logging provides the process-wide zerolog logger for Homeport.

Every package logs through this package rather than holding its own logger:

	logging.Info().Str("instance", id).Msg("relay ready")
	logging.Ctx(ctx).Warn().Err(err).Msg("upstream call failed")

Output is JSON by default and console-formatted when LOG_FORMAT=console.
Every entry carries a timestamp and service=homeport. The request id set by
the HTTP middleware and the instance id set by instance-scoped handlers are
attached automatically by Ctx.

Secrets never reach the log stream: backend addresses are passed through
RedactURL and tokens through MaskSecret before they are attached to an event.
The gateway logs only method and path of outbound calls.

NewSlogLogger adapts the zerolog logger to log/slog for libraries that
require it (the suture supervisor event hook).
*/
package logging
