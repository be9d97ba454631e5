// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package services provides suture.Service wrappers for Homeport components.

Each wrapper translates a component's lifecycle into suture's
Serve(ctx) error pattern and names itself through fmt.Stringer for the
supervisor event log.

# Available Services

HTTP Server (HTTPServerService):
  - Binds the listener before serving so address errors surface at once
  - Shuts down gracefully within a configurable timeout

Browser Hub (HubService):
  - Runs websocket.Hub until the tree stops
  - The hub closes every browser connection on the way out

Relays (RelayService):
  - Opens the relay for every enabled instance marked relay: true
  - Closes all relays on shutdown, bounded by a stop timeout

Wrappers depend on small interfaces rather than concrete types so tests
can substitute doubles.
*/
package services
