// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package websocket fans relay events out to browser clients.

The Hub implements the relay's EventSink: the relay calls Hub.Publish for
every stats, error, and closed event, and the hub routes each one only to
the clients subscribed to that event's instance. It uses gorilla/websocket
with the hub-client architecture.

Key Components:

  - Hub: owns the connected clients and the per-instance subscriber registry
  - Client: one browser connection with read and write goroutines
  - Message: the JSON frame used in both directions
  - Demand: hook told when an instance is wanted or no longer wanted

Browser Protocol:

Clients send:

	{"type":"subscribe","instanceId":"sonarr-main"}
	{"type":"unsubscribe","instanceId":"sonarr-main"}
	{"type":"ping"}

The server answers with subscribed, unsubscribed, rejected, or pong, and
forwards relay events as:

	{"type":"stats","instanceId":"sonarr-main","data":{...},"timestamp":"..."}
	{"type":"error","instanceId":"sonarr-main","data":{"code":"transport_error","message":"..."}}
	{"type":"closed","instanceId":"sonarr-main","data":{"reason":"unsubscribed"}}

Demand:

When a Demand hook is installed, every subscribe calls Wanted and the
departure of an instance's last subscriber calls Unwanted. The hook runs on
its own goroutine from an unbounded queue. The relay may be blocked inside
Publish while the hook is opening or closing a relay, so the hub loop never
waits on it.

Slow Clients:

Each client has a 256 message buffer. A client whose buffer is full when an
event arrives is disconnected; other subscribers are unaffected.

Shutdown:

RunWithContext closes every client when its context ends. After that,
Publish returns ErrHubStopped instead of blocking.

See Also:

  - internal/relay: produces RelayEvents
  - internal/api: WebSocket endpoint and the relay Demand hook
*/
package websocket
