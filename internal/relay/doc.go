// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package relay manages live telemetry subscriptions to backend instances over
the graphql-ws protocol.

A Manager owns at most one connection per instance. Each connection walks a
fixed state machine:

	Idle -> Connecting -> Initializing -> Ready -> Closed | Errored

	Subscribe     dial <base><endpoint>            -> Connecting
	              send connection_init             -> Initializing
	connection_ack                                 -> Ready, send start{id}
	data{id}      emit stats event (payload untouched)
	error / connection_error                       -> Errored, emit error
	complete{id}  last id gone                     -> Closed, emit closed
	read error    normal close -> Closed, otherwise -> Errored
	Unsubscribe   stop{id} per active id, close    -> Closed, emit closed

Subscribing an instance that already has a connection tears the old one down
first, so there is never more than one socket per instance. No event is
emitted for a connection before it is Ready. There is no automatic reconnect:
callers decide when to subscribe again.

Every state change is published to an EventSink as a models.RelayEvent
(stats, error or closed). Publish blocks, so events are never dropped, and the
single reader goroutine per connection keeps them in socket order.

The subscription document is one fixed contract taken from Config.Query and
checked at construction. A backend whose schema rejects it produces an error
event with code subscription_rejected rather than a retry with another shape.
*/
package relay
