// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package models defines the data structures shared across Homeport.

Key Components:

  - ServiceInstance: one configured backend (type, base address, credential)
  - Credential: api_key, basic or bearer secret material; never serialized
  - InstanceStatus: the public, credential-free view returned by the API
  - OutboundRequest: a REST call relative to an instance's base address
  - TelemetryEvent / RelayEvent: payloads relayed from subscription streams
  - APIResponse / APIError / APIMeta: the standard response envelope

RelayEvent is a tagged union: "stats" carries a telemetry payload,
"error" an ErrorPayload and "closed" a ClosedPayload. Browsers receive
RelayEvents unchanged over the fan-out socket:

	{"type":"stats","instanceId":"tower","payload":{...},"timestamp":"..."}

Secret fields of Credential carry `json:"-"` so instances can be logged or
returned without leaking them.
*/
package models
