// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package models

import (
	"time"

	"github.com/goccy/go-json"
)

// EventType tags a RelayEvent.
type EventType string

const (
	// EventStats carries one telemetry payload from a Ready connection.
	EventStats EventType = "stats"
	// EventError reports a relay failure; the connection has been torn down.
	EventError EventType = "error"
	// EventClosed reports that the relay for an instance is gone.
	EventClosed EventType = "closed"
)

// TelemetryEvent is a single opaque payload received from a backend's
// subscription stream.
type TelemetryEvent struct {
	InstanceID string          `json:"instanceId"`
	Payload    json.RawMessage `json:"payload"`
	Timestamp  time.Time       `json:"timestamp"`
}

// RelayEvent is the tagged union emitted by the relay for every state change.
type RelayEvent struct {
	Type       EventType       `json:"type"`
	InstanceID string          `json:"instanceId"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
}

// ErrorPayload is the payload of an EventError.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ClosedPayload is the payload of an EventClosed.
type ClosedPayload struct {
	Reason string `json:"reason"`
}

// Error codes carried by EventError.
const (
	ErrorCodeTransport            = "transport_error"
	ErrorCodeConnectionRejected   = "connection_rejected"
	ErrorCodeSubscriptionRejected = "subscription_rejected"
	ErrorCodeProtocol             = "protocol_error"
	ErrorCodeTimeout              = "ack_timeout"
)

// NewStatsEvent wraps a telemetry payload.
func NewStatsEvent(te TelemetryEvent) RelayEvent {
	return RelayEvent{
		Type:       EventStats,
		InstanceID: te.InstanceID,
		Payload:    te.Payload,
		Timestamp:  te.Timestamp,
	}
}

// NewErrorEvent builds an EventError for instanceID.
func NewErrorEvent(instanceID, code string, err error) RelayEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	payload, _ := json.Marshal(ErrorPayload{Code: code, Message: msg})
	return RelayEvent{
		Type:       EventError,
		InstanceID: instanceID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}

// NewClosedEvent builds an EventClosed for instanceID.
func NewClosedEvent(instanceID, reason string) RelayEvent {
	payload, _ := json.Marshal(ClosedPayload{Reason: reason})
	return RelayEvent{
		Type:       EventClosed,
		InstanceID: instanceID,
		Payload:    payload,
		Timestamp:  time.Now().UTC(),
	}
}
