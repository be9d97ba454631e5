// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and are
exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:3857/metrics

# Available Metrics

API:
  - api_requests_total{method, endpoint, status_code}
  - api_request_duration_seconds{method, endpoint}
  - api_active_requests

URL guard:
  - guard_validations_total{result}
  - guard_rejections_total{reason}
  - guard_dial_blocked_total

Gateway:
  - gateway_requests_total{service_type, method, outcome}
  - gateway_request_duration_seconds{service_type, method}

Relay:
  - relay_connections{state}
  - relay_state_transitions_total{from_state, to_state}
  - relay_events_total{type}
  - relay_messages_received_total{message_type}

WebSocket fan-out:
  - websocket_connections
  - websocket_messages_sent_total / websocket_messages_received_total
  - websocket_errors_total{error_type}
  - websocket_instance_subscriptions

Circuit breakers (one per backend instance):
  - circuit_breaker_state{name} (0=closed, 1=half-open, 2=open)
  - circuit_breaker_requests_total{name, result}
  - circuit_breaker_consecutive_failures{name}
  - circuit_breaker_state_transitions_total{name, from_state, to_state}

# Example PromQL

	# Rejected target addresses by reason
	sum by (reason) (rate(guard_rejections_total[5m]))

	# Relays currently streaming
	relay_connections{state="ready"}
*/
package metrics
