// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// URL Guard Metrics
	GuardValidations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_validations_total",
			Help: "Total number of target address validations",
		},
		[]string{"result"}, // "accepted", "rejected"
	)

	GuardRejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "guard_rejections_total",
			Help: "Total number of rejected target addresses by reason",
		},
		[]string{"reason"},
	)

	GuardDialBlocked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "guard_dial_blocked_total",
			Help: "Total number of outbound connections refused at dial time",
		},
	)

	// Gateway Metrics
	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gateway_requests_total",
			Help: "Total number of outbound requests to backend instances",
		},
		[]string{"service_type", "method", "outcome"},
	)

	GatewayRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "gateway_request_duration_seconds",
			Help:    "Outbound request duration in seconds",
			Buckets: []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"service_type", "method"},
	)

	// Relay Metrics
	RelayConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "relay_connections",
			Help: "Current number of relay connections by state",
		},
		[]string{"state"},
	)

	RelayTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_state_transitions_total",
			Help: "Total number of relay connection state transitions",
		},
		[]string{"from_state", "to_state"},
	)

	RelayEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_events_total",
			Help: "Total number of relay events emitted",
		},
		[]string{"type"}, // "stats", "error", "closed"
	)

	RelayMessagesReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relay_messages_received_total",
			Help: "Total number of protocol messages received from backends",
		},
		[]string{"message_type"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)

	WSMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_received_total",
			Help: "Total number of WebSocket messages received",
		},
	)

	WSErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_errors_total",
			Help: "Total number of WebSocket errors",
		},
		[]string{"error_type"},
	)

	WSSubscriptions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_instance_subscriptions",
			Help: "Current number of browser subscriptions to instance streams",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordGuardResult records the outcome of one address validation.
// reason is ignored for accepted addresses.
func RecordGuardResult(ok bool, reason string) {
	if ok {
		GuardValidations.WithLabelValues("accepted").Inc()
		return
	}
	GuardValidations.WithLabelValues("rejected").Inc()
	GuardRejections.WithLabelValues(reason).Inc()
}

// RecordGatewayRequest records one outbound request.
// outcome is "success", "canceled" or the error kind.
func RecordGatewayRequest(serviceType, method, outcome string, duration time.Duration) {
	GatewayRequestsTotal.WithLabelValues(serviceType, method, outcome).Inc()
	GatewayRequestDuration.WithLabelValues(serviceType, method).Observe(duration.Seconds())
}

// RecordRelayTransition moves one connection between state gauges.
// An empty from means the connection is new; an empty to means it is gone.
func RecordRelayTransition(from, to string) {
	if from != "" {
		RelayConnections.WithLabelValues(from).Dec()
	}
	if to != "" {
		RelayConnections.WithLabelValues(to).Inc()
	}
	if from != "" && to != "" {
		RelayTransitions.WithLabelValues(from, to).Inc()
	}
}

// RecordRelayEvent records one emitted relay event.
func RecordRelayEvent(eventType string) {
	RelayEvents.WithLabelValues(eventType).Inc()
}
