// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/instances", "200"))
	RecordAPIRequest("GET", "/api/v1/instances", "200", 15*time.Millisecond)
	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/v1/instances", "200"))

	if after-before != 1 {
		t.Errorf("api_requests_total delta = %v, want 1", after-before)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("after inc = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before {
		t.Errorf("after dec = %v, want %v", got, before)
	}
}

func TestRecordGuardResult(t *testing.T) {
	tests := []struct {
		name   string
		ok     bool
		reason string
	}{
		{"accepted", true, ""},
		{"rejected loopback", false, "loopback"},
		{"rejected scheme", false, "scheme"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := "accepted"
			if !tt.ok {
				result = "rejected"
			}
			before := testutil.ToFloat64(GuardValidations.WithLabelValues(result))
			RecordGuardResult(tt.ok, tt.reason)
			if got := testutil.ToFloat64(GuardValidations.WithLabelValues(result)); got != before+1 {
				t.Errorf("guard_validations_total{%s} = %v, want %v", result, got, before+1)
			}
			if !tt.ok {
				if got := testutil.ToFloat64(GuardRejections.WithLabelValues(tt.reason)); got < 1 {
					t.Errorf("guard_rejections_total{%s} = %v, want >= 1", tt.reason, got)
				}
			}
		})
	}
}

func TestRecordRelayTransition(t *testing.T) {
	connecting := RelayConnections.WithLabelValues("connecting")
	ready := RelayConnections.WithLabelValues("ready")
	startConnecting := testutil.ToFloat64(connecting)
	startReady := testutil.ToFloat64(ready)

	RecordRelayTransition("", "connecting")
	if got := testutil.ToFloat64(connecting); got != startConnecting+1 {
		t.Errorf("connecting gauge = %v, want %v", got, startConnecting+1)
	}

	RecordRelayTransition("connecting", "ready")
	if got := testutil.ToFloat64(connecting); got != startConnecting {
		t.Errorf("connecting gauge = %v, want %v", got, startConnecting)
	}
	if got := testutil.ToFloat64(ready); got != startReady+1 {
		t.Errorf("ready gauge = %v, want %v", got, startReady+1)
	}

	RecordRelayTransition("ready", "")
	if got := testutil.ToFloat64(ready); got != startReady {
		t.Errorf("ready gauge = %v, want %v", got, startReady)
	}
}

func TestRecordGatewayRequest(t *testing.T) {
	c := GatewayRequestsTotal.WithLabelValues("sonarr", "GET", "success")
	before := testutil.ToFloat64(c)
	RecordGatewayRequest("sonarr", "GET", "success", 120*time.Millisecond)
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("gateway_requests_total = %v, want %v", got, before+1)
	}
}

// TestMetricGathering tests that metrics can be gathered using testutil
func TestMetricGathering(t *testing.T) {
	RecordRelayEvent("stats")
	problems, err := testutil.GatherAndLint(prometheus.DefaultGatherer)
	if err != nil {
		t.Fatalf("GatherAndLint() error = %v", err)
	}
	for _, p := range problems {
		t.Logf("lint: %s: %s", p.Metric, p.Text)
	}
}
