// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package models

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestServiceType_Valid(t *testing.T) {
	for _, st := range ServiceTypes {
		if !st.Valid() {
			t.Errorf("%q should be valid", st)
		}
	}
	for _, st := range []ServiceType{"", "SONARR", "nextcloud"} {
		if st.Valid() {
			t.Errorf("%q should be invalid", st)
		}
	}
}

func TestCredential_EffectiveKind(t *testing.T) {
	tests := []struct {
		name string
		cred Credential
		want CredentialKind
	}{
		{"explicit wins", Credential{Kind: CredentialBasic, APIKey: "k"}, CredentialBasic},
		{"api key", Credential{APIKey: "k"}, CredentialAPIKey},
		{"token", Credential{Token: "t"}, CredentialBearer},
		{"username", Credential{Username: "u", Password: "p"}, CredentialBasic},
		{"api key before token", Credential{APIKey: "k", Token: "t"}, CredentialAPIKey},
		{"empty", Credential{}, CredentialNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cred.EffectiveKind(); got != tt.want {
				t.Errorf("EffectiveKind() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestServiceInstance_NeverSerializesSecrets(t *testing.T) {
	inst := ServiceInstance{
		ID:          "tower",
		Type:        ServiceUnraid,
		BaseAddress: "https://tower.lan",
		Enabled:     true,
		Credential: Credential{
			Kind:     CredentialAPIKey,
			APIKey:   "api-secret-value",
			Username: "root",
			Password: "password-secret-value",
			Token:    "token-secret-value",
		},
	}

	data, err := json.Marshal(inst)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, secret := range []string{"api-secret-value", "password-secret-value", "token-secret-value", "root"} {
		if strings.Contains(string(data), secret) {
			t.Errorf("serialized instance leaks %q: %s", secret, data)
		}
	}

	data, err = json.Marshal(inst.Credential)
	if err != nil {
		t.Fatalf("Marshal(Credential) error = %v", err)
	}
	if strings.Contains(string(data), "secret-value") {
		t.Errorf("serialized credential leaks secrets: %s", data)
	}
}

func TestNewStatsEvent(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := NewStatsEvent(TelemetryEvent{
		InstanceID: "tower",
		Payload:    json.RawMessage(`{"cpu":12}`),
		Timestamp:  ts,
	})

	if ev.Type != EventStats || ev.InstanceID != "tower" || !ev.Timestamp.Equal(ts) {
		t.Errorf("event = %+v", ev)
	}
	if string(ev.Payload) != `{"cpu":12}` {
		t.Errorf("payload = %s", ev.Payload)
	}
}

func TestNewErrorEvent(t *testing.T) {
	ev := NewErrorEvent("tower", ErrorCodeTransport, errors.New("connection refused"))
	if ev.Type != EventError || ev.InstanceID != "tower" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}

	var p ErrorPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if p.Code != ErrorCodeTransport || p.Message != "connection refused" {
		t.Errorf("payload = %+v", p)
	}

	ev = NewErrorEvent("tower", ErrorCodeProtocol, nil)
	if err := json.Unmarshal(ev.Payload, &p); err != nil || p.Message != "" {
		t.Errorf("nil error payload = %+v, %v", p, err)
	}
}

func TestNewClosedEvent(t *testing.T) {
	ev := NewClosedEvent("tower", "unsubscribed")

	var p ClosedPayload
	if err := json.Unmarshal(ev.Payload, &p); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if ev.Type != EventClosed || p.Reason != "unsubscribed" {
		t.Errorf("event = %+v, payload = %+v", ev, p)
	}

	wire, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(wire), `"instanceId":"tower"`) || !strings.Contains(string(wire), `"type":"closed"`) {
		t.Errorf("wire form = %s", wire)
	}
}
