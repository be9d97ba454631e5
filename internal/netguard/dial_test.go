// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package netguard

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/homeport/internal/gwerrors"
)

func TestDialControl(t *testing.T) {
	v := New(DefaultPolicy())

	tests := []struct {
		address string
		wantErr bool
	}{
		{"10.0.0.5:8080", false},
		{"8.8.8.8:443", false},
		{"[fd00::1]:80", false},
		{"127.0.0.1:8080", true},
		{"[::1]:80", true},
		{"169.254.169.254:80", true},
		{"0.0.0.0:80", true},
		{"not-an-address", true},
	}

	for _, tt := range tests {
		t.Run(tt.address, func(t *testing.T) {
			err := v.DialControl("tcp", tt.address, nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("DialControl(%q) error = %v, wantErr %v", tt.address, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, gwerrors.ErrValidation) {
				t.Errorf("error %v is not a validation error", err)
			}
		})
	}
}

func TestDialer_BlocksLoopbackPeer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	addr := srv.Listener.Addr().String()

	blocked := New(DefaultPolicy()).Dialer(time.Second)
	if conn, err := blocked.Dial("tcp", addr); err == nil {
		conn.Close()
		t.Fatal("dial to loopback succeeded under default policy")
	}

	policy := DefaultPolicy()
	policy.AllowLoopback = true
	allowed := New(policy).Dialer(time.Second)
	conn, err := allowed.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("dial with loopback allowed: %v", err)
	}
	conn.Close()
}
