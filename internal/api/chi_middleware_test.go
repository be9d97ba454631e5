// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package api

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/homeport/internal/config"
	"github.com/tomtom215/homeport/internal/logging"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestNewChiMiddlewareFromConfig(t *testing.T) {
	sec := &config.SecurityConfig{
		CORSOrigins:       []string{testOrigin},
		RateLimitReqs:     7,
		RateLimitWindow:   time.Second,
		RateLimitDisabled: true,
	}
	m := NewChiMiddlewareFromConfig(sec)

	if m.config.RateLimitRequests != 7 || m.config.RateLimitWindow != time.Second || !m.config.RateLimitDisabled {
		t.Errorf("rate limit settings not copied: %+v", m.config)
	}
	if len(m.config.CORSAllowedOrigins) != 1 || m.config.CORSAllowedOrigins[0] != testOrigin {
		t.Errorf("origins = %v", m.config.CORSAllowedOrigins)
	}
}

func TestChiMiddleware_RateLimitCustom(t *testing.T) {
	m := NewChiMiddleware(nil)
	handler := m.RateLimitCustom(RateLimitConfig{Requests: 2, Window: time.Minute})(okHandler())

	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/instances", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/instances", nil))
	expectError(t, rec, http.StatusTooManyRequests, ErrCodeTooManyRequests)
}

func TestChiMiddleware_RateLimitPerIP(t *testing.T) {
	m := NewChiMiddleware(nil)
	handler := m.RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(okHandler())

	for _, addr := range []string{"10.0.0.1:5000", "10.0.0.2:5000"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want separate buckets", addr, rec.Code)
		}
	}
}

func TestChiMiddleware_RateLimitDisabled(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	handler := NewChiMiddleware(cfg).RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(okHandler())

	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
}

func TestChiMiddleware_CORS(t *testing.T) {
	cfg := DefaultChiMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{testOrigin}
	handler := NewChiMiddleware(cfg).CORS()(okHandler())

	tests := []struct {
		name   string
		origin string
		want   string
	}{
		{"allowed origin", testOrigin, testOrigin},
		{"foreign origin", "http://evil.example", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodOptions, "/api/v1/instances", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.want {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	tests := []struct {
		name      string
		tls       bool
		forwarded string
		wantHSTS  bool
	}{
		{"plain http", false, "", false},
		{"direct tls", true, "", true},
		{"tls proxy", false, "https", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/instances", nil)
			if tt.tls {
				req.TLS = &tls.ConnectionState{}
			}
			if tt.forwarded != "" {
				req.Header.Set("X-Forwarded-Proto", tt.forwarded)
			}
			rec := httptest.NewRecorder()
			APISecurityHeaders()(okHandler()).ServeHTTP(rec, req)

			h := rec.Header()
			if h.Get("X-Content-Type-Options") != "nosniff" || h.Get("X-Frame-Options") != "DENY" || h.Get("Cache-Control") != "no-store" {
				t.Errorf("headers = %v", h)
			}
			if got := h.Get("Strict-Transport-Security") != ""; got != tt.wantHSTS {
				t.Errorf("HSTS present = %v, want %v", got, tt.wantHSTS)
			}
		})
	}
}

func TestInstanceScope(t *testing.T) {
	var got string
	r := chi.NewRouter()
	r.Route("/instances/{id}", func(r chi.Router) {
		r.Use(InstanceScope)
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			got = logging.InstanceIDFromContext(r.Context())
		})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/instances/tower/", nil))
	if got != "tower" {
		t.Errorf("instance id in context = %q, want tower", got)
	}
}
