// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package auth

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tomtom215/homeport/internal/config"
	"github.com/tomtom215/homeport/internal/logging"
)

const testSecret = "test-secret-key-that-is-at-least-32-characters-long"

func init() {
	logging.Init(logging.Config{Level: "error", Output: io.Discard})
}

// testJWTConfig returns a standard test security config for JWT
func testJWTConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		AuthMode:    ModeJWT,
		JWTSecret:   testSecret,
		JWTIssuer:   "https://id.example.test",
		JWTAudience: "homeport",
	}
}

func newTestManager(t *testing.T) *JWTManager {
	t.Helper()
	m, err := NewJWTManager(testJWTConfig())
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	return m
}

// signClaims signs arbitrary claims the way an external provider would.
func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims jwt.Claims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func validClaims() *Claims {
	now := time.Now()
	return &Claims{
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "https://id.example.test",
			Audience:  jwt.ClaimStrings{"homeport"},
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
}

func TestNewJWTManager(t *testing.T) {
	if _, err := NewJWTManager(&config.SecurityConfig{}); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("empty secret: error = %v, want ErrEmptySecret", err)
	}
	if m := newTestManager(t); m == nil {
		t.Error("NewJWTManager() returned nil manager")
	}
}

func TestGenerateAndValidateToken(t *testing.T) {
	m := newTestManager(t)

	token, err := m.GenerateToken("ops", "admin", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	claims, err := m.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.Name() != "ops" || claims.Role != "admin" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.ID == "" {
		t.Error("expected a token id")
	}
	if claims.Issuer != "https://id.example.test" {
		t.Errorf("Issuer = %q", claims.Issuer)
	}
}

func TestGenerateToken_Invalid(t *testing.T) {
	m := newTestManager(t)
	if _, err := m.GenerateToken("", "", time.Hour); err == nil {
		t.Error("expected error for empty subject")
	}
	if _, err := m.GenerateToken("ops", "", 0); err == nil {
		t.Error("expected error for zero lifetime")
	}
}

func TestValidateToken_ExternalTokens(t *testing.T) {
	m := newTestManager(t)
	secret := []byte(testSecret)

	tests := []struct {
		name    string
		token   func() string
		wantErr string
	}{
		{
			name:  "valid external token",
			token: func() string { return signClaims(t, jwt.SigningMethodHS256, secret, validClaims()) },
		},
		{
			name: "subject only",
			token: func() string {
				c := validClaims()
				c.Username = ""
				c.Subject = "user-42"
				return signClaims(t, jwt.SigningMethodHS256, secret, c)
			},
		},
		{
			name: "expired",
			token: func() string {
				c := validClaims()
				c.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Hour))
				return signClaims(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: "expired",
		},
		{
			name: "no expiry",
			token: func() string {
				c := validClaims()
				c.ExpiresAt = nil
				return signClaims(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: "exp",
		},
		{
			name: "wrong issuer",
			token: func() string {
				c := validClaims()
				c.Issuer = "https://evil.example.test"
				return signClaims(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: "iss",
		},
		{
			name: "wrong audience",
			token: func() string {
				c := validClaims()
				c.Audience = jwt.ClaimStrings{"grafana"}
				return signClaims(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: "aud",
		},
		{
			name: "wrong secret",
			token: func() string {
				return signClaims(t, jwt.SigningMethodHS256, []byte("another-secret-that-is-long-enough-000"), validClaims())
			},
			wantErr: "signature",
		},
		{
			name:    "HS512 refused",
			token:   func() string { return signClaims(t, jwt.SigningMethodHS512, secret, validClaims()) },
			wantErr: "signing method",
		},
		{
			name: "alg none refused",
			token: func() string {
				return signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, validClaims())
			},
			wantErr: "signing method",
		},
		{
			name: "no subject",
			token: func() string {
				c := validClaims()
				c.Username = ""
				return signClaims(t, jwt.SigningMethodHS256, secret, c)
			},
			wantErr: "subject",
		},
		{
			name:    "garbage",
			token:   func() string { return "not.a.jwt" },
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("ValidateToken() error = %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateToken() expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateToken() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateToken_NoIssuerOrAudienceConfigured(t *testing.T) {
	m, err := NewJWTManager(&config.SecurityConfig{JWTSecret: testSecret})
	if err != nil {
		t.Fatal(err)
	}
	c := validClaims()
	c.Issuer = "anyone"
	c.Audience = nil
	if _, err := m.ValidateToken(signClaims(t, jwt.SigningMethodHS256, []byte(testSecret), c)); err != nil {
		t.Errorf("ValidateToken() error = %v", err)
	}
}
