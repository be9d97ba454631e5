// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/models"
)

// Authentication modes accepted in security.auth_mode.
const (
	ModeJWT  = "jwt"
	ModeNone = "none"
)

type contextKey string

// ClaimsContextKey holds the verified *Claims in a request context.
const ClaimsContextKey contextKey = "claims"

// tokenQueryParam carries the token on socket upgrades, where browsers
// cannot set an Authorization header.
const tokenQueryParam = "token"

var (
	errMissingToken = errors.New("missing token")
	errMalformed    = errors.New("invalid authorization header")
)

// Middleware enforces authentication on API routes.
type Middleware struct {
	jwtManager *JWTManager
	authMode   string
}

// NewMiddleware creates the authentication middleware. jwtManager may be
// nil only when authMode is "none".
func NewMiddleware(jwtManager *JWTManager, authMode string) (*Middleware, error) {
	switch authMode {
	case ModeNone:
	case ModeJWT:
		if jwtManager == nil {
			return nil, errors.New("jwt auth mode requires a JWT manager")
		}
	default:
		return nil, errors.New("unsupported auth mode: " + authMode)
	}
	return &Middleware{jwtManager: jwtManager, authMode: authMode}, nil
}

// Mode returns the configured authentication mode.
func (m *Middleware) Mode() string { return m.authMode }

// Authenticate rejects requests without a valid token and stores the
// claims in the request context.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.authMode == ModeNone {
			next.ServeHTTP(w, r)
			return
		}

		token, source, err := extractToken(r)
		if err != nil {
			AuthAttempts.WithLabelValues(source, outcomeMissing).Inc()
			writeUnauthorized(w, "Unauthorized: "+err.Error())
			return
		}

		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			AuthAttempts.WithLabelValues(source, outcomeInvalid).Inc()
			logging.Debug().Err(err).Str("path", r.URL.Path).Msg("Token validation failed")
			writeUnauthorized(w, "Unauthorized: invalid token")
			return
		}

		AuthAttempts.WithLabelValues(source, outcomeSuccess).Inc()
		ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFromContext returns the verified claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*Claims)
	return claims, ok && claims != nil
}

// extractToken reads a Bearer token from the Authorization header, or the
// token query parameter on socket upgrades.
func extractToken(r *http.Request) (token, source string, err error) {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(value) == "" {
			return "", "header", errMalformed
		}
		return strings.TrimSpace(value), "header", nil
	}

	if websocket.IsWebSocketUpgrade(r) {
		if token = r.URL.Query().Get(tokenQueryParam); token != "" {
			return token, "query", nil
		}
		return "", "query", errMissingToken
	}
	return "", "header", errMissingToken
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="homeport"`)
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(models.APIResponse{
		Success: false,
		Error: &models.APIError{
			Code:    "UNAUTHORIZED",
			Message: message,
		},
		Meta: &models.APIMeta{Timestamp: time.Now()},
	})
}
