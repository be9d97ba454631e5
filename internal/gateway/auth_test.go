// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package gateway

import (
	"net/http"
	"testing"

	"github.com/tomtom215/homeport/internal/models"
)

func TestAuthenticatorFor(t *testing.T) {
	tests := []struct {
		name       string
		typ        models.ServiceType
		cred       models.Credential
		wantScheme string
		wantHeader string
		wantValue  string
		wantErr    bool
	}{
		{
			name:       "sonarr api key",
			typ:        models.ServiceSonarr,
			cred:       models.Credential{Kind: models.CredentialAPIKey, APIKey: "abc123"},
			wantScheme: "header:X-Api-Key",
			wantHeader: "X-Api-Key",
			wantValue:  "abc123",
		},
		{
			name:       "jellyfin api key",
			typ:        models.ServiceJellyfin,
			cred:       models.Credential{APIKey: "jf-key"},
			wantScheme: "header:X-Emby-Token",
			wantHeader: "X-Emby-Token",
			wantValue:  "jf-key",
		},
		{
			name:       "plex token",
			typ:        models.ServicePlex,
			cred:       models.Credential{Kind: models.CredentialAPIKey, APIKey: "plex"},
			wantScheme: "header:X-Plex-Token",
			wantHeader: "X-Plex-Token",
			wantValue:  "plex",
		},
		{
			name:       "unraid lower-case header",
			typ:        models.ServiceUnraid,
			cred:       models.Credential{Kind: models.CredentialAPIKey, APIKey: "ur"},
			wantScheme: "header:x-api-key",
			wantHeader: "X-Api-Key",
			wantValue:  "ur",
		},
		{
			name:       "header override",
			typ:        models.ServiceGeneric,
			cred:       models.Credential{Kind: models.CredentialAPIKey, APIKey: "k", Header: "X-Custom-Auth"},
			wantScheme: "header:X-Custom-Auth",
			wantHeader: "X-Custom-Auth",
			wantValue:  "k",
		},
		{
			name:       "bearer",
			typ:        models.ServicePortainer,
			cred:       models.Credential{Kind: models.CredentialBearer, Token: "jwt"},
			wantScheme: "bearer",
			wantHeader: "Authorization",
			wantValue:  "Bearer jwt",
		},
		{
			name:       "basic",
			typ:        models.ServiceQBittorrent,
			cred:       models.Credential{Kind: models.CredentialBasic, Username: "admin", Password: "adminadmin"},
			wantScheme: "basic",
			wantHeader: "Authorization",
			wantValue:  "Basic YWRtaW46YWRtaW5hZG1pbg==",
		},
		{
			name:       "none",
			typ:        models.ServiceGeneric,
			cred:       models.Credential{},
			wantScheme: "none",
		},
		{
			name:    "api key missing",
			typ:     models.ServiceSonarr,
			cred:    models.Credential{Kind: models.CredentialAPIKey},
			wantErr: true,
		},
		{
			name:    "bearer missing token",
			typ:     models.ServiceGeneric,
			cred:    models.Credential{Kind: models.CredentialBearer},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			typ:     models.ServiceGeneric,
			cred:    models.Credential{Kind: "oauth"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth, err := AuthenticatorFor(tt.typ, tt.cred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AuthenticatorFor() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if got := auth.Scheme(); got != tt.wantScheme {
				t.Errorf("Scheme() = %q, want %q", got, tt.wantScheme)
			}
			h := http.Header{}
			auth.Apply(h)
			if tt.wantHeader == "" {
				if len(h) != 0 {
					t.Errorf("NoAuth set headers: %v", h)
				}
				return
			}
			if got := h.Get(tt.wantHeader); got != tt.wantValue {
				t.Errorf("header %s = %q, want %q", tt.wantHeader, got, tt.wantValue)
			}
		})
	}
}
