// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package auth verifies API callers.

Homeport does not run a login flow. In "jwt" mode it accepts HS256 tokens
signed with security.jwt_secret by an external identity provider, or
minted locally with `homeport token`. Issuer and audience are enforced
when configured. Tokens must carry an expiry.

Tokens are read from the Authorization header:

	Authorization: Bearer <token>

Browsers cannot set headers on a WebSocket upgrade, so the socket route
also accepts ?token=<token>. The query parameter is ignored on every
other request.

In "none" mode every request passes through. Use it only behind a proxy
that authenticates on Homeport's behalf.

Usage:

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
	    return err
	}
	mw, err := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)
	if err != nil {
	    return err
	}
	r.Use(mw.Authenticate)
*/
package auth
