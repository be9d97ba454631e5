// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package api

import (
	"net/http"

	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/models"
)

// ValidateURL reports whether an address passes the outbound address
// policy, and its canonical form when it does. A refused address is a
// successful call with valid=false.
func (h *Handler) ValidateURL(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.ValidateURLRequest
	if !decodeAndValidate(rw, r, &req) {
		return
	}

	res := h.guard.Validate(r.Context(), req.URL)
	rw.Success(models.ValidateURLResponse{
		URL:       logging.RedactURL(req.URL),
		Valid:     res.OK,
		Canonical: res.Canonical,
		Reason:    res.Reason,
		Code:      res.Code,
	})
}
