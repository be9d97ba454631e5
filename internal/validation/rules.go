// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package validation

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tomtom215/homeport/internal/models"
)

// instanceIDPattern matches registry ids: lowercase slug, 1-64 chars.
var instanceIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// gatewayMethods are the verbs the request client accepts.
var gatewayMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// ruleMessages completes "<field> ..." for the custom tags.
var ruleMessages = map[string]string{
	"instance_id":    "must be a lowercase id of letters, digits, '-' or '_' (max 64)",
	"service_type":   "must be a known service type",
	"gateway_method": "must be one of GET, POST, PUT, DELETE",
}

func registerRules(v *validator.Validate) {
	rules := map[string]validator.Func{
		"instance_id": func(fl validator.FieldLevel) bool {
			return instanceIDPattern.MatchString(fl.Field().String())
		},
		"service_type": func(fl validator.FieldLevel) bool {
			return models.ServiceType(fl.Field().String()).Valid()
		},
		"gateway_method": func(fl validator.FieldLevel) bool {
			return gatewayMethods[strings.ToUpper(fl.Field().String())]
		},
	}
	for tag, fn := range rules {
		// Registration only fails on an empty tag or nil func.
		_ = v.RegisterValidation(tag, fn)
	}
}
