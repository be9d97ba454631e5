// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package config

import (
	"fmt"
	"net/url"
)

// validateServiceURL is a syntax check on a service base address. The
// full address policy (private ranges, DNS, ports) runs in netguard when
// the gateway client is built, so a URL passing here can still be refused.
func validateServiceURL(rawURL string) error {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("url failed to parse: %w", err)
	}

	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got: %q", parsedURL.Scheme)
	}

	if parsedURL.Host == "" {
		return fmt.Errorf("url host is required")
	}

	if parsedURL.User != nil {
		return fmt.Errorf("url must not embed credentials; use api_key, username/password or token")
	}

	if parsedURL.RawQuery != "" || parsedURL.Fragment != "" {
		return fmt.Errorf("url should not contain query parameters or a fragment")
	}

	return nil
}
