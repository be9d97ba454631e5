// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package config

import (
	"fmt"

	"github.com/tomtom215/homeport/internal/models"
)

// ServiceInstances converts the services section into registry instances,
// decrypting any "enc:" credential fields. An encrypted value without a
// configured credential key is an error.
func (c *Config) ServiceInstances() ([]models.ServiceInstance, error) {
	var enc *CredentialEncryptor
	if c.hasEncryptedCredentials() {
		var err error
		enc, err = NewCredentialEncryptor(c.Security.EffectiveCredentialKey())
		if err != nil {
			return nil, fmt.Errorf("encrypted service credentials need security.credential_key: %w", err)
		}
	}

	instances := make([]models.ServiceInstance, 0, len(c.Services))
	for i := range c.Services {
		inst, err := c.Services[i].toInstance(enc)
		if err != nil {
			return nil, fmt.Errorf("services[%d] (%s): %w", i, c.Services[i].ID, err)
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

func (c *Config) hasEncryptedCredentials() bool {
	for i := range c.Services {
		for _, v := range c.Services[i].secrets() {
			if IsEncrypted(*v) {
				return true
			}
		}
	}
	return false
}

// secrets returns pointers to the fields that may be encrypted.
func (s *ServiceConfig) secrets() []*string {
	return []*string{&s.APIKey, &s.Password, &s.Token}
}

func (s ServiceConfig) toInstance(enc *CredentialEncryptor) (models.ServiceInstance, error) {
	if enc != nil {
		for _, v := range s.secrets() {
			plain, err := enc.DecryptValue(*v)
			if err != nil {
				return models.ServiceInstance{}, fmt.Errorf("decrypt credential: %w", err)
			}
			*v = plain
		}
	}

	name := s.Name
	if name == "" {
		name = s.ID
	}

	return models.ServiceInstance{
		ID:          s.ID,
		Type:        models.ServiceType(s.Type),
		Name:        name,
		BaseAddress: s.URL,
		Enabled:     s.Enabled,
		Relay:       s.Relay,
		Credential: models.Credential{
			Kind:     models.CredentialKind(s.Auth),
			APIKey:   s.APIKey,
			Header:   s.APIKeyHeader,
			Username: s.Username,
			Password: s.Password,
			Token:    s.Token,
		},
	}, nil
}
