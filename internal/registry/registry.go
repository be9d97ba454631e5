// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

// Package registry is the read-only source of configured service instances.
package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/validation"
)

// ErrNotFound is returned for an unknown instance id.
var ErrNotFound = errors.New("service instance not found")

// Registry looks up service instances. Disabled instances are returned;
// callers decide whether to refuse them.
type Registry interface {
	Get(ctx context.Context, id string) (models.ServiceInstance, error)
	List(ctx context.Context) ([]models.ServiceInstance, error)
}

// Static is an immutable Registry built once from configuration.
type Static struct {
	byID  map[string]models.ServiceInstance
	order []string
}

type instanceKey struct {
	ID   string `validate:"required,instance_id"`
	Type string `validate:"required,service_type"`
}

// NewStatic builds a registry preserving the given order. Ids must be
// unique and valid, types known.
func NewStatic(instances []models.ServiceInstance) (*Static, error) {
	s := &Static{
		byID:  make(map[string]models.ServiceInstance, len(instances)),
		order: make([]string, 0, len(instances)),
	}
	for i, inst := range instances {
		if verr := validation.ValidateStruct(&instanceKey{ID: inst.ID, Type: string(inst.Type)}); verr != nil {
			return nil, fmt.Errorf("instance %d: %w", i, verr)
		}
		if _, dup := s.byID[inst.ID]; dup {
			return nil, fmt.Errorf("instance %d: duplicate id %q", i, inst.ID)
		}
		s.byID[inst.ID] = inst
		s.order = append(s.order, inst.ID)
	}
	return s, nil
}

// Get returns the instance with the given id or ErrNotFound.
func (s *Static) Get(_ context.Context, id string) (models.ServiceInstance, error) {
	inst, ok := s.byID[id]
	if !ok {
		return models.ServiceInstance{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return inst, nil
}

// List returns all instances in configuration order.
func (s *Static) List(_ context.Context) ([]models.ServiceInstance, error) {
	out := make([]models.ServiceInstance, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}

// Exists reports whether id is registered. It matches the websocket hub's
// instance check signature.
func (s *Static) Exists(ctx context.Context, id string) error {
	_, err := s.Get(ctx, id)
	return err
}
