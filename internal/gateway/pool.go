// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"

	"github.com/tomtom215/homeport/internal/gwerrors"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/netguard"
)

// Pool hands out one Client per instance so breakers, limiters and idle
// connections persist across calls. A client is rebuilt when the instance's
// address, type or credential changes.
type Pool struct {
	guard *netguard.Validator
	cfg   Config
	opts  []Option

	mu       sync.Mutex
	clients  map[string]pooledClient
	building map[string]*sync.Mutex
}

type pooledClient struct {
	fingerprint string
	client      *Client
}

// NewPool creates a pool. guard is mandatory.
func NewPool(guard *netguard.Validator, cfg Config, opts ...Option) (*Pool, error) {
	if guard == nil {
		return nil, errors.New("gateway: address validator is required")
	}
	return &Pool{
		guard:    guard,
		cfg:      cfg,
		opts:     opts,
		clients:  make(map[string]pooledClient),
		building: make(map[string]*sync.Mutex),
	}, nil
}

// Client returns the cached client for inst, building it on first use.
// Building may resolve the address, so it runs outside the pool lock and
// only callers for the same instance wait on each other.
func (p *Pool) Client(ctx context.Context, inst models.ServiceInstance) (*Client, error) {
	if !inst.Enabled {
		return nil, &gwerrors.UnavailableError{InstanceID: inst.ID, Reason: "instance is disabled"}
	}
	fp := fingerprint(inst)
	if c := p.cached(inst.ID, fp); c != nil {
		return c, nil
	}

	build := p.buildLock(inst.ID)
	build.Lock()
	defer build.Unlock()
	if c := p.cached(inst.ID, fp); c != nil {
		return c, nil
	}

	c, err := NewClient(ctx, p.guard, inst, p.cfg, p.opts...)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	if old, ok := p.clients[inst.ID]; ok {
		old.client.CloseIdleConnections()
	}
	p.clients[inst.ID] = pooledClient{fingerprint: fp, client: c}
	p.mu.Unlock()
	return c, nil
}

func (p *Pool) cached(id, fp string) *Client {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pc, ok := p.clients[id]; ok && pc.fingerprint == fp {
		return pc.client
	}
	return nil
}

func (p *Pool) buildLock(id string) *sync.Mutex {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.building[id]
	if !ok {
		l = &sync.Mutex{}
		p.building[id] = l
	}
	return l
}

// Request issues one call against inst.
func (p *Pool) Request(ctx context.Context, inst models.ServiceInstance, method, path string, body any) (*Response, error) {
	// Path errors are reported before the address is even looked at.
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	c, err := p.Client(ctx, inst)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, models.OutboundRequest{Method: method, Path: path, Body: body})
}

// Forget drops the cached client for id.
func (p *Pool) Forget(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pc, ok := p.clients[id]; ok {
		pc.client.CloseIdleConnections()
		delete(p.clients, id)
	}
}

// BreakerState reports the breaker state of a cached client, or "" if none.
func (p *Pool) BreakerState(id string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if pc, ok := p.clients[id]; ok {
		return pc.client.BreakerState()
	}
	return ""
}

// Close releases idle connections of every cached client.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, pc := range p.clients {
		pc.client.CloseIdleConnections()
		delete(p.clients, id)
	}
}

func fingerprint(inst models.ServiceInstance) string {
	h := sha256.New()
	for _, part := range []string{
		string(inst.Type), inst.BaseAddress,
		string(inst.Credential.Kind), inst.Credential.Header, inst.Credential.APIKey,
		inst.Credential.Username, inst.Credential.Password, inst.Credential.Token,
	} {
		h.Write([]byte(part))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
