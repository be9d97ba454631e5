// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/homeport/internal/gwerrors"
	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/metrics"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/netguard"
)

// ConnectionInfo is a point-in-time view of one relay connection.
type ConnectionInfo struct {
	InstanceID    string    `json:"instance_id"`
	State         State     `json:"state"`
	Subscriptions int       `json:"subscriptions"`
	ConnectedAt   time.Time `json:"connected_at,omitempty"`
}

// Manager owns at most one relay connection per instance. Construct one at
// startup and pass it by handle; it is safe for concurrent use. Operations on
// different instances proceed independently, operations on the same instance
// are serialised.
type Manager struct {
	cfg    Config
	guard  *netguard.Validator
	sink   EventSink
	dialer *websocket.Dialer
	log    zerolog.Logger

	mu     sync.Mutex
	conns  map[string]*connection
	locks  map[string]*sync.Mutex
	closed bool
}

// NewManager validates cfg and builds a manager that publishes to sink.
func NewManager(cfg Config, guard *netguard.Validator, sink EventSink) (*Manager, error) {
	if guard == nil {
		return nil, errors.New("relay: address validator is required")
	}
	if sink == nil {
		return nil, errors.New("relay: event sink is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("relay: %w", err)
	}

	return &Manager{
		cfg:   cfg,
		guard: guard,
		sink:  sink,
		dialer: &websocket.Dialer{
			NetDialContext:   guard.Dialer(cfg.HandshakeTimeout).DialContext,
			HandshakeTimeout: cfg.HandshakeTimeout,
			Subprotocols:     []string{cfg.Subprotocol},
		},
		log:   logging.WithComponent("relay"),
		conns: make(map[string]*connection),
		locks: make(map[string]*sync.Mutex),
	}, nil
}

func (m *Manager) lockFor(instanceID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[instanceID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[instanceID] = l
	}
	return l
}

func (m *Manager) get(instanceID string) *connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conns[instanceID]
}

// release removes c from the map if it is still the registered connection.
func (m *Manager) release(c *connection) {
	m.mu.Lock()
	if m.conns[c.instanceID] == c {
		delete(m.conns, c.instanceID)
	}
	m.mu.Unlock()

	if c.released.CompareAndSwap(false, true) {
		// Drop the connection from the per-state gauge.
		metrics.RecordRelayTransition(c.State().String(), "")
	}
}

// Subscribe opens the telemetry relay for an instance, replacing any existing
// connection. It returns once connection_init has been sent; acknowledgement
// and streaming continue in the background. Failures are returned and also
// emitted as error events.
func (m *Manager) Subscribe(ctx context.Context, instanceID, baseAddress string, cred models.Credential) error {
	if instanceID == "" {
		return gwerrors.NewValidation("instance_id", "", "instance id is required")
	}

	lock := m.lockFor(instanceID)
	lock.Lock()
	defer lock.Unlock()

	if m.isClosed() {
		return &gwerrors.UnavailableError{InstanceID: instanceID, Reason: "relay manager is shut down"}
	}

	if existing := m.get(instanceID); existing != nil {
		m.log.Info().Str("instance", instanceID).Msg("Replacing existing relay connection")
		m.teardown(ctx, existing, "replaced")
	}

	target, header, err := m.prepare(ctx, baseAddress, cred)
	if err != nil {
		m.publishFailure(ctx, instanceID, models.ErrorCodeProtocol, err)
		return err
	}

	c := newConnection(m, instanceID)
	m.mu.Lock()
	m.conns[instanceID] = c
	m.mu.Unlock()

	c.log.Info().Str("endpoint", logging.RedactURL(target)).Msg("Connecting relay")

	dialCtx, cancel := context.WithTimeout(ctx, m.cfg.HandshakeTimeout)
	conn, resp, err := m.dialer.DialContext(dialCtx, target, header)
	cancel()
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			err = fmt.Errorf("upgrade refused with status %d: %w", resp.StatusCode, err)
		}
		return m.abort(ctx, c, &gwerrors.TransportError{InstanceID: instanceID, Op: "dial", Err: err})
	}
	c.conn = conn
	m.mu.Lock()
	c.connectedAt = time.Now().UTC()
	m.mu.Unlock()

	payload, err := initPayload(header)
	if err != nil {
		_ = conn.Close()
		return m.abort(ctx, c, err)
	}
	if err := c.send(message{Type: msgConnectionInit, Payload: payload}); err != nil {
		_ = conn.Close()
		return m.abort(ctx, c, &gwerrors.TransportError{InstanceID: instanceID, Op: "send connection_init", Err: err})
	}
	c.setState(StateInitializing)
	c.start()
	return nil
}

// prepare validates the address and builds the socket URL and auth headers.
func (m *Manager) prepare(ctx context.Context, baseAddress string, cred models.Credential) (string, http.Header, error) {
	base, err := m.guard.Canonicalize(ctx, baseAddress)
	if err != nil {
		return "", nil, err
	}
	header, err := authHeaders(cred)
	if err != nil {
		return "", nil, gwerrors.NewValidation("credential", "", err.Error())
	}

	ws := url.URL{Scheme: "ws", Host: base.Host, Path: base.Path + m.cfg.Endpoint}
	if base.Scheme == "https" {
		ws.Scheme = "wss"
	}
	return ws.String(), header, nil
}

// abort fails a connection that never got a reader.
func (m *Manager) abort(ctx context.Context, c *connection, err error) error {
	c.ending.Store(true)
	c.setState(StateErrored)
	close(c.done)
	m.release(c)
	c.cancel()
	c.log.Warn().Err(err).Msg("Relay connection failed")
	m.publishFailure(ctx, c.instanceID, models.ErrorCodeTransport, err)
	return err
}

func (m *Manager) publishFailure(ctx context.Context, instanceID, code string, err error) {
	if kind := gwerrors.KindOf(err); kind == gwerrors.KindValidation {
		code = string(kind)
	}
	metrics.RecordRelayEvent(string(models.EventError))
	if perr := m.sink.Publish(ctx, models.NewErrorEvent(instanceID, code, err)); perr != nil {
		m.log.Error().Err(perr).Str("instance", instanceID).Msg("Relay event not delivered")
	}
}

// teardown ends c and emits the closed event unless the reader already
// emitted a terminal event.
func (m *Manager) teardown(ctx context.Context, c *connection, reason string) {
	owner := c.teardown(ctx)
	m.release(c)
	if owner {
		c.log.Info().Str("reason", reason).Msg("Relay connection closed")
		metrics.RecordRelayEvent(string(models.EventClosed))
		if err := m.sink.Publish(ctx, models.NewClosedEvent(c.instanceID, reason)); err != nil {
			c.log.Error().Err(err).Msg("Relay event not delivered")
		}
	}
}

// Unsubscribe stops every active subscription for the instance, closes the
// socket and forgets the connection. Without a connection it does nothing.
func (m *Manager) Unsubscribe(ctx context.Context, instanceID string) {
	lock := m.lockFor(instanceID)
	lock.Lock()
	defer lock.Unlock()

	if c := m.get(instanceID); c != nil {
		m.teardown(ctx, c, "unsubscribed")
	}
}

func (m *Manager) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// UnsubscribeAll tears down every connection concurrently and refuses any
// later Subscribe. Used at shutdown.
func (m *Manager) UnsubscribeAll(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	// Every instance that was ever locked, so a Subscribe still in flight
	// is waited for and torn down.
	ids := make([]string, 0, len(m.locks))
	for id := range m.locks {
		ids = append(ids, id)
	}
	open := len(m.conns)
	m.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, id := range ids {
		g.Go(func() error {
			m.Unsubscribe(gctx, id)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	m.log.Info().Int("connections", open).Msg("All relay connections closed")
	return ctx.Err()
}

// IsConnected reports whether the instance's relay is Ready.
func (m *Manager) IsConnected(instanceID string) bool {
	return m.State(instanceID) == StateReady
}

// State returns the instance's relay state, Idle when there is no connection.
func (m *Manager) State(instanceID string) State {
	if c := m.get(instanceID); c != nil {
		return c.State()
	}
	return StateIdle
}

// Snapshot lists every registered connection ordered by instance id.
func (m *Manager) Snapshot() []ConnectionInfo {
	m.mu.Lock()
	conns := make([]*connection, 0, len(m.conns))
	infos := make([]ConnectionInfo, 0, len(m.conns))
	for _, c := range m.conns {
		conns = append(conns, c)
		infos = append(infos, ConnectionInfo{InstanceID: c.instanceID, ConnectedAt: c.connectedAt})
	}
	m.mu.Unlock()

	for i, c := range conns {
		infos[i].State = c.State()
		infos[i].Subscriptions = len(c.activeIDs())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].InstanceID < infos[j].InstanceID })
	return infos
}
