// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tomtom215/homeport/internal/api"
	"github.com/tomtom215/homeport/internal/auth"
	"github.com/tomtom215/homeport/internal/config"
	"github.com/tomtom215/homeport/internal/gateway"
	"github.com/tomtom215/homeport/internal/logging"
	"github.com/tomtom215/homeport/internal/models"
	"github.com/tomtom215/homeport/internal/netguard"
	"github.com/tomtom215/homeport/internal/registry"
	"github.com/tomtom215/homeport/internal/relay"
	"github.com/tomtom215/homeport/internal/supervisor"
	"github.com/tomtom215/homeport/internal/supervisor/services"
	ws "github.com/tomtom215/homeport/internal/websocket"
)

// relayStopTimeout bounds closing every relay when the relay layer stops.
const relayStopTimeout = 5 * time.Second

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gateway, relay manager and browser hub",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
}

// application is the wired component graph behind "serve".
type application struct {
	cfg     *config.Config
	tree    *supervisor.SupervisorTree
	pool    *gateway.Pool
	hub     *ws.Hub
	manager *relay.Manager
	httpSvc *services.HTTPServerService
}

// newApplication builds every component and registers the long-running ones
// with the supervisor tree. Nothing is started.
func newApplication(cfg *config.Config) (*application, error) {
	instances, err := cfg.ServiceInstances()
	if err != nil {
		return nil, err
	}
	reg, err := registry.NewStatic(instances)
	if err != nil {
		return nil, fmt.Errorf("service registry: %w", err)
	}

	guard := netguard.New(cfg.Guard)

	pool, err := gateway.NewPool(guard, cfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("gateway pool: %w", err)
	}

	// The relay manager publishes into the hub and the hub asks the
	// manager for relays, so the sink resolves the hub lazily.
	var hub *ws.Hub
	sink := relay.SinkFunc(func(ctx context.Context, ev models.RelayEvent) error {
		return hub.Publish(ctx, ev)
	})
	manager, err := relay.NewManager(cfg.Relay, guard, sink)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("relay manager: %w", err)
	}
	hub = ws.NewHub(
		ws.WithInstanceCheck(reg.Exists),
		ws.WithDemand(relay.NewDemand(manager, reg)),
	)

	var jwtManager *auth.JWTManager
	if cfg.Security.AuthMode == auth.ModeJWT {
		jwtManager, err = auth.NewJWTManager(&cfg.Security)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("jwt manager: %w", err)
		}
	}
	authMiddleware, err := auth.NewMiddleware(jwtManager, cfg.Security.AuthMode)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("auth middleware: %w", err)
	}

	handler := api.NewHandler(cfg, guard, reg, pool, manager, hub)
	router := api.NewRouter(handler, authMiddleware, api.NewChiMiddlewareFromConfig(&cfg.Security))

	server := &http.Server{
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}
	addr := net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port))

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), cfg.Supervisor)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("supervisor tree: %w", err)
	}

	httpSvc := services.NewHTTPServerService(server, addr, cfg.Server.ShutdownTimeout)
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddRelayService(services.NewRelayService(manager, reg, relayStopTimeout))
	tree.AddAPIService(httpSvc)

	logging.Info().
		Int("services", len(instances)).
		Str("auth_mode", cfg.Security.AuthMode).
		Str("addr", addr).
		Msg("Components wired into supervisor tree")

	return &application{
		cfg:     cfg,
		tree:    tree,
		pool:    pool,
		hub:     hub,
		manager: manager,
		httpSvc: httpSvc,
	}, nil
}

// run serves the supervisor tree until ctx is canceled and reports any
// service that failed to stop in time.
func (a *application) run(ctx context.Context) error {
	defer a.pool.Close()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := a.tree.ServeBackground(ctx)

	var runErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
			runErr = err
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := a.tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	return runErr
}

func runServe(parent context.Context, opts *rootOptions) error {
	cfg, err := opts.loadConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Info().Str("environment", cfg.Server.Environment).Msg("Starting Homeport")
	warnInsecureSettings(cfg)

	app, err := newApplication(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case sig := <-sigCh:
			logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := app.run(ctx); err != nil {
		return err
	}
	logging.Info().Msg("Application stopped gracefully")
	return nil
}

// warnInsecureSettings logs configuration that is valid but risky.
func warnInsecureSettings(cfg *config.Config) {
	if cfg.Security.AuthMode == auth.ModeNone {
		logging.Warn().Msg("Authentication is DISABLED (AUTH_MODE=none); every API route is public")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, origin := range cfg.Security.CORSOrigins {
		if origin == "*" {
			logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*); set explicit origins in production")
			break
		}
	}
	if cfg.Guard.AllowLoopback || cfg.Guard.AllowLinkLocal {
		logging.Warn().
			Bool("allow_loopback", cfg.Guard.AllowLoopback).
			Bool("allow_link_local", cfg.Guard.AllowLinkLocal).
			Msg("Address guard permits loopback or link-local targets")
	}
}
