// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package supervisor provides process supervision for Homeport using suture v4.

# Overview

Long-running components are organized into three layers:

	RootSupervisor ("homeport")
	├── MessagingSupervisor ("messaging-layer")
	│   └── HubService
	├── RelaySupervisor ("relay-layer")
	│   └── RelayService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The hub is added first because relays publish into it. The relay layer
opens autostart relays when it starts and closes every relay when the
tree shuts down.

Events (service start, failure, restart, backoff) are logged through
sutureslog. Pass logging.NewSlogLogger("supervisor") so they land in the zerolog
stream.

# Usage Example

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddMessagingService(services.NewHubService(hub))
	tree.AddRelayService(services.NewRelayService(manager, reg, 5*time.Second))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

# See Also

  - internal/supervisor/services: suture.Service wrappers
  - github.com/thejerf/suture/v4
*/
package supervisor
