// Homeport - Self-Hosted Service Gateway and Telemetry Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/homeport

/*
Package main is the entry point for the homeport binary.

Homeport sits between a browser dashboard and the self-hosted services on a
home network (Sonarr, Radarr, Unraid and friends). It validates every
service address against an SSRF policy, performs credentialed requests on
the browser's behalf, and relays Unraid's GraphQL telemetry subscriptions
to subscribed browsers over a single WebSocket.

# Commands

	homeport [serve]              run the server (default)
	homeport encrypt [value]      print an "enc:" credential for the config file
	homeport token <subject>      issue an API token (auth_mode jwt)

Every command accepts --config/-c; without it the file named by
CONFIG_PATH is used, then ./config.yaml and /etc/homeport/config.yaml.

# Application Architecture

The server runs under a Suture v4 supervisor tree:

	RootSupervisor ("homeport")
	├── MessagingSupervisor ("messaging-layer")
	│   └── Browser hub ("browser-hub")
	├── RelaySupervisor ("relay-layer")
	│   └── Relay manager ("relay-manager"): autostart and close-all
	└── APISupervisor ("api-layer")
	    └── HTTP server ("http-server")

Component initialization order:

 1. Configuration: Koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog with JSON/console output
 3. Service registry from the services section, decrypting "enc:" values
 4. Address guard (netguard) and the credentialed client pool (gateway)
 5. Relay manager, publishing into the browser hub
 6. Browser hub, asking the relay manager for relays on demand
 7. Authentication: JWT verification or none
 8. Chi router and HTTP server
 9. Supervisor tree

# Configuration

	# Server
	HTTP_PORT=8480
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Authentication
	AUTH_MODE=jwt                # jwt or none
	JWT_SECRET=<32+ chars>
	CREDENTIAL_KEY=<secret>      # optional, defaults to JWT_SECRET

	# Address guard
	GUARD_ALLOW_PRIVATE=true
	GUARD_ALLOW_LOOPBACK=false

Services are declared only in the config file:

	services:
	  - id: tower
	    type: unraid
	    url: https://tower.lan
	    enabled: true
	    relay: true
	    api_key: enc:...

# Signal Handling

SIGINT and SIGTERM cancel the tree. The HTTP server drains within
server.shutdown_timeout, every open relay is closed, and services that
failed to stop in time are reported.
*/
package main
