// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

// Package main is the entry point for the ScreenFleet hub.
//
// ScreenFleet is a self-hosted control plane for fleets of Android TV boxes.
// Devices hold a WebSocket session with the hub, stream playback analytics,
// and receive commands from operator consoles in real time.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered loading from defaults, config.yaml, and
//     environment variables (Koanf v2)
//  2. Database: DuckDB for device, user, and analytics records
//  3. Seeding: bootstrap admin account and optional demo devices
//  4. Auth: JWT access tokens plus a BadgerDB-backed refresh token store
//  5. Messaging: in-process Watermill bus, analytics ingestor, connection
//     hub, and the admin-event forwarder
//  6. HTTP server: chi router serving the REST API, Prometheus metrics,
//     and the /api/v1/ws WebSocket endpoint
//
// All long-running components run under a suture v4 supervisor tree with
// failure isolation between the messaging layer and the API layer.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (see envMappings in internal/config)
//   - Config file (config.yaml)
//   - Built-in defaults
//
// Required settings:
//   - JWT_SECRET: 32+ character secret for token signing
//   - ADMIN_EMAIL / ADMIN_PASSWORD: bootstrap admin account
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM:
//   - Stops accepting new connections
//   - Sends close frames to connected devices and consoles
//   - Waits for in-flight requests to complete (10s timeout)
//   - Closes the refresh token store and database
//
// # Example Usage
//
// Development with demo data:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_EMAIL=admin@example.com
//	export ADMIN_PASSWORD=change-me-now
//	export SEED_DEMO_DATA=true
//	./screenfleet
//
// Production:
//
//	export JWT_SECRET=$(openssl rand -base64 32)
//	export ADMIN_EMAIL=ops@example.com
//	export ADMIN_PASSWORD=secure-password
//	export DUCKDB_PATH=/data/screenfleet.duckdb
//	export REFRESH_STORE_PATH=/data/sessions
//	export CORS_ORIGINS=https://console.example.com
//	./screenfleet
package main
