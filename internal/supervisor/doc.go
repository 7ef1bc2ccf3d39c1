// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

/*
Package supervisor provides process supervision for ScreenFleet using suture v4.

It implements a hierarchical supervisor tree that manages the lifecycle of all
long-running services: Erlang/OTP-style supervision with automatic restart,
failure isolation, and graceful shutdown.

The tree organizes services into two layers:

	RootSupervisor ("screenfleet")
	├── MessagingSupervisor ("messaging-layer")
	│   ├── HubService
	│   └── ForwarderService
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

A crash in the messaging layer restarts the hub and forwarder with exponential
backoff while the HTTP listener keeps serving; an HTTP failure is likewise
isolated from live WebSocket sessions held by the hub.

Supervision events are logged through sutureslog, bridged onto the process-wide
zerolog logger via logging.NewSlogLogger.
*/
package supervisor
