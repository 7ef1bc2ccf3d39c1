// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

/*
Package services provides suture.Service wrappers for ScreenFleet components.

Each wrapper adapts a component's lifecycle (ListenAndServe, RunWithContext,
Run) to suture's context-aware Serve pattern and identifies itself for
supervision logs via fmt.Stringer.

Available services:

  - HTTPServerService wraps *http.Server with graceful shutdown and a
    configurable drain timeout.
  - HubService wraps the WebSocket connection hub; on shutdown the hub
    closes every connected client.
  - ForwarderService wraps the admin-event forwarder that bridges the
    ingest bus onto the hub's admin room.

The wrappers declare their own small interfaces (HTTPServer, ContextHub,
ContextRunner) so this package never imports the wrapped packages and stays
trivially mockable.
*/
package services
