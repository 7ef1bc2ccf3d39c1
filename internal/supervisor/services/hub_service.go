// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package services

import (
	"context"
)

// ContextHub matches *websocket.Hub's RunWithContext method. Declaring the
// interface here keeps this package free of a websocket import.
type ContextHub interface {
	RunWithContext(ctx context.Context) error
}

// HubService wraps the connection hub as a supervised service.
//
// Hub.RunWithContext already implements the suture.Service pattern, so this
// wrapper delegates to it and provides a name for logging.
type HubService struct {
	hub  ContextHub
	name string
}

// NewHubService creates a new hub service wrapper.
func NewHubService(hub ContextHub) *HubService {
	return &HubService{
		hub:  hub,
		name: "connection-hub",
	}
}

// Serve implements suture.Service. It runs the hub's admin broadcast loop
// until the context is canceled, then closes all clients.
func (s *HubService) Serve(ctx context.Context) error {
	return s.hub.RunWithContext(ctx)
}

// String implements fmt.Stringer for logging.
func (s *HubService) String() string {
	return s.name
}
