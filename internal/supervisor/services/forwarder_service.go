// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package services

import (
	"context"
)

// ContextRunner matches *ingest.Forwarder's Run method.
type ContextRunner interface {
	Run(ctx context.Context) error
}

// ForwarderService wraps the admin-event forwarder as a supervised service.
// A restart opens a fresh event bus subscription; admin notifications are
// best-effort, so anything published during the gap is dropped.
type ForwarderService struct {
	forwarder ContextRunner
	name      string
}

// NewForwarderService creates a new forwarder service wrapper.
func NewForwarderService(forwarder ContextRunner) *ForwarderService {
	return &ForwarderService{
		forwarder: forwarder,
		name:      "admin-event-forwarder",
	}
}

// Serve implements suture.Service.
func (s *ForwarderService) Serve(ctx context.Context) error {
	return s.forwarder.Run(ctx)
}

// String implements fmt.Stringer for logging.
func (s *ForwarderService) String() string {
	return s.name
}
