// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package ingest

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/models"
)

// AdminBroadcaster delivers a frame to every connection in the admin
// room. The websocket hub satisfies this.
type AdminBroadcaster interface {
	BroadcastToAdmins(frame models.Frame)
}

// Forwarder consumes the admin events topic and fans frames out to the
// connected admin clients. It is the sole bridge between the ingestion
// side and the hub, so ingestion never holds a reference to live
// connections.
type Forwarder struct {
	bus         *Bus
	broadcaster AdminBroadcaster
}

// NewForwarder creates a forwarder between bus and broadcaster.
func NewForwarder(bus *Bus, broadcaster AdminBroadcaster) *Forwarder {
	return &Forwarder{bus: bus, broadcaster: broadcaster}
}

// Run subscribes and forwards until ctx is canceled. Malformed bus
// payloads are acked and dropped; nothing here may stall the topic.
func (f *Forwarder) Run(ctx context.Context) error {
	messages, err := f.bus.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribe admin events: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-messages:
			if !ok {
				return ctx.Err()
			}
			var frame models.Frame
			if err := json.Unmarshal(msg.Payload, &frame); err != nil {
				logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping malformed admin event")
				msg.Ack()
				continue
			}
			f.broadcaster.BroadcastToAdmins(frame)
			msg.Ack()
		}
	}
}
