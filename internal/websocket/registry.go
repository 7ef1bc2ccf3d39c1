// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package websocket

import (
	"sort"
	"sync"
)

// Registry is the in-memory map of live connections: deviceId to
// connection and userId to connection. It is the only mutable shared
// structure in the routing core, so it stays strictly in-memory and
// never holds its lock across I/O.
//
// Registration is an unconditional upsert: a reconnecting device
// overwrites its stale mapping immediately (last writer wins).
// Unregistration is a compare-and-delete keyed by the connection
// itself, so the stale connection's late cleanup cannot evict the
// fresher mapping.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*Client
	users   map[string]*Client
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*Client),
		users:   make(map[string]*Client),
	}
}

// RegisterDevice maps a device id to its connection, replacing any
// existing mapping.
func (r *Registry) RegisterDevice(deviceID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.devices[deviceID] = c
}

// RegisterUser maps a user id to its connection, replacing any existing
// mapping.
func (r *Registry) RegisterUser(userID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[userID] = c
}

// UnregisterDevice removes the mapping only if it still points at c.
// Returns whether the mapping was removed.
func (r *Registry) UnregisterDevice(deviceID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.devices[deviceID]; ok && current == c {
		delete(r.devices, deviceID)
		return true
	}
	return false
}

// UnregisterUser removes the mapping only if it still points at c.
func (r *Registry) UnregisterUser(userID string, c *Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if current, ok := r.users[userID]; ok && current == c {
		delete(r.users, userID)
		return true
	}
	return false
}

// LookupDevice returns the live connection for a device id, if any.
func (r *Registry) LookupDevice(deviceID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.devices[deviceID]
	return c, ok
}

// LookupUser returns the live connection for a user id, if any.
func (r *Registry) LookupUser(userID string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.users[userID]
	return c, ok
}

// DeviceIDs returns a sorted snapshot of currently connected device ids.
func (r *Registry) DeviceIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.devices))
	for id := range r.devices {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// UserIDs returns a sorted snapshot of currently connected user ids.
func (r *Registry) UserIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DeviceClients returns a snapshot of the connected device clients,
// sorted by client id for deterministic delivery order.
func (r *Registry) DeviceClients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clients := make([]*Client, 0, len(r.devices))
	for _, c := range r.devices {
		clients = append(clients, c)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})
	return clients
}

// DeviceCount returns the number of connected devices.
func (r *Registry) DeviceCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
