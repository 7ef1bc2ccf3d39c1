// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

// Package models defines the data structures shared across ScreenFleet:
// durable fleet records (devices, users, analytics events) and the typed
// WebSocket event payloads exchanged with devices and admin consoles.
package models

import "time"

// Role is a user authorization role.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleUser  Role = "USER"
)

// DeviceStatus is the transient liveness state broadcast to admins.
// It is derived from the session registry and never persisted.
type DeviceStatus string

const (
	DeviceOnline  DeviceStatus = "ONLINE"
	DeviceOffline DeviceStatus = "OFFLINE"
)

// Device is a durable TV-box record. The hub reads it to validate a
// connecting device and writes only LastSeen.
type Device struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location,omitempty"`
	LastSeen  time.Time `json:"lastSeen"`
	CreatedAt time.Time `json:"createdAt"`
}

// DeviceWithStatus joins a durable device record with its live online flag.
type DeviceWithStatus struct {
	Device
	Online bool `json:"online"`
}

// User is a durable operator record. The hub reads it for authorization
// decisions only; account management lives elsewhere.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`

	// PasswordHash is the bcrypt hash; never serialized.
	PasswordHash string `json:"-"`
}

// IsAdmin reports whether the user may issue fleet commands.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// FleetStats summarizes the fleet for the dashboard.
type FleetStats struct {
	DevicesTotal  int `json:"devicesTotal"`
	DevicesOnline int `json:"devicesOnline"`
	UsersTotal    int `json:"usersTotal"`
	EventsTotal   int `json:"eventsTotal"`
}
