// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package database

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/screenfleet/screenfleet/internal/logging"
	"github.com/screenfleet/screenfleet/internal/models"
)

// EnsureAdminUser creates the bootstrap admin account if no user with the
// given email exists. Idempotent across restarts.
func (db *DB) EnsureAdminUser(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	if _, err := db.GetUserByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := &models.User{
		Email:        email,
		Name:         "Administrator",
		Role:         models.RoleAdmin,
		PasswordHash: string(hash),
	}
	if err := db.CreateUser(ctx, admin); err != nil {
		return err
	}
	logging.Info().Str("email", email).Msg("Created bootstrap admin user")
	return nil
}

// SeedDemoDevices inserts a handful of demo devices for development
// environments. Skipped when any devices already exist.
func (db *DB) SeedDemoDevices(ctx context.Context) error {
	n, err := db.CountDevices(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	demo := []models.Device{
		{ID: "tvbox-lobby-01", Name: "Lobby Display", Location: "Main Lobby"},
		{ID: "tvbox-cafe-01", Name: "Cafeteria Screen", Location: "Cafeteria"},
		{ID: "tvbox-meeting-01", Name: "Meeting Room A", Location: "2nd Floor"},
	}
	for i := range demo {
		if err := db.CreateDevice(ctx, &demo[i]); err != nil {
			return err
		}
	}
	logging.Info().Int("count", len(demo)).Msg("Seeded demo devices")
	return nil
}
