// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/screenfleet/screenfleet/internal/models"
)

// GetDevice looks up a device by id. Returns ErrDeviceNotFound when absent.
func (db *DB) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT id, name, location, last_seen, created_at FROM devices WHERE id = ?`, id)

	var d models.Device
	var lastSeen sql.NullTime
	if err := row.Scan(&d.ID, &d.Name, &d.Location, &lastSeen, &d.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDeviceNotFound
		}
		return nil, fmt.Errorf("query device %s: %w", id, err)
	}
	if lastSeen.Valid {
		d.LastSeen = lastSeen.Time
	}
	return &d, nil
}

// TouchDeviceLastSeen updates a device's last-seen timestamp. A missing
// device is not an error here; liveness writes are best-effort.
func (db *DB) TouchDeviceLastSeen(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx,
		`UPDATE devices SET last_seen = ? WHERE id = ?`, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch device %s: %w", id, err)
	}
	return nil
}

// CreateDevice inserts a new device record.
func (db *DB) CreateDevice(ctx context.Context, d *models.Device) error {
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO devices (id, name, location, created_at) VALUES (?, ?, ?, ?)`,
		d.ID, d.Name, d.Location, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create device %s: %w", d.ID, err)
	}
	return nil
}

// ListDevices returns all devices ordered by name.
func (db *DB) ListDevices(ctx context.Context) ([]models.Device, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, location, last_seen, created_at FROM devices ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer closeQuietly(rows)

	var devices []models.Device
	for rows.Next() {
		var d models.Device
		var lastSeen sql.NullTime
		if err := rows.Scan(&d.ID, &d.Name, &d.Location, &lastSeen, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan device: %w", err)
		}
		if lastSeen.Valid {
			d.LastSeen = lastSeen.Time
		}
		devices = append(devices, d)
	}
	return devices, rows.Err()
}

// CountDevices returns the number of registered devices.
func (db *DB) CountDevices(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM devices`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count devices: %w", err)
	}
	return n, nil
}
