// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/screenfleet/screenfleet/internal/models"
)

// InsertAnalyticsEvent persists one playback analytics record.
func (db *DB) InsertAnalyticsEvent(ctx context.Context, ev *models.AnalyticsEvent) error {
	var metadata any
	if len(ev.Metadata) > 0 {
		metadata = string(ev.Metadata)
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO analytics_events (id, device_id, video_id, kind, position, metadata, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.DeviceID, ev.VideoID, ev.Kind, ev.Position, metadata, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert analytics event: %w", err)
	}
	return nil
}

// AnalyticsFilter narrows ListAnalyticsEvents. Zero values mean no filter.
type AnalyticsFilter struct {
	DeviceID string
	Kind     models.AnalyticsKind
	Limit    int
}

// ListAnalyticsEvents returns events newest first, optionally filtered.
// Limit defaults to 100 and is capped at 1000.
func (db *DB) ListAnalyticsEvents(ctx context.Context, f AnalyticsFilter) ([]models.AnalyticsEvent, error) {
	query := `SELECT id, device_id, video_id, kind, position, metadata, created_at FROM analytics_events`
	var args []any
	var where []string
	if f.DeviceID != "" {
		where = append(where, "device_id = ?")
		args = append(args, f.DeviceID)
	}
	if f.Kind != "" {
		where = append(where, "kind = ?")
		args = append(args, f.Kind)
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list analytics events: %w", err)
	}
	defer closeQuietly(rows)

	var events []models.AnalyticsEvent
	for rows.Next() {
		var ev models.AnalyticsEvent
		var position sql.NullFloat64
		var metadata sql.NullString
		if err := rows.Scan(&ev.ID, &ev.DeviceID, &ev.VideoID, &ev.Kind, &position, &metadata, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan analytics event: %w", err)
		}
		if position.Valid {
			p := position.Float64
			ev.Position = &p
		}
		if metadata.Valid {
			ev.Metadata = []byte(metadata.String)
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// CountAnalyticsEvents returns the total number of stored events.
func (db *DB) CountAnalyticsEvents(ctx context.Context) (int, error) {
	var n int
	if err := db.conn.QueryRowContext(ctx, `SELECT count(*) FROM analytics_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count analytics events: %w", err)
	}
	return n, nil
}

// EventCountsByKind aggregates event totals per kind.
func (db *DB) EventCountsByKind(ctx context.Context) (map[models.AnalyticsKind]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT kind, count(*) FROM analytics_events GROUP BY kind`)
	if err != nil {
		return nil, fmt.Errorf("aggregate analytics events: %w", err)
	}
	defer closeQuietly(rows)

	counts := make(map[models.AnalyticsKind]int)
	for rows.Next() {
		var kind models.AnalyticsKind
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan event count: %w", err)
		}
		counts[kind] = n
	}
	return counts, rows.Err()
}
