// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/screenfleet/screenfleet/internal/database"
	"github.com/screenfleet/screenfleet/internal/models"
)

// Admission failures. Connections are rejected before the WebSocket
// upgrade, so these map to plain HTTP error responses.
var (
	ErrMissingCredentials = errors.New("token or device id required")
	ErrDeviceNotFound     = errors.New("device not found")
	ErrAuthFailed         = errors.New("authentication failed")
	ErrUserNotAuthorized  = errors.New("user not authorized")
)

// ConnKind classifies an admitted connection.
type ConnKind string

const (
	KindDevice ConnKind = "device"
	KindAdmin  ConnKind = "admin"
	KindUser   ConnKind = "user"
)

// Handshake carries the credentials presented by a connecting client.
// Exactly one of DeviceID or Token is expected; when both are present
// the device branch wins.
type Handshake struct {
	DeviceID string
	Token    string
}

// Identity is the result of a successful admission. Exactly one of
// Device or User is set, matching Kind.
type Identity struct {
	Kind   ConnKind
	Device *models.Device
	User   *models.User
}

// Authenticator decides whether a connecting client may join the hub.
// Admission is fail closed: any lookup or validation error rejects the
// connection.
type Authenticator struct {
	db  *database.DB
	jwt *JWTManager
}

// NewAuthenticator creates a connection authenticator.
func NewAuthenticator(db *database.DB, jwt *JWTManager) *Authenticator {
	return &Authenticator{db: db, jwt: jwt}
}

// Authenticate resolves a handshake into an identity.
//
// Device credentials are checked first: a deviceId must name a
// registered device. Otherwise the token is verified and its subject
// must resolve to a known user; admins are classified separately from
// regular users. No credentials at all is a rejection.
func (a *Authenticator) Authenticate(ctx context.Context, hs Handshake) (*Identity, error) {
	switch {
	case hs.DeviceID != "":
		device, err := a.db.GetDevice(ctx, hs.DeviceID)
		if err != nil {
			if errors.Is(err, database.ErrDeviceNotFound) {
				return nil, ErrDeviceNotFound
			}
			return nil, fmt.Errorf("device lookup: %w", err)
		}
		return &Identity{Kind: KindDevice, Device: device}, nil

	case hs.Token != "":
		claims, err := a.jwt.ValidateToken(hs.Token)
		if err != nil {
			return nil, ErrAuthFailed
		}
		user, err := a.db.GetUser(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, database.ErrUserNotFound) {
				return nil, ErrUserNotAuthorized
			}
			return nil, fmt.Errorf("user lookup: %w", err)
		}
		kind := KindUser
		if user.IsAdmin() {
			kind = KindAdmin
		}
		return &Identity{Kind: kind, User: user}, nil

	default:
		return nil, ErrMissingCredentials
	}
}
