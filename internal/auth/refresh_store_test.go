// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRefreshStore(t *testing.T) *RefreshStore {
	t.Helper()
	store, err := NewRefreshStore("", time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRefreshIssueAndRotate(t *testing.T) {
	store := newTestRefreshStore(t)

	token, err := store.Issue("u-1")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	next, userID, err := store.Rotate(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", userID)
	assert.NotEqual(t, token, next)
}

func TestRefreshRotateConsumesToken(t *testing.T) {
	store := newTestRefreshStore(t)

	token, err := store.Issue("u-1")
	require.NoError(t, err)

	_, _, err = store.Rotate(token)
	require.NoError(t, err)

	// Second redemption of the same token must fail.
	_, _, err = store.Rotate(token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRefreshRotateUnknownToken(t *testing.T) {
	store := newTestRefreshStore(t)

	_, _, err := store.Rotate("never-issued")
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
}

func TestRefreshRevoke(t *testing.T) {
	store := newTestRefreshStore(t)

	token, err := store.Issue("u-1")
	require.NoError(t, err)
	require.NoError(t, store.Revoke(token))

	_, _, err = store.Rotate(token)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	assert.NoError(t, store.Revoke("never-issued"), "revoking unknown token is not an error")
}

func TestRefreshRevokeAllForUser(t *testing.T) {
	store := newTestRefreshStore(t)

	t1, err := store.Issue("u-1")
	require.NoError(t, err)
	t2, err := store.Issue("u-1")
	require.NoError(t, err)
	other, err := store.Issue("u-2")
	require.NoError(t, err)

	require.NoError(t, store.RevokeAllForUser("u-1"))

	_, _, err = store.Rotate(t1)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)
	_, _, err = store.Rotate(t2)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	_, userID, err := store.Rotate(other)
	require.NoError(t, err)
	assert.Equal(t, "u-2", userID)
}
