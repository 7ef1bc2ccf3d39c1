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

	"github.com/screenfleet/screenfleet/internal/config"
	"github.com/screenfleet/screenfleet/internal/models"
)

func testSecurityConfig() *config.SecurityConfig {
	return &config.SecurityConfig{
		JWTSecret:      "test-secret-that-is-at-least-32-chars",
		SessionTimeout: time.Hour,
	}
}

func TestNewJWTManagerRequiresSecret(t *testing.T) {
	_, err := NewJWTManager(&config.SecurityConfig{})
	assert.Error(t, err)
}

func TestGenerateAndValidateToken(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	user := &models.User{ID: "u-1", Email: "ops@example.com", Role: models.RoleAdmin}
	token, expiresAt, err := m.GenerateToken(user)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.Subject)
	assert.Equal(t, "ops@example.com", claims.Email)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	m, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)

	user := &models.User{ID: "u-1", Email: "ops@example.com", Role: models.RoleUser}
	token, _, err := m.GenerateToken(user)
	require.NoError(t, err)

	_, err = m.ValidateToken(token + "x")
	assert.Error(t, err)
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	m1, err := NewJWTManager(testSecurityConfig())
	require.NoError(t, err)
	m2, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "another-secret-that-is-32-chars-long!",
		SessionTimeout: time.Hour,
	})
	require.NoError(t, err)

	token, _, err := m1.GenerateToken(&models.User{ID: "u-1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = m2.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m, err := NewJWTManager(&config.SecurityConfig{
		JWTSecret:      "test-secret-that-is-at-least-32-chars",
		SessionTimeout: -time.Minute,
	})
	require.NoError(t, err)

	token, _, err := m.GenerateToken(&models.User{ID: "u-1", Role: models.RoleUser})
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	assert.Error(t, err)
}
