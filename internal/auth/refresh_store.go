// ScreenFleet - TV Box Fleet Control and Playback Analytics
// Copyright 2026 ScreenFleet Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/screenfleet/screenfleet

package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/screenfleet/screenfleet/internal/logging"
)

const refreshKeyPrefix = "refresh:"

// ErrRefreshTokenNotFound indicates an unknown, expired, or already
// rotated refresh token.
var ErrRefreshTokenNotFound = errors.New("refresh token not found")

// refreshRecord is the stored value for an issued refresh token.
type refreshRecord struct {
	UserID    string    `json:"userId"`
	IssuedAt  time.Time `json:"issuedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// RefreshStore issues and rotates opaque refresh tokens backed by
// BadgerDB. Entries carry a TTL so expired tokens are reclaimed without
// a sweeper. An empty path opens an in-memory store, which is what
// tests and development use.
type RefreshStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewRefreshStore opens the token store at path, or in memory when path
// is empty.
func NewRefreshStore(path string, ttl time.Duration) (*RefreshStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open refresh token store: %w", err)
	}
	return &RefreshStore{db: db, ttl: ttl}, nil
}

// Issue creates a new refresh token bound to the given user.
func (s *RefreshStore) Issue(userID string) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	token := hex.EncodeToString(buf)

	now := time.Now().UTC()
	record := refreshRecord{UserID: userID, IssuedAt: now, ExpiresAt: now.Add(s.ttl)}
	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("marshal refresh record: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(refreshKeyPrefix+token), data).WithTTL(s.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return "", fmt.Errorf("store refresh token: %w", err)
	}
	return token, nil
}

// Rotate consumes a refresh token and issues a replacement for the same
// user. The old token is deleted in the same transaction that validates
// it, so a token can be redeemed at most once.
func (s *RefreshStore) Rotate(token string) (string, string, error) {
	var record refreshRecord

	err := s.db.Update(func(txn *badger.Txn) error {
		key := []byte(refreshKeyPrefix + token)
		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrRefreshTokenNotFound
		}
		if err != nil {
			return fmt.Errorf("get refresh token: %w", err)
		}
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return fmt.Errorf("decode refresh record: %w", err)
		}
		if time.Now().UTC().After(record.ExpiresAt) {
			return ErrRefreshTokenNotFound
		}
		return txn.Delete(key)
	})
	if err != nil {
		return "", "", err
	}

	next, err := s.Issue(record.UserID)
	if err != nil {
		return "", "", err
	}
	return next, record.UserID, nil
}

// Revoke deletes a refresh token. Unknown tokens are not an error.
func (s *RefreshStore) Revoke(token string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(refreshKeyPrefix + token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		return err
	})
}

// RevokeAllForUser deletes every refresh token issued to the user.
func (s *RefreshStore) RevokeAllForUser(userID string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(refreshKeyPrefix)
		var stale [][]byte
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			var record refreshRecord
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &record)
			}); err != nil {
				continue
			}
			if record.UserID == userID {
				stale = append(stale, item.KeyCopy(nil))
			}
		}
		for _, key := range stale {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close shuts the underlying Badger database down.
func (s *RefreshStore) Close() error {
	if err := s.db.Close(); err != nil {
		logging.Err(err).Msg("Failed to close refresh token store")
		return err
	}
	return nil
}
