// Package memory implements the user store in process memory. It backs the
// "memory" driver for local runs and serves as the store double in tests.
package memory

import (
	"context"
	"sync"

	"github.com/calendsync/authbridge/internal/store"
)

// Store keeps user records in a mutex-guarded map keyed by the same
// (provider, user_id) pair the mongo driver indexes on.
type Store struct {
	mu    sync.RWMutex
	users map[string]store.User
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{users: make(map[string]store.User)}
}

func key(provider, userID string) string {
	return provider + "/" + userID
}

// UpsertUser inserts or updates the record, mirroring the mongo driver's
// semantics: wholesale overwrite, refresh token preserved when absent,
// created_at set on first insert only.
func (s *Store) UpsertUser(ctx context.Context, user *store.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := *user
	if prev, ok := s.users[key(user.Provider, user.UserID)]; ok {
		if record.RefreshToken == "" {
			record.RefreshToken = prev.RefreshToken
		}
		record.CreatedAt = prev.CreatedAt
	} else {
		record.CreatedAt = record.LastLogin
	}
	s.users[key(user.Provider, user.UserID)] = record
	return nil
}

// GetUser returns a copy of the record for the given key.
func (s *Store) GetUser(ctx context.Context, provider, userID string) (*store.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.users[key(provider, userID)]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &record, nil
}

// Count returns the number of stored records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Close is a no-op.
func (s *Store) Close(ctx context.Context) error {
	return nil
}
