// Package store persists user records produced by successful logins. The
// collection is shared across identity providers; (provider, user_id) is the
// natural key.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when no record exists for the requested key.
var ErrNotFound = errors.New("store: user not found")

// User is one persisted external identity. Token and profile fields are
// overwritten wholesale on every successful login, except RefreshToken,
// which survives a login that did not issue a new one.
type User struct {
	UserID       string    `bson:"user_id"`
	Provider     string    `bson:"provider"`
	AccessToken  string    `bson:"access_token"`
	RefreshToken string    `bson:"refresh_token,omitempty"`
	// ExpiresAt keeps the collection's historical expires_in field name;
	// sibling-provider records already store the expiry timestamp there.
	ExpiresAt    time.Time `bson:"expires_in"`
	DisplayName  string    `bson:"display_name,omitempty"`
	Email        string    `bson:"email,omitempty"`
	GivenName    string    `bson:"given_name,omitempty"`
	Surname      string    `bson:"surname,omitempty"`
	Picture      string    `bson:"picture,omitempty"`
	LastLogin    time.Time `bson:"last_login"`
	CreatedAt    time.Time `bson:"created_at,omitempty"`
}

// Store is the persistence contract for user records.
type Store interface {
	// UpsertUser inserts or updates the record keyed by (Provider, UserID)
	// as a single atomic operation.
	UpsertUser(ctx context.Context, user *User) error

	// GetUser returns the record for the given key, or ErrNotFound.
	GetUser(ctx context.Context, provider, userID string) (*User, error)

	// Close releases the underlying connection.
	Close(ctx context.Context) error
}
