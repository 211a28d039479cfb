// Package mongo implements the user store on a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/calendsync/authbridge/internal/config"
	"github.com/calendsync/authbridge/internal/store"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// Store persists user records in a single MongoDB collection shared across
// identity providers.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to MongoDB, verifies the connection, and ensures the unique
// compound index backing the (provider, user_id) natural key.
func New(ctx context.Context, cfg *config.StoreConfig) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "provider", Value: 1},
			{Key: "user_id", Value: 1},
		},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

// UpsertUser inserts or updates the record for (user.Provider, user.UserID)
// in one UpdateOne call, so concurrent logins for the same identity resolve
// to last-write-wins without partial states.
func (s *Store) UpsertUser(ctx context.Context, user *store.User) error {
	_, err := s.collection.UpdateOne(ctx,
		upsertFilter(user),
		upsertUpdate(user),
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("mongo upsert user: %w", err)
	}
	return nil
}

// GetUser returns the record for the given key.
func (s *Store) GetUser(ctx context.Context, provider, userID string) (*store.User, error) {
	var user store.User
	err := s.collection.FindOne(ctx, bson.D{
		{Key: "provider", Value: provider},
		{Key: "user_id", Value: userID},
	}).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("mongo get user: %w", err)
	}
	return &user, nil
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func upsertFilter(user *store.User) bson.D {
	return bson.D{
		{Key: "provider", Value: user.Provider},
		{Key: "user_id", Value: user.UserID},
	}
}

// upsertUpdate builds the update document. All token and profile fields are
// overwritten; refresh_token is only set when the login actually issued one,
// so a consent-less repeat login keeps the stored credential.
func upsertUpdate(user *store.User) bson.M {
	set := bson.M{
		"user_id":      user.UserID,
		"provider":     user.Provider,
		"access_token": user.AccessToken,
		"expires_in":   user.ExpiresAt,
		"display_name": user.DisplayName,
		"email":        user.Email,
		"given_name":   user.GivenName,
		"surname":      user.Surname,
		"picture":      user.Picture,
		"last_login":   user.LastLogin,
	}
	if user.RefreshToken != "" {
		set["refresh_token"] = user.RefreshToken
	}
	return bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"created_at": user.LastLogin},
	}
}
