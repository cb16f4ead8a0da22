package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pos-service/internal/models"

	"github.com/go-redis/redis/v8"
)

const identityPrefix = "posUser:"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client and checks connectivity
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping reports whether Redis is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// IdentityKey is the key holding the identity of a session
func IdentityKey(sessionID string) string {
	return identityPrefix + sessionID
}

// SaveIdentity persists the logged-in identity of a session
func (c *Client) SaveIdentity(ctx context.Context, sessionID string, identity models.Identity) error {
	payload, err := EncodeIdentity(identity)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, IdentityKey(sessionID), payload, 0).Err(); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	return nil
}

// LoadIdentity reads the persisted identity of a session. A missing key
// yields models.ErrNotFound.
func (c *Client) LoadIdentity(ctx context.Context, sessionID string) (models.Identity, error) {
	payload, err := c.rdb.Get(ctx, IdentityKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Identity{}, fmt.Errorf("session %s: %w", sessionID, models.ErrNotFound)
	}
	if err != nil {
		return models.Identity{}, fmt.Errorf("failed to load identity: %w", err)
	}
	return DecodeIdentity(payload)
}

// DeleteIdentity removes the persisted identity of a session
func (c *Client) DeleteIdentity(ctx context.Context, sessionID string) error {
	if err := c.rdb.Del(ctx, IdentityKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	return nil
}

// EncodeIdentity serializes an identity for storage
func EncodeIdentity(identity models.Identity) ([]byte, error) {
	payload, err := json.Marshal(identity)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal identity: %w", err)
	}
	return payload, nil
}

// DecodeIdentity parses a stored identity
func DecodeIdentity(payload []byte) (models.Identity, error) {
	var identity models.Identity
	if err := json.Unmarshal(payload, &identity); err != nil {
		return models.Identity{}, fmt.Errorf("failed to unmarshal identity: %w", err)
	}
	if identity.ID == "" {
		return models.Identity{}, models.InvalidField("id", "stored identity has no id")
	}
	return identity, nil
}
