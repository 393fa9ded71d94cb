package interfaces

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when a key is missing or expired
var ErrKeyNotFound = errors.New("key not found")

// KeyValuePair represents a single key/value pair with metadata
type KeyValuePair struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	ExpiresAt time.Time `json:"expires_at"` // zero means no expiry
}

// Expired reports whether the pair has passed its expiry at now
func (p KeyValuePair) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && !now.Before(p.ExpiresAt)
}

// KeyValueStorage defines operations for key/value storage with optional expiry
type KeyValueStorage interface {
	// Get retrieves a live value by key, returns ErrKeyNotFound if missing or expired
	Get(ctx context.Context, key string) (string, error)

	// Set inserts or updates a value; ttl <= 0 stores without expiry
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Delete removes a key, returns ErrKeyNotFound if missing
	Delete(ctx context.Context, key string) error

	// ListByPrefix returns live pairs whose key starts with prefix
	ListByPrefix(ctx context.Context, prefix string) ([]KeyValuePair, error)

	// DeleteExpired removes expired pairs and returns how many were removed
	DeleteExpired(ctx context.Context) (int, error)

	// Close releases the underlying store
	Close() error
}
