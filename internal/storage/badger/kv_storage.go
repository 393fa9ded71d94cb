package badger

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/timshannon/badgerhold/v4"
)

// KVStorage implements the KeyValueStorage interface for Badger.
// Expired pairs stay on disk until DeleteExpired runs but are never returned.
type KVStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
	now    func() time.Time
}

// NewKVStorage creates a new KVStorage instance
func NewKVStorage(db *BadgerDB, logger arbor.ILogger) *KVStorage {
	return &KVStorage{
		db:     db,
		logger: logger,
		now:    time.Now,
	}
}

// normalizeKey converts a key to lowercase for case-insensitive storage
func (s *KVStorage) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get retrieves a live value by key (case-insensitive)
func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	var pair interfaces.KeyValuePair
	err := s.db.Store().Get(s.normalizeKey(key), &pair)
	if errors.Is(err, badgerhold.ErrNotFound) {
		return "", interfaces.ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to get key: %w", err)
	}

	if pair.Expired(s.now()) {
		return "", interfaces.ErrKeyNotFound
	}

	return pair.Value, nil
}

// Set inserts or updates a key/value pair (case-insensitive). ttl <= 0 never expires.
func (s *KVStorage) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	normalizedKey := s.normalizeKey(key)
	now := s.now()

	pair := interfaces.KeyValuePair{
		Key:       normalizedKey,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if ttl > 0 {
		pair.ExpiresAt = now.Add(ttl)
	}

	// Preserve CreatedAt across updates of a live pair
	var existing interfaces.KeyValuePair
	if err := s.db.Store().Get(normalizedKey, &existing); err == nil && !existing.Expired(now) {
		pair.CreatedAt = existing.CreatedAt
	}

	if err := s.db.Store().Upsert(normalizedKey, &pair); err != nil {
		return fmt.Errorf("failed to set key/value: %w", err)
	}

	return nil
}

// Delete removes a key/value pair (case-insensitive)
func (s *KVStorage) Delete(ctx context.Context, key string) error {
	err := s.db.Store().Delete(s.normalizeKey(key), &interfaces.KeyValuePair{})
	if errors.Is(err, badgerhold.ErrNotFound) {
		return interfaces.ErrKeyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete key: %w", err)
	}
	return nil
}

// ListByPrefix returns live pairs whose key starts with prefix, most recently updated first
func (s *KVStorage) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(s.normalizeKey(prefix)))

	var pairs []interfaces.KeyValuePair
	err := s.db.Store().Find(&pairs, badgerhold.Where("Key").RegExp(pattern).SortBy("UpdatedAt").Reverse())
	if err != nil {
		return nil, fmt.Errorf("failed to list key/value pairs: %w", err)
	}

	now := s.now()
	live := pairs[:0]
	for _, pair := range pairs {
		if !pair.Expired(now) {
			live = append(live, pair)
		}
	}
	return live, nil
}

// DeleteExpired removes every pair whose expiry has passed
func (s *KVStorage) DeleteExpired(ctx context.Context) (int, error) {
	now := s.now()

	var candidates []interfaces.KeyValuePair
	if err := s.db.Store().Find(&candidates, badgerhold.Where("ExpiresAt").Lt(now)); err != nil {
		return 0, fmt.Errorf("failed to find expired pairs: %w", err)
	}

	removed := 0
	for _, pair := range candidates {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !pair.Expired(now) {
			continue // zero ExpiresAt sorts before now but never expires
		}
		if err := s.db.Store().Delete(pair.Key, &interfaces.KeyValuePair{}); err != nil && !errors.Is(err, badgerhold.ErrNotFound) {
			s.logger.Warn().Str("key", pair.Key).Err(err).Msg("Failed to delete expired pair")
			continue
		}
		removed++
	}

	return removed, nil
}

// Close closes the underlying database
func (s *KVStorage) Close() error {
	return s.db.Close()
}
