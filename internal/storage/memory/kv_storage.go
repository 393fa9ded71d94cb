// Package memory provides an in-process KeyValueStorage backed by go-cache.
// Nothing survives a restart.
package memory

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/interfaces"
)

// defaultCleanupInterval is how often go-cache's janitor evicts expired items
const defaultCleanupInterval = 10 * time.Minute

// KVStorage implements the KeyValueStorage interface in memory
type KVStorage struct {
	cache  *cache.Cache
	logger arbor.ILogger
	now    func() time.Time
}

// NewKVStorage creates an in-memory store. cleanupInterval <= 0 uses the default.
func NewKVStorage(logger arbor.ILogger, cleanupInterval time.Duration) *KVStorage {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}
	return &KVStorage{
		cache:  cache.New(cache.NoExpiration, cleanupInterval),
		logger: logger,
		now:    time.Now,
	}
}

func (s *KVStorage) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get retrieves a live value by key (case-insensitive)
func (s *KVStorage) Get(ctx context.Context, key string) (string, error) {
	pair, ok := s.pair(s.normalizeKey(key))
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return pair.Value, nil
}

func (s *KVStorage) pair(key string) (interfaces.KeyValuePair, bool) {
	item, ok := s.cache.Get(key)
	if !ok {
		return interfaces.KeyValuePair{}, false
	}
	pair := item.(interfaces.KeyValuePair)
	if pair.Expired(s.now()) {
		return interfaces.KeyValuePair{}, false
	}
	return pair, true
}

// Set inserts or updates a key/value pair. ttl <= 0 never expires.
func (s *KVStorage) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	normalizedKey := s.normalizeKey(key)
	now := s.now()

	pair := interfaces.KeyValuePair{
		Key:       normalizedKey,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if existing, ok := s.pair(normalizedKey); ok {
		pair.CreatedAt = existing.CreatedAt
	}

	expiration := cache.NoExpiration
	if ttl > 0 {
		pair.ExpiresAt = now.Add(ttl)
		expiration = ttl
	}

	s.cache.Set(normalizedKey, pair, expiration)
	return nil
}

// Delete removes a key/value pair
func (s *KVStorage) Delete(ctx context.Context, key string) error {
	normalizedKey := s.normalizeKey(key)
	if _, ok := s.pair(normalizedKey); !ok {
		return interfaces.ErrKeyNotFound
	}
	s.cache.Delete(normalizedKey)
	return nil
}

// ListByPrefix returns live pairs whose key starts with prefix, most recently updated first
func (s *KVStorage) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	prefix = s.normalizeKey(prefix)
	now := s.now()

	var pairs []interfaces.KeyValuePair
	for key, item := range s.cache.Items() {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		pair := item.Object.(interfaces.KeyValuePair)
		if pair.Expired(now) {
			continue
		}
		pairs = append(pairs, pair)
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].UpdatedAt.Equal(pairs[j].UpdatedAt) {
			return pairs[i].Key < pairs[j].Key
		}
		return pairs[i].UpdatedAt.After(pairs[j].UpdatedAt)
	})
	return pairs, nil
}

// DeleteExpired removes expired pairs ahead of the janitor
func (s *KVStorage) DeleteExpired(ctx context.Context) (int, error) {
	now := s.now()
	removed := 0

	for key, item := range s.cache.Items() {
		if pair, ok := item.Object.(interfaces.KeyValuePair); ok && pair.Expired(now) {
			s.cache.Delete(key)
			removed++
		}
	}

	// Items() skips what go-cache already considers expired
	before := s.cache.ItemCount()
	s.cache.DeleteExpired()
	removed += before - s.cache.ItemCount()

	if removed > 0 {
		s.logger.Debug().Int("removed", removed).Msg("Memory store purged expired pairs")
	}
	return removed, nil
}

// Close clears the store
func (s *KVStorage) Close() error {
	s.cache.Flush()
	return nil
}
