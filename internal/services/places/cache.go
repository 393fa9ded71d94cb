package places

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
)

// CacheKeyPrefix namespaces lookup results in key/value storage
const CacheKeyPrefix = "places:lookup:"

var (
	_ interfaces.PlacesService = (*Service)(nil)
	_ interfaces.PlacesService = (*CachedService)(nil)
)

type cacheEntry struct {
	Found bool                  `json:"found"`
	Place *models.EnrichedPlace `json:"place,omitempty"`
}

// CachedService avoids repeat lookups of the same name and location. Misses
// are cached too, with a shorter TTL.
type CachedService struct {
	inner          interfaces.PlacesService
	kv             interfaces.KeyValueStorage
	ttl            time.Duration
	negativeTTL    time.Duration
	fallbackRegion string
	countrySuffix  string
	logger         arbor.ILogger
}

// NewCachedService wraps inner with a key/value backed cache. TTLs and the
// location normalization defaults come from config.
func NewCachedService(inner interfaces.PlacesService, kv interfaces.KeyValueStorage, config *common.PlacesConfig, logger arbor.ILogger) *CachedService {
	return &CachedService{
		inner:          inner,
		kv:             kv,
		ttl:            config.CacheTTL,
		negativeTTL:    config.NegativeCacheTTL,
		fallbackRegion: config.FallbackRegion,
		countrySuffix:  config.CountrySuffix,
		logger:         logger,
	}
}

// CacheKey builds the cache key for a name and an already normalized location
func CacheKey(name, normalizedLocation string) string {
	return CacheKeyPrefix + strings.ToLower(CleanBusinessName(name)) + "|" + strings.ToLower(strings.TrimSpace(normalizedLocation))
}

// Key returns the cache key for a raw location hint. Hints that normalize to
// the same location share one entry.
func (c *CachedService) Key(name, locationHint string) string {
	return CacheKey(name, NormalizeLocation(locationHint, c.fallbackRegion, c.countrySuffix))
}

// LookupBusiness serves from cache when possible. Biased lookups share the
// cache entry of the unbiased name and location.
func (c *CachedService) LookupBusiness(ctx context.Context, name, locationHint string, bias *models.LocationBias) (*models.EnrichedPlace, error) {
	key := c.Key(name, locationHint)

	if entry, ok := c.get(ctx, key); ok {
		c.logger.Debug().Str("key", key).Bool("found", entry.Found).Msg("Places lookup cache hit")
		return entry.Place, nil
	}

	place, err := c.inner.LookupBusiness(ctx, name, locationHint, bias)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl
	if place == nil {
		ttl = c.negativeTTL
	}
	if ttl > 0 {
		c.put(ctx, key, cacheEntry{Found: place != nil, Place: place}, ttl)
	}

	return place, nil
}

func (c *CachedService) get(ctx context.Context, key string) (cacheEntry, bool) {
	var entry cacheEntry

	raw, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, interfaces.ErrKeyNotFound) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Places cache read failed")
		}
		return entry, false
	}

	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Discarding corrupt places cache entry")
		_ = c.kv.Delete(ctx, key)
		return entry, false
	}
	return entry, true
}

func (c *CachedService) put(ctx context.Context, key string, entry cacheEntry, ttl time.Duration) {
	payload, err := json.Marshal(entry)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to encode places cache entry")
		return
	}
	if err := c.kv.Set(ctx, key, string(payload), ttl); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Places cache write failed")
	}
}
