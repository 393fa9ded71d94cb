package places

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/outing/internal/common"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
)

// mockKVStorage is an in-memory KeyValueStorage recording TTLs
type mockKVStorage struct {
	mu     sync.Mutex
	data   map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMockKVStorage() *mockKVStorage {
	return &mockKVStorage{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *mockKVStorage) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	v, ok := m.data[key]
	if !ok {
		return "", interfaces.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockKVStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *mockKVStorage) ListByPrefix(ctx context.Context, prefix string) ([]interfaces.KeyValuePair, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []interfaces.KeyValuePair
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			out = append(out, interfaces.KeyValuePair{Key: k, Value: v})
		}
	}
	return out, nil
}

func (m *mockKVStorage) DeleteExpired(ctx context.Context) (int, error) { return 0, nil }
func (m *mockKVStorage) Close() error                                   { return nil }

func cacheConfig() *common.PlacesConfig {
	return &common.PlacesConfig{
		CacheTTL:         time.Hour,
		NegativeCacheTTL: time.Minute,
		FallbackRegion:   "Austin, TX, USA",
		CountrySuffix:    "USA",
	}
}

// countingPlaces returns a fixed result and counts calls
type countingPlaces struct {
	calls int
	place *models.EnrichedPlace
	err   error
}

func (c *countingPlaces) LookupBusiness(ctx context.Context, name, locationHint string, bias *models.LocationBias) (*models.EnrichedPlace, error) {
	c.calls++
	return c.place, c.err
}

func TestCachedService_HitAvoidsUpstream(t *testing.T) {
	inner := &countingPlaces{place: &models.EnrichedPlace{
		PlaceCandidate: models.PlaceCandidate{ID: "p1", DisplayName: "Uchi"},
		PhotoURL:       "https://example.com/uchi.jpg",
	}}
	kv := newMockKVStorage()
	svc := NewCachedService(inner, kv, cacheConfig(), createTestLogger())
	ctx := context.Background()

	first, err := svc.LookupBusiness(ctx, "Dinner at Uchi", "Austin", nil)
	require.NoError(t, err)
	second, err := svc.LookupBusiness(ctx, "Uchi", "austin", nil)
	require.NoError(t, err)

	assert.Equal(t, 1, inner.calls)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "https://example.com/uchi.jpg", second.PhotoURL)
	assert.Equal(t, time.Hour, kv.ttls[CacheKey("Uchi", "Austin, TX, USA")])
}

func TestCachedService_CachesMissWithNegativeTTL(t *testing.T) {
	inner := &countingPlaces{}
	kv := newMockKVStorage()
	svc := NewCachedService(inner, kv, cacheConfig(), createTestLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		got, err := svc.LookupBusiness(ctx, "Nowhere Cafe", "Austin", nil)
		require.NoError(t, err)
		assert.Nil(t, got)
	}

	assert.Equal(t, 1, inner.calls)
	assert.Equal(t, time.Minute, kv.ttls[CacheKey("Nowhere Cafe", "Austin, TX, USA")])
}

func TestCachedService_ErrorsAreNotCached(t *testing.T) {
	inner := &countingPlaces{err: context.DeadlineExceeded}
	kv := newMockKVStorage()
	svc := NewCachedService(inner, kv, cacheConfig(), createTestLogger())

	_, err := svc.LookupBusiness(context.Background(), "Uchi", "Austin", nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, kv.data)
}

func TestCachedService_StorageFailureFallsThrough(t *testing.T) {
	inner := &countingPlaces{place: &models.EnrichedPlace{PlaceCandidate: models.PlaceCandidate{ID: "p1"}}}
	kv := newMockKVStorage()
	kv.getErr = errors.New("disk unavailable")
	svc := NewCachedService(inner, kv, cacheConfig(), createTestLogger())

	got, err := svc.LookupBusiness(context.Background(), "Uchi", "Austin", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, inner.calls)
}

func TestCachedService_CorruptEntryIsReplaced(t *testing.T) {
	inner := &countingPlaces{place: &models.EnrichedPlace{PlaceCandidate: models.PlaceCandidate{ID: "p1"}}}
	kv := newMockKVStorage()
	kv.data[CacheKey("Uchi", "Austin, TX, USA")] = "{not json"
	svc := NewCachedService(inner, kv, cacheConfig(), createTestLogger())

	got, err := svc.LookupBusiness(context.Background(), "Uchi", "Austin", nil)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, inner.calls)
	assert.Contains(t, kv.data[CacheKey("Uchi", "Austin, TX, USA")], `"found":true`)
}

func TestCachedService_EquivalentLocationsShareEntry(t *testing.T) {
	inner := &countingPlaces{place: &models.EnrichedPlace{PlaceCandidate: models.PlaceCandidate{ID: "p1", DisplayName: "Uchi"}}}
	kv := newMockKVStorage()
	svc := NewCachedService(inner, kv, cacheConfig(), createTestLogger())
	ctx := context.Background()

	assert.Equal(t, svc.Key("Uchi", "Austin"), svc.Key("Uchi", "Austin, TX, USA"))
	assert.Equal(t, svc.Key("Uchi", ""), svc.Key("Uchi", "near me"))
	assert.NotEqual(t, svc.Key("Uchi", "Austin"), svc.Key("Uchi", "Houston"))

	for _, hint := range []string{"Austin", "Austin, TX, USA", " austin "} {
		got, err := svc.LookupBusiness(ctx, "Uchi", hint, nil)
		require.NoError(t, err)
		require.NotNil(t, got)
	}

	assert.Equal(t, 1, inner.calls)
	assert.Len(t, kv.data, 1)
}
