package enrichment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/models"
	"github.com/ternarybob/outing/internal/ratelimit"
)

func createTestLogger() arbor.ILogger {
	return arbor.NewLogger()
}

// stubPlaces answers lookups from a map keyed by business name
type stubPlaces struct {
	mu      sync.Mutex
	records map[string]*models.EnrichedPlace
	errs    map[string]error
	calls   []string
	hints   []string
	biases  []*models.LocationBias
}

func (s *stubPlaces) LookupBusiness(ctx context.Context, name, locationHint string, bias *models.LocationBias) (*models.EnrichedPlace, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, name)
	s.hints = append(s.hints, locationHint)
	s.biases = append(s.biases, bias)
	if err := s.errs[name]; err != nil {
		return nil, err
	}
	return s.records[name], nil
}

func ptr[T any](v T) *T { return &v }

var retrievedAt = time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC)

func franklin() *models.EnrichedPlace {
	return &models.EnrichedPlace{
		PlaceCandidate: models.PlaceCandidate{
			ID:               "ChIJ-franklin",
			DisplayName:      "Franklin Barbecue",
			FormattedAddress: "900 E 11th St, Austin, TX 78702, USA",
			Types:            []string{"restaurant"},
			Rating:           ptr(4.7),
			UserRatingCount:  ptr(9120),
			PriceLevel:       ptr(2),
		},
		NationalPhone: "(512) 653-1187",
		Website:       "https://franklinbbq.com",
		MapsURI:       "https://maps.google.com/?cid=1",
		OpeningHours: &models.OpeningHours{
			OpenNow:             ptr(true),
			WeekdayDescriptions: []string{"Monday: Closed", "Tuesday: 11:00 AM - 3:00 PM"},
		},
		PhotoURL:    "https://lh3.googleusercontent.com/franklin.jpg",
		RetrievedAt: retrievedAt,
	}
}

func lunchStep() models.ItineraryStep {
	return models.ItineraryStep{
		Time:         "12:00 PM",
		Title:        "Lunch at Franklin",
		Location:     "East Austin",
		BusinessName: "Franklin BBQ",
		Notes:        "Arrive early",
		Booking:      models.Booking{Method: "walk-in"},
	}
}

func TestEnrichStep_Success(t *testing.T) {
	places := &stubPlaces{records: map[string]*models.EnrichedPlace{"Franklin BBQ": franklin()}}
	svc := NewService(places, 0, createTestLogger())

	input := lunchStep()
	got, err := svc.EnrichStep(context.Background(), input, "Austin")
	require.NoError(t, err)

	assert.True(t, got.Validated)
	assert.Empty(t, got.ValidationError)
	assert.Equal(t, "900 E 11th St, Austin, TX 78702, USA", got.Location)
	assert.Equal(t, "Franklin Barbecue", got.BusinessName)
	assert.Equal(t, 4.7, *got.Rating)
	assert.Equal(t, 9120, *got.UserRatingsTotal)
	assert.Equal(t, 2, *got.PriceLevel)
	assert.Equal(t, "(512) 653-1187", got.BusinessPhone)
	assert.Equal(t, "https://franklinbbq.com", got.BusinessWebsite)
	assert.Equal(t, "Monday: Closed; Tuesday: 11:00 AM - 3:00 PM", got.BusinessHours)
	assert.True(t, *got.CurrentlyOpen)
	assert.Equal(t, "https://maps.google.com/?cid=1", got.GoogleMapsURL)
	assert.Equal(t, "https://lh3.googleusercontent.com/franklin.jpg", got.PhotoURL)

	require.NotNil(t, got.GooglePlaces)
	assert.Equal(t, "ChIJ-franklin", got.GooglePlaces.PlaceID)
	assert.Equal(t, retrievedAt, got.GooglePlaces.Timestamp)
	assert.Len(t, got.GooglePlaces.OpeningHours, 2)

	// Generator fields survive
	assert.Equal(t, "12:00 PM", got.Time)
	assert.Equal(t, "Lunch at Franklin", got.Title)
	assert.Equal(t, "Arrive early", got.Notes)
	assert.Equal(t, "walk-in", got.Booking.Method)

	// Input untouched
	assert.Equal(t, lunchStep(), input)
	assert.Equal(t, []string{"Austin"}, places.hints)
}

func TestEnrichStep_NotFoundPreservesFields(t *testing.T) {
	svc := NewService(&stubPlaces{}, 0, createTestLogger())

	input := lunchStep()
	input.Rating = ptr(4.0)

	got, err := svc.EnrichStep(context.Background(), input, "Austin")
	require.NoError(t, err)

	assert.False(t, got.Validated)
	assert.Equal(t, ErrMessageNotFound, got.ValidationError)
	assert.Equal(t, input.Location, got.Location)
	assert.Equal(t, input.BusinessName, got.BusinessName)
	assert.Equal(t, 4.0, *got.Rating)
	assert.Nil(t, got.GooglePlaces)
}

func TestMerge_SparseRecordKeepsSuppliedFields(t *testing.T) {
	input := lunchStep()
	input.Rating = ptr(4.4)
	input.UserRatingsTotal = ptr(120)
	input.PriceLevel = ptr(1)
	input.BusinessPhone = "(512) 555-0100"
	input.BusinessWebsite = "https://example.com/franklin"
	input.GoogleMapsURL = "https://maps.google.com/?cid=9"
	input.PhotoURL = "https://example.com/franklin.jpg"
	input.BusinessHours = "Daily 11 AM - 3 PM"
	input.CurrentlyOpen = ptr(false)

	sparse := &models.EnrichedPlace{
		PlaceCandidate: models.PlaceCandidate{
			ID:               "ChIJ-franklin",
			DisplayName:      "Franklin Barbecue",
			FormattedAddress: "900 E 11th St, Austin, TX 78702, USA",
		},
		OpeningHours: &models.OpeningHours{},
		RetrievedAt:  retrievedAt,
	}

	got := Merge(input, sparse)

	assert.True(t, got.Validated)
	assert.Equal(t, "Franklin Barbecue", got.BusinessName)
	assert.Equal(t, "900 E 11th St, Austin, TX 78702, USA", got.Location)
	require.NotNil(t, got.Rating)
	assert.Equal(t, 4.4, *got.Rating)
	require.NotNil(t, got.UserRatingsTotal)
	assert.Equal(t, 120, *got.UserRatingsTotal)
	require.NotNil(t, got.PriceLevel)
	assert.Equal(t, 1, *got.PriceLevel)
	assert.Equal(t, input.BusinessPhone, got.BusinessPhone)
	assert.Equal(t, input.BusinessWebsite, got.BusinessWebsite)
	assert.Equal(t, input.GoogleMapsURL, got.GoogleMapsURL)
	assert.Equal(t, input.PhotoURL, got.PhotoURL)
	assert.Equal(t, input.BusinessHours, got.BusinessHours)
	require.NotNil(t, got.CurrentlyOpen)
	assert.False(t, *got.CurrentlyOpen)
	require.NotNil(t, got.GooglePlaces)
	assert.Equal(t, "ChIJ-franklin", got.GooglePlaces.PlaceID)
}

func TestMerge_RecordOverridesSuppliedFields(t *testing.T) {
	input := lunchStep()
	input.Rating = ptr(3.1)
	input.BusinessWebsite = "https://stale.example.com"
	input.CurrentlyOpen = ptr(false)

	got := Merge(input, franklin())

	assert.Equal(t, 4.7, *got.Rating)
	assert.Equal(t, "https://franklinbbq.com", got.BusinessWebsite)
	assert.Equal(t, "(512) 653-1187", got.BusinessPhone)
	assert.True(t, *got.CurrentlyOpen)
	assert.Equal(t, "Monday: Closed; Tuesday: 11:00 AM - 3:00 PM", got.BusinessHours)
}

func TestEnrichStep_NoBusinessName(t *testing.T) {
	places := &stubPlaces{}
	svc := NewService(places, 0, createTestLogger())

	input := models.ItineraryStep{Time: "3:00 PM", Title: "Walk along Lady Bird Lake", Location: "Lady Bird Lake"}
	got, err := svc.EnrichStep(context.Background(), input, "Austin")
	require.NoError(t, err)

	assert.Equal(t, input, got)
	assert.Empty(t, places.calls)
}

func TestEnrichStep_Idempotent(t *testing.T) {
	places := &stubPlaces{records: map[string]*models.EnrichedPlace{
		"Franklin BBQ":      franklin(),
		"Franklin Barbecue": franklin(),
	}}
	svc := NewService(places, 0, createTestLogger())
	ctx := context.Background()

	once, err := svc.EnrichStep(ctx, lunchStep(), "Austin")
	require.NoError(t, err)
	twice, err := svc.EnrichStep(ctx, once, "Austin")
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestEnrichStep_PropagatesCallerErrors(t *testing.T) {
	places := &stubPlaces{errs: map[string]error{"Franklin BBQ": context.Canceled}}
	svc := NewService(places, 0, createTestLogger())

	_, err := svc.EnrichStep(context.Background(), lunchStep(), "Austin")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEnrichSteps_InOrderWithBias(t *testing.T) {
	places := &stubPlaces{records: map[string]*models.EnrichedPlace{"Franklin BBQ": franklin()}}
	svc := NewService(places, 0, createTestLogger())

	steps := []models.ItineraryStep{
		{Title: "Coffee", BusinessName: "Epoch Coffee"},
		{Title: "Stroll", Location: "South Congress"},
		lunchStep(),
	}
	bias := &models.LocationBias{Latitude: 30.27, Longitude: -97.74}

	got, err := svc.EnrichSteps(context.Background(), steps, "Austin", bias)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, []string{"Epoch Coffee", "Franklin BBQ"}, places.calls)
	assert.Equal(t, bias, places.biases[0])

	assert.Equal(t, "Coffee", got[0].Title)
	assert.False(t, got[0].Validated)
	assert.Equal(t, steps[1], got[1])
	assert.True(t, got[2].Validated)
}

func TestEnrichSteps_PacesLookups(t *testing.T) {
	places := &stubPlaces{}
	svc := NewService(places, 30*time.Millisecond, createTestLogger())

	steps := []models.ItineraryStep{
		{BusinessName: "A"},
		{BusinessName: "B"},
		{BusinessName: "C"},
	}

	start := time.Now()
	_, err := svc.EnrichSteps(context.Background(), steps, "Austin", nil)
	require.NoError(t, err)

	// first lookup is immediate, the next two wait one delay each
	assert.GreaterOrEqual(t, time.Since(start), 55*time.Millisecond)
}

func TestEnrichSteps_QueueFullDegradesStep(t *testing.T) {
	places := &stubPlaces{
		records: map[string]*models.EnrichedPlace{"Franklin BBQ": franklin()},
		errs:    map[string]error{"Busy Place": ratelimit.ErrQueueFull},
	}
	svc := NewService(places, 0, createTestLogger())

	steps := []models.ItineraryStep{{BusinessName: "Busy Place"}, lunchStep()}
	got, err := svc.EnrichSteps(context.Background(), steps, "Austin", nil)
	require.NoError(t, err)

	assert.False(t, got[0].Validated)
	assert.Equal(t, ErrMessageRateLimited, got[0].ValidationError)
	assert.True(t, got[1].Validated)
}

func TestEnrichSteps_CancellationAborts(t *testing.T) {
	places := &stubPlaces{errs: map[string]error{"A": context.DeadlineExceeded}}
	svc := NewService(places, 0, createTestLogger())

	_, err := svc.EnrichSteps(context.Background(), []models.ItineraryStep{{BusinessName: "A"}, {BusinessName: "B"}}, "Austin", nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, []string{"A"}, places.calls)
}
