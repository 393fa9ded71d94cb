package interfaces

import (
	"context"

	"github.com/ternarybob/outing/internal/models"
)

// PlacesService resolves a free-text business name to an authoritative record
type PlacesService interface {
	// LookupBusiness resolves name near locationHint, optionally biased to a circle.
	//
	// Returns:
	//   - *models.EnrichedPlace: the resolved record, or nil when no relevant match exists
	//   - error: only for cancellation or an exhausted rate limiter queue; upstream
	//     failures are recovered internally and surface as a nil record
	LookupBusiness(ctx context.Context, name, locationHint string, bias *models.LocationBias) (*models.EnrichedPlace, error)
}

// StepEnricher merges authoritative place data into itinerary steps
type StepEnricher interface {
	// EnrichStep returns a new step; the input is never modified
	EnrichStep(ctx context.Context, step models.ItineraryStep, locationLabel string) (models.ItineraryStep, error)

	// EnrichSteps enriches steps strictly in order
	EnrichSteps(ctx context.Context, steps []models.ItineraryStep, locationLabel string, bias *models.LocationBias) ([]models.ItineraryStep, error)
}

// ItineraryService generates enriched itineraries
type ItineraryService interface {
	GenerateItinerary(ctx context.Context, filters models.GenerationFilters) (*models.GenerationResult, error)
}
