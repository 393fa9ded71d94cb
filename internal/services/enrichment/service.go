package enrichment

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
	"github.com/ternarybob/outing/internal/ratelimit"
	"golang.org/x/time/rate"
)

const (
	// ErrMessageNotFound marks a step whose business could not be matched
	ErrMessageNotFound = "Business not found in Google Places"

	// ErrMessageRateLimited marks a step skipped because the lookup queue was full
	ErrMessageRateLimited = "Business lookup skipped: rate limit queue full"

	hoursSeparator = "; "
)

var _ interfaces.StepEnricher = (*Service)(nil)

// Service merges authoritative place records into itinerary steps
type Service struct {
	places    interfaces.PlacesService
	stepDelay time.Duration
	logger    arbor.ILogger
}

// NewService creates an enrichment service. stepDelay is the pause between
// consecutive lookups in EnrichSteps.
func NewService(places interfaces.PlacesService, stepDelay time.Duration, logger arbor.ILogger) *Service {
	return &Service{
		places:    places,
		stepDelay: stepDelay,
		logger:    logger,
	}
}

// EnrichStep resolves the step's business and returns an enriched copy.
// Steps without a business name are returned unchanged.
func (s *Service) EnrichStep(ctx context.Context, step models.ItineraryStep, locationLabel string) (models.ItineraryStep, error) {
	return s.enrichStep(ctx, step, locationLabel, nil)
}

// EnrichSteps enriches steps strictly in order, pausing between lookups.
// A step whose lookup is rejected by a full queue is marked unvalidated and
// the batch continues; cancellation aborts the batch.
func (s *Service) EnrichSteps(ctx context.Context, steps []models.ItineraryStep, locationLabel string, bias *models.LocationBias) ([]models.ItineraryStep, error) {
	enriched := make([]models.ItineraryStep, 0, len(steps))

	var pacer *rate.Limiter
	if s.stepDelay > 0 {
		pacer = rate.NewLimiter(rate.Every(s.stepDelay), 1)
	}

	validated := 0
	for i, step := range steps {
		if strings.TrimSpace(step.BusinessName) == "" {
			enriched = append(enriched, step)
			continue
		}

		if pacer != nil {
			if err := pacer.Wait(ctx); err != nil {
				return nil, err
			}
		}

		result, err := s.enrichStep(ctx, step, locationLabel, bias)
		if err != nil {
			if !errors.Is(err, ratelimit.ErrQueueFull) {
				return nil, err
			}
			s.logger.Warn().
				Int("step", i).
				Str("business", step.BusinessName).
				Msg("Lookup queue full, leaving step unvalidated")
			result = markUnvalidated(step, ErrMessageRateLimited)
		}

		if result.Validated {
			validated++
		}
		enriched = append(enriched, result)
	}

	s.logger.Info().
		Int("steps", len(steps)).
		Int("validated", validated).
		Str("location", locationLabel).
		Msg("Itinerary steps enriched")

	return enriched, nil
}

func (s *Service) enrichStep(ctx context.Context, step models.ItineraryStep, locationLabel string, bias *models.LocationBias) (models.ItineraryStep, error) {
	if strings.TrimSpace(step.BusinessName) == "" {
		return step, nil
	}

	place, err := s.places.LookupBusiness(ctx, step.BusinessName, locationLabel, bias)
	if err != nil {
		return step, err
	}

	if place == nil {
		s.logger.Debug().Str("business", step.BusinessName).Msg("Business not validated")
		return markUnvalidated(step, ErrMessageNotFound), nil
	}

	return Merge(step, place), nil
}

// Merge returns a copy of step with business fields overridden by the values
// place supplies. Fields the record leaves empty keep the step's value.
// Applying it twice with the same record yields the same step.
func Merge(step models.ItineraryStep, place *models.EnrichedPlace) models.ItineraryStep {
	out := step

	if place.FormattedAddress != "" {
		out.Location = place.FormattedAddress
	}
	if place.DisplayName != "" {
		out.BusinessName = place.DisplayName
	}
	if place.Rating != nil {
		out.Rating = copyPtr(place.Rating)
	}
	if place.UserRatingCount != nil {
		out.UserRatingsTotal = copyPtr(place.UserRatingCount)
	}
	if place.PriceLevel != nil {
		out.PriceLevel = copyPtr(place.PriceLevel)
	}
	if phone := place.Phone(); phone != "" {
		out.BusinessPhone = phone
	}
	if place.Website != "" {
		out.BusinessWebsite = place.Website
	}
	if place.MapsURI != "" {
		out.GoogleMapsURL = place.MapsURI
	}
	if place.PhotoURL != "" {
		out.PhotoURL = place.PhotoURL
	}

	var weekdays []string
	if place.OpeningHours != nil {
		weekdays = append([]string(nil), place.OpeningHours.WeekdayDescriptions...)
		if len(weekdays) > 0 {
			out.BusinessHours = strings.Join(weekdays, hoursSeparator)
		}
		if place.OpeningHours.OpenNow != nil {
			out.CurrentlyOpen = copyPtr(place.OpeningHours.OpenNow)
		}
	}

	out.GooglePlaces = &models.GooglePlacesSnapshot{
		PlaceID:      place.ID,
		Name:         place.DisplayName,
		Address:      place.FormattedAddress,
		Rating:       copyPtr(place.Rating),
		Types:        append([]string(nil), place.Types...),
		PhotoURL:     place.PhotoURL,
		OpeningHours: weekdays,
		Timestamp:    place.RetrievedAt,
	}

	out.Validated = true
	out.ValidationError = ""

	return out
}

// markUnvalidated returns a copy of step flagged with reason; every other field is preserved
func markUnvalidated(step models.ItineraryStep, reason string) models.ItineraryStep {
	out := step
	out.Validated = false
	out.ValidationError = reason
	return out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
