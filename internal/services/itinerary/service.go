package itinerary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
	"github.com/ternarybob/outing/internal/services/jsonextract"
)

var _ interfaces.ItineraryService = (*Service)(nil)

// errUnusable marks a parsed itinerary that cannot be enriched
var errUnusable = errors.New("itinerary has no steps")

// Service runs the generation pipeline: structured attempt, extraction
// fallback, free-text attempt, then enrichment and the rating filter. When
// every attempt fails a fixed single-step itinerary is returned instead.
type Service struct {
	completion interfaces.CompletionProvider
	enricher   interfaces.StepEnricher
	config     *common.GenerationConfig
	logger     arbor.ILogger
	now        func() time.Time
}

// Option configures the Service
type Option func(*Service)

// WithClock sets the time source used to stamp results
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the generation orchestrator
func NewService(completion interfaces.CompletionProvider, enricher interfaces.StepEnricher, config *common.GenerationConfig, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		completion: completion,
		enricher:   enricher,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// run tracks one pass through the pipeline
type run struct {
	filters models.GenerationFilters
	path    []models.GenerationState
	logger  arbor.ILogger
}

func (r *run) enter(state models.GenerationState) {
	r.path = append(r.path, state)
	r.logger.Debug().Str("state", string(state)).Msg("Generation state entered")
}

// GenerateItinerary produces an itinerary for filters. Generation failures end
// in a degraded itinerary rather than an error; errors are returned only for
// cancellation or a failure while enriching.
func (s *Service) GenerateItinerary(ctx context.Context, filters models.GenerationFilters) (*models.GenerationResult, error) {
	requestID := common.RequestIDFromContext(ctx)
	logger := s.logger
	if requestID != "" {
		logger = logger.WithCorrelationId(requestID)
	}
	r := &run{filters: filters, logger: logger}

	itinerary, source, err := s.generate(ctx, r)
	if err != nil {
		return nil, err
	}

	result := &models.GenerationResult{
		ID:          common.NewItineraryID(),
		RequestID:   requestID,
		GeneratedAt: s.now(),
	}

	if itinerary == nil {
		r.enter(models.StateDegradedResponse)
		r.logger.Warn().Strs("path", pathStrings(r.path)).Msg("All generation attempts failed, returning degraded itinerary")

		result.Itinerary = DegradedItinerary(filters)
		result.Source = models.SourceDegraded
		result.Degraded = true
		result.Path = r.path
		return result, nil
	}

	r.enter(models.StateEnrich)
	label := LocationLabel(filters)
	steps, err := s.enricher.EnrichSteps(ctx, itinerary.Steps, label, filters.Bias(0))
	if err != nil {
		return nil, fmt.Errorf("failed to enrich itinerary steps: %w", err)
	}

	filtered, stats := ApplyRatingFilter(steps, s.config.MinRating)
	itinerary.Steps = filtered
	r.enter(models.StateDone)

	result.Itinerary = *itinerary
	result.FilterStats = &stats
	result.Source = source
	result.Path = r.path

	r.logger.Info().
		Str("id", result.ID).
		Str("source", string(source)).
		Int("steps", len(filtered)).
		Int("removed_by_rating", stats.RemovedCount).
		Strs("path", pathStrings(r.path)).
		Msg("Itinerary generated")

	return result, nil
}

// generate walks the attempt states and returns the first usable itinerary,
// or nil when every attempt failed
func (s *Service) generate(ctx context.Context, r *run) (*models.Itinerary, models.GenerationSource, error) {
	// StructuredAttempt
	r.enter(models.StateStructuredAttempt)
	raw, err := s.complete(ctx, &interfaces.ContentRequest{
		Messages:     BuildPrompt(r.filters),
		Model:        s.config.StructuredModel,
		Temperature:  s.config.Temperature,
		Mode:         interfaces.ResponseModeJSONSchema,
		SchemaName:   SchemaName,
		OutputSchema: Schema(),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		r.logger.Warn().Err(err).Msg("Structured completion failed")
	} else {
		itinerary, parseErr := decodeStrict(raw)
		if parseErr == nil {
			return itinerary, models.SourceStructured, nil
		}
		r.logger.Warn().Err(parseErr).Msg("Structured output did not parse, trying extraction")
	}

	// ExtractFallback
	r.enter(models.StateExtractFallback)
	itinerary, extractErr := decodeExtracted(raw)
	if extractErr == nil {
		return itinerary, models.SourceExtracted, nil
	}
	r.logger.Warn().Err(extractErr).Msg("No itinerary recovered from structured output")

	// LegacyAttempt
	r.enter(models.StateLegacyAttempt)
	raw, err = s.complete(ctx, &interfaces.ContentRequest{
		Messages:    buildLegacyPrompt(r.filters),
		Model:       s.config.LegacyModel,
		Temperature: s.config.Temperature,
		Mode:        interfaces.ResponseModeText,
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, "", ctxErr
		}
		r.logger.Warn().Err(err).Msg("Free-text completion failed")
		return nil, "", nil
	}

	itinerary, extractErr = decodeExtracted(raw)
	if extractErr != nil {
		r.logger.Warn().Err(extractErr).Msg("No itinerary recovered from free-text output")
		return nil, "", nil
	}
	return itinerary, models.SourceLegacy, nil
}

// complete calls the completion API under the per-attempt timeout
func (s *Service) complete(ctx context.Context, request *interfaces.ContentRequest) (string, error) {
	if s.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.RequestTimeout)
		defer cancel()
	}

	resp, err := s.completion.GenerateContent(ctx, request)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// decodeStrict parses raw as an itinerary without any cleanup
func decodeStrict(raw string) (*models.Itinerary, error) {
	var itinerary models.Itinerary
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &itinerary); err != nil {
		return nil, err
	}
	return usable(&itinerary)
}

// decodeExtracted recovers an itinerary embedded in prose or fences
func decodeExtracted(raw string) (*models.Itinerary, error) {
	var itinerary models.Itinerary
	if err := jsonextract.Decode(raw, &itinerary); err != nil {
		return nil, err
	}
	return usable(&itinerary)
}

func usable(itinerary *models.Itinerary) (*models.Itinerary, error) {
	if len(itinerary.Steps) == 0 {
		return nil, errUnusable
	}
	return itinerary, nil
}

// DegradedItinerary is the single-step itinerary returned when generation
// is unavailable
func DegradedItinerary(filters models.GenerationFilters) models.Itinerary {
	location := LocationLabel(filters)
	if location == "" {
		location = "Your area"
	}
	start := strings.TrimSpace(filters.StartTime)
	if start == "" {
		start = "Now"
	}

	return models.Itinerary{
		Title:             "Itinerary temporarily unavailable",
		Description:       "We couldn't plan your outing right now. Please try again in a few minutes.",
		EstimatedDuration: "N/A",
		EstimatedCost:     "N/A",
		Steps: []models.ItineraryStep{{
			Time:     start,
			Title:    "Service temporarily unavailable",
			Location: location,
			Notes:    "Our itinerary planner is busy. Your preferences were kept, so trying again shortly should work.",
			Booking:  models.Booking{Method: "none"},
		}},
	}
}

func pathStrings(path []models.GenerationState) []string {
	out := make([]string, len(path))
	for i, state := range path {
		out[i] = string(state)
	}
	return out
}
