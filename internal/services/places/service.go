package places

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/common"
	"github.com/ternarybob/outing/internal/httpclient"
	"github.com/ternarybob/outing/internal/models"
	"github.com/ternarybob/outing/internal/ratelimit"
)

// Service resolves business names through the Places API, falling back to
// the legacy endpoints when the v1 API rejects the key
type Service struct {
	config     *common.PlacesConfig
	primary    backend
	legacy     backend
	relevance  RelevancePolicy
	logger     arbor.ILogger
	httpClient *http.Client
	now        func() time.Time
}

// Option configures the Service
type Option func(*Service)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(s *Service) {
		s.httpClient = httpClient
	}
}

// WithClock sets the time source used to stamp resolved records
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a Places service. Every HTTP call goes through limiter.
func NewService(config *common.PlacesConfig, limiter *ratelimit.Limiter, logger arbor.ILogger, opts ...Option) *Service {
	s := &Service{
		config: config,
		relevance: RelevancePolicy{
			MinTokenLength:     config.RelevanceMinTokenLength,
			DropZeroScoreAbove: config.RelevanceDropZeroAbove,
		},
		logger:     logger,
		httpClient: httpclient.NewDefaultHTTPClient(config.RequestTimeout),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	t := newTransport(config.APIKey, s.httpClient, limiter, logger)
	s.primary = &primaryBackend{baseURL: strings.TrimRight(config.BaseURL, "/"), t: t}
	s.legacy = &legacyBackend{baseURL: strings.TrimRight(config.LegacyBaseURL, "/"), t: t}

	return s
}

// LookupBusiness resolves name near locationHint. A nil record with a nil
// error means no authoritative data is available.
func (s *Service) LookupBusiness(ctx context.Context, name, locationHint string, bias *models.LocationBias) (*models.EnrichedPlace, error) {
	cleaned := CleanBusinessName(name)
	if cleaned == "" {
		return nil, nil
	}

	if s.config.APIKey == "" {
		s.logger.Warn().Str("business", cleaned).Msg("Places API key not configured, skipping lookup")
		return nil, nil
	}

	location := NormalizeLocation(locationHint, s.config.FallbackRegion, s.config.CountrySuffix)
	if bias != nil && bias.RadiusMeters <= 0 {
		withRadius := *bias
		withRadius.RadiusMeters = s.config.BiasRadiusMeters
		bias = &withRadius
	}

	query := searchQuery{
		Text:     fmt.Sprintf("%s in %s", cleaned, location),
		PageSize: s.config.PageSize,
		Bias:     bias,
	}

	candidates, err := s.searchWithRetry(ctx, query)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		s.logger.Info().Str("query", query.Text).Msg("No operational candidates found")
		return nil, nil
	}

	ranked := s.relevance.RankByLocation(candidates, location)
	if len(ranked) == 0 {
		s.logger.Info().
			Str("query", query.Text).
			Int("candidates", len(candidates)).
			Msg("No candidate matched the requested location")
		return nil, nil
	}
	top := ranked[0]

	details, err := s.details(ctx, top)
	if err != nil {
		return nil, err
	}
	if details == nil {
		return nil, nil
	}
	mergeCandidate(details, top)

	photoURL, err := s.resolvePhoto(ctx, details.Photos)
	if err != nil {
		return nil, err
	}
	details.PhotoURL = photoURL
	details.RetrievedAt = s.now()

	s.logger.Info().
		Str("business", cleaned).
		Str("place_id", details.ID).
		Str("name", details.DisplayName).
		Str("source", string(details.Source)).
		Bool("has_photo", photoURL != "").
		Msg("Business resolved")

	return details, nil
}

// searchWithRetry runs the text search, keeping operational candidates. An
// empty or failed first attempt is retried once after RetryDelay.
func (s *Service) searchWithRetry(ctx context.Context, query searchQuery) ([]models.PlaceCandidate, error) {
	for attempt := 0; attempt < 2; attempt++ {
		if attempt > 0 {
			if err := sleep(ctx, s.config.RetryDelay); err != nil {
				return nil, err
			}
		}

		candidates, err := withFallback(ctx, s, "search", func(b backend) ([]models.PlaceCandidate, error) {
			return b.Search(ctx, query)
		})
		if err != nil {
			if callerErr := callerError(ctx, err); callerErr != nil {
				return nil, callerErr
			}
			s.logger.Warn().
				Err(err).
				Int("attempt", attempt+1).
				Str("query", query.Text).
				Msg("Places search failed")
			continue
		}

		operational := candidates[:0:0]
		for _, c := range candidates {
			if c.IsOperational() {
				operational = append(operational, c)
			}
		}
		if len(operational) > 0 {
			return operational, nil
		}

		s.logger.Debug().
			Int("attempt", attempt+1).
			Int("raw_results", len(candidates)).
			Str("query", query.Text).
			Msg("Places search returned no operational candidates")
	}

	return nil, nil
}

// details fetches the full record from the backend that produced the candidate
func (s *Service) details(ctx context.Context, candidate models.PlaceCandidate) (*models.EnrichedPlace, error) {
	var details *models.EnrichedPlace
	var err error

	if candidate.Source == models.PlaceSourceLegacy {
		details, err = s.legacy.Details(ctx, candidate.ID)
	} else {
		details, err = withFallback(ctx, s, "details", func(b backend) (*models.EnrichedPlace, error) {
			return b.Details(ctx, candidate.ID)
		})
	}

	if err != nil {
		if callerErr := callerError(ctx, err); callerErr != nil {
			return nil, callerErr
		}
		s.logger.Warn().Err(err).Str("place_id", candidate.ID).Msg("Places details failed")
		return nil, nil
	}
	return details, nil
}

// resolvePhoto turns the first photo reference into a directly fetchable URL.
// An unresolved photo leaves the URL empty without failing the lookup.
func (s *Service) resolvePhoto(ctx context.Context, refs []models.PhotoRef) (string, error) {
	if len(refs) == 0 {
		return "", nil
	}
	ref := refs[0]
	maxWidth := s.config.PhotoMaxWidth

	var photoURL string
	var err error
	if IsLegacyPhotoReference(ref) {
		photoURL, err = s.legacy.Photo(ctx, ref.Name, maxWidth)
	} else {
		photoURL, err = withFallback(ctx, s, "photo", func(b backend) (string, error) {
			return b.Photo(ctx, ref.Name, maxWidth)
		})
	}

	if err != nil {
		if callerErr := callerError(ctx, err); callerErr != nil {
			return "", callerErr
		}
		s.logger.Warn().Err(err).Msg("Photo could not be resolved")
		return "", nil
	}
	return photoURL, nil
}

// IsLegacyPhotoReference reports whether ref must be resolved by the legacy
// photo endpoint. Provenance decides; the "places/" resource-name prefix is
// only consulted when the source is unknown.
func IsLegacyPhotoReference(ref models.PhotoRef) bool {
	switch ref.Source {
	case models.PlaceSourceLegacy:
		return true
	case models.PlaceSourcePrimary:
		return false
	default:
		return !strings.HasPrefix(ref.Name, "places/")
	}
}

// withFallback calls the primary backend and repeats the call against the
// legacy backend when the primary answers 403
func withFallback[T any](ctx context.Context, s *Service, stage string, call func(b backend) (T, error)) (T, error) {
	result, err := call(s.primary)
	if err == nil {
		return result, nil
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsForbidden() && ctx.Err() == nil {
		s.logger.Warn().
			Str("stage", stage).
			Str("endpoint", apiErr.Endpoint).
			Msg("Primary Places endpoint denied request, using legacy endpoint")
		return call(s.legacy)
	}

	return result, err
}

// callerError returns the error that must reach the caller, or nil when err
// is an upstream failure to be absorbed
func callerError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, ratelimit.ErrQueueFull) || errors.Is(err, ratelimit.ErrClosed) {
		return err
	}
	return nil
}

// mergeCandidate fills fields the details response omitted from the search candidate
func mergeCandidate(details *models.EnrichedPlace, candidate models.PlaceCandidate) {
	if details.ID == "" {
		details.ID = candidate.ID
	}
	if details.DisplayName == "" {
		details.DisplayName = candidate.DisplayName
	}
	if details.FormattedAddress == "" {
		details.FormattedAddress = candidate.FormattedAddress
	}
	if details.Location == nil {
		details.Location = candidate.Location
	}
	if len(details.Types) == 0 {
		details.Types = candidate.Types
	}
	if details.Rating == nil {
		details.Rating = candidate.Rating
	}
	if details.UserRatingCount == nil {
		details.UserRatingCount = candidate.UserRatingCount
	}
	if details.PriceLevel == nil {
		details.PriceLevel = candidate.PriceLevel
	}
	if details.BusinessStatus == "" {
		details.BusinessStatus = candidate.BusinessStatus
	}
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
