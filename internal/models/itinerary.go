package models

import "time"

// Booking describes how a step can be reserved
type Booking struct {
	Method   string `json:"method"`
	Link     string `json:"link,omitempty"`
	Fallback string `json:"fallback,omitempty"`
}

// GooglePlacesSnapshot is the authoritative record attached to a validated step
type GooglePlacesSnapshot struct {
	PlaceID      string    `json:"place_id"`
	Name         string    `json:"name"`
	Address      string    `json:"address"`
	Rating       *float64  `json:"rating,omitempty"`
	Types        []string  `json:"types,omitempty"`
	PhotoURL     string    `json:"photo_url,omitempty"`
	OpeningHours []string  `json:"opening_hours,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// ItineraryStep is one entry of an itinerary. Fields below Booking are only
// populated by enrichment; the generator supplies the rest.
type ItineraryStep struct {
	Time         string  `json:"time"`
	Title        string  `json:"title"`
	Location     string  `json:"location"`
	BusinessName string  `json:"business_name,omitempty"`
	Notes        string  `json:"notes,omitempty"`
	Booking      Booking `json:"booking"`

	Rating           *float64              `json:"rating,omitempty"`
	UserRatingsTotal *int                  `json:"user_ratings_total,omitempty"`
	PriceLevel       *int                  `json:"price_level,omitempty"`
	BusinessPhone    string                `json:"business_phone,omitempty"`
	BusinessWebsite  string                `json:"business_website,omitempty"`
	BusinessHours    string                `json:"business_hours,omitempty"`
	CurrentlyOpen    *bool                 `json:"currently_open,omitempty"`
	GoogleMapsURL    string                `json:"google_maps_url,omitempty"`
	GooglePlaces     *GooglePlacesSnapshot `json:"google_places,omitempty"`
	Validated        bool                  `json:"validated"`
	ValidationError  string                `json:"validation_error,omitempty"`
	PhotoURL         string                `json:"photo_url,omitempty"`
}

// Itinerary is the generated multi-step plan. Step order is chronological.
type Itinerary struct {
	Title             string          `json:"title"`
	Description       string          `json:"description"`
	EstimatedDuration string          `json:"estimatedDuration"`
	EstimatedCost     string          `json:"estimatedCost"`
	Steps             []ItineraryStep `json:"steps"`
}

// GenerationFilters is the user's description of the desired outing
type GenerationFilters struct {
	Location  string   `json:"location" validate:"max=200"`
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,longitude"`
	Date      string   `json:"date,omitempty"`
	StartTime string   `json:"start_time,omitempty"`
	Duration  string   `json:"duration,omitempty"`
	Budget    string   `json:"budget,omitempty"`
	GroupSize int      `json:"group_size,omitempty" validate:"gte=0,lte=100"`
	Interests []string `json:"interests,omitempty" validate:"max=20"`
	Pace      string   `json:"pace,omitempty"`
	Notes     string   `json:"notes,omitempty" validate:"max=2000"`
}

// Bias returns a location bias centred on the request coordinates, or nil
func (f GenerationFilters) Bias(radiusMeters float64) *LocationBias {
	if f.Latitude == nil || f.Longitude == nil {
		return nil
	}
	return &LocationBias{Latitude: *f.Latitude, Longitude: *f.Longitude, RadiusMeters: radiusMeters}
}

// FilterStats reports the effect of the minimum-rating filter
type FilterStats struct {
	OriginalCount    int     `json:"original_count"`
	FilteredCount    int     `json:"filtered_count"`
	RemovedCount     int     `json:"removed_count"`
	MinRatingApplied float64 `json:"min_rating_applied"`
}

// GenerationState names a state of the generation pipeline
type GenerationState string

const (
	StateStructuredAttempt GenerationState = "structured_attempt"
	StateExtractFallback   GenerationState = "extract_fallback"
	StateLegacyAttempt     GenerationState = "legacy_attempt"
	StateEnrich            GenerationState = "enrich"
	StateDegradedResponse  GenerationState = "degraded_response"
	StateDone              GenerationState = "done"
)

// GenerationSource names the attempt that produced the itinerary JSON
type GenerationSource string

const (
	SourceStructured GenerationSource = "structured"
	SourceExtracted  GenerationSource = "extracted"
	SourceLegacy     GenerationSource = "legacy"
	SourceDegraded   GenerationSource = "degraded"
)

// GenerationResult is returned for every generation request, degraded or not
type GenerationResult struct {
	ID          string            `json:"id"`
	RequestID   string            `json:"request_id,omitempty"`
	Itinerary   Itinerary         `json:"itinerary"`
	FilterStats *FilterStats      `json:"filter_stats,omitempty"`
	Path        []GenerationState `json:"path"`
	Source      GenerationSource  `json:"source"`
	Degraded    bool              `json:"degraded"`
	GeneratedAt time.Time         `json:"generated_at"`
}
