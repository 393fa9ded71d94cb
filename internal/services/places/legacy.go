package places

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/ternarybob/outing/internal/models"
)

const legacyDetailsFields = "place_id,name,formatted_address,geometry,types,rating,user_ratings_total,price_level," +
	"business_status,formatted_phone_number,international_phone_number,website,url,opening_hours,photos"

// legacyBackend talks to the maps/api/place endpoints. The API key travels
// in the query string, so logged URLs are redacted.
type legacyBackend struct {
	baseURL string
	t       *transport
}

func (b *legacyBackend) Source() models.PlaceSource {
	return models.PlaceSourceLegacy
}

func (b *legacyBackend) get(ctx context.Context, path string, params url.Values) (*http.Request, error) {
	logURL := fmt.Sprintf("%s%s?%s&key=***REDACTED***", b.baseURL, path, params.Encode())
	b.t.logger.Debug().Str("url", logURL).Msg("Calling legacy Places API")

	params.Set("key", b.t.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s%s?%s", b.baseURL, path, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// Search calls textsearch/json
func (b *legacyBackend) Search(ctx context.Context, query searchQuery) ([]models.PlaceCandidate, error) {
	params := url.Values{}
	params.Set("query", query.Text)
	if query.Bias != nil {
		params.Set("location", fmt.Sprintf("%f,%f", query.Bias.Latitude, query.Bias.Longitude))
		params.Set("radius", strconv.Itoa(int(query.Bias.RadiusMeters)))
	}

	req, err := b.get(ctx, "/textsearch/json", params)
	if err != nil {
		return nil, err
	}

	var resp legacyTextSearchResponse
	if err := b.t.doJSON(ctx, req, "textsearch", &resp); err != nil {
		return nil, err
	}
	if resp.Status != legacyStatusOK && resp.Status != legacyStatusZeroResults {
		return nil, legacyStatusError("textsearch", resp.Status, resp.ErrorMessage)
	}

	results := resp.Results
	if query.PageSize > 0 && len(results) > query.PageSize {
		results = results[:query.PageSize]
	}

	candidates := make([]models.PlaceCandidate, 0, len(results))
	for _, p := range results {
		candidates = append(candidates, p.toCandidate())
	}
	return candidates, nil
}

// Details calls details/json keyed by place_id
func (b *legacyBackend) Details(ctx context.Context, placeID string) (*models.EnrichedPlace, error) {
	params := url.Values{}
	params.Set("place_id", placeID)
	params.Set("fields", legacyDetailsFields)

	req, err := b.get(ctx, "/details/json", params)
	if err != nil {
		return nil, err
	}

	var resp legacyDetailsResponse
	if err := b.t.doJSON(ctx, req, "details", &resp); err != nil {
		return nil, err
	}
	if resp.Status == legacyStatusZeroResults || resp.Status == "NOT_FOUND" {
		return nil, nil
	}
	if resp.Status != legacyStatusOK {
		return nil, legacyStatusError("details", resp.Status, resp.ErrorMessage)
	}
	if resp.Result == nil {
		return nil, nil
	}

	return resp.Result.toEnriched(), nil
}

// Photo requests the photo endpoint without following redirects and returns
// the CDN URL from the Location header
func (b *legacyBackend) Photo(ctx context.Context, reference string, maxWidth int) (string, error) {
	params := url.Values{}
	params.Set("maxwidth", strconv.Itoa(maxWidth))
	params.Set("photo_reference", reference)

	req, err := b.get(ctx, "/photo", params)
	if err != nil {
		return "", err
	}

	resp, err := b.t.do(ctx, req, false)
	if err != nil {
		return "", fmt.Errorf("failed to call photo: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusMovedPermanently, http.StatusFound:
		return resp.Header.Get("Location"), nil
	default:
		return "", &APIError{StatusCode: resp.StatusCode, Message: "expected redirect", Endpoint: "photo"}
	}
}

func legacyStatusError(endpoint, status, message string) error {
	code := http.StatusBadGateway
	if status == "REQUEST_DENIED" {
		code = http.StatusForbidden
	}
	return &APIError{StatusCode: code, Message: fmt.Sprintf("%s: %s", status, message), Endpoint: endpoint}
}

func (p legacyPlace) toCandidate() models.PlaceCandidate {
	c := models.PlaceCandidate{
		ID:               p.PlaceID,
		DisplayName:      p.Name,
		FormattedAddress: p.FormattedAddress,
		Types:            p.Types,
		Rating:           p.Rating,
		UserRatingCount:  p.UserRatingsTotal,
		PriceLevel:       p.PriceLevel,
		BusinessStatus:   p.BusinessStatus,
		Source:           models.PlaceSourceLegacy,
	}
	if p.Geometry != nil && p.Geometry.Location != nil {
		c.Location = &models.LatLng{Latitude: p.Geometry.Location.Lat, Longitude: p.Geometry.Location.Lng}
	}
	return c
}

func (p legacyPlace) toEnriched() *models.EnrichedPlace {
	enriched := &models.EnrichedPlace{
		PlaceCandidate:     p.toCandidate(),
		NationalPhone:      p.FormattedPhoneNumber,
		InternationalPhone: p.InternationalPhoneNumber,
		Website:            p.Website,
		MapsURI:            p.URL,
	}
	if p.OpeningHours != nil {
		enriched.OpeningHours = &models.OpeningHours{
			OpenNow:             p.OpeningHours.OpenNow,
			WeekdayDescriptions: p.OpeningHours.WeekdayText,
		}
	}
	for _, ph := range p.Photos {
		enriched.Photos = append(enriched.Photos, models.PhotoRef{Name: ph.PhotoReference, Source: models.PlaceSourceLegacy})
	}
	return enriched
}
