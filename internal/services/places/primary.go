package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ternarybob/outing/internal/models"
)

const (
	searchFieldMask = "places.id,places.displayName,places.formattedAddress,places.location,places.types," +
		"places.rating,places.userRatingCount,places.priceLevel,places.businessStatus"
	detailsFieldMask = "id,displayName,formattedAddress,location,types,rating,userRatingCount,priceLevel," +
		"businessStatus,nationalPhoneNumber,internationalPhoneNumber,websiteUri,googleMapsUri," +
		"regularOpeningHours,currentOpeningHours,photos"
)

// primaryBackend talks to the v1 Places API
type primaryBackend struct {
	baseURL string
	t       *transport
}

func (b *primaryBackend) Source() models.PlaceSource {
	return models.PlaceSourcePrimary
}

func (b *primaryBackend) newRequest(ctx context.Context, method, endpoint, fieldMask string, body interface{}) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Goog-Api-Key", b.t.apiKey)
	if fieldMask != "" {
		req.Header.Set("X-Goog-FieldMask", fieldMask)
	}
	return req, nil
}

// Search calls POST /places:searchText
func (b *primaryBackend) Search(ctx context.Context, query searchQuery) ([]models.PlaceCandidate, error) {
	body := searchTextRequest{
		TextQuery: query.Text,
		PageSize:  query.PageSize,
	}
	if query.Bias != nil {
		body.LocationBias = &locationBias{Circle: circle{
			Center: latLng{Latitude: query.Bias.Latitude, Longitude: query.Bias.Longitude},
			Radius: query.Bias.RadiusMeters,
		}}
	}

	endpoint := b.baseURL + "/places:searchText"
	req, err := b.newRequest(ctx, http.MethodPost, endpoint, searchFieldMask, body)
	if err != nil {
		return nil, err
	}

	b.t.logger.Debug().
		Str("url", endpoint).
		Str("query", query.Text).
		Bool("biased", query.Bias != nil).
		Msg("Calling Places searchText")

	var resp searchTextResponse
	if err := b.t.doJSON(ctx, req, "places:searchText", &resp); err != nil {
		return nil, err
	}

	candidates := make([]models.PlaceCandidate, 0, len(resp.Places))
	for _, p := range resp.Places {
		candidates = append(candidates, p.toCandidate())
	}
	return candidates, nil
}

// Details calls GET /places/{id}
func (b *primaryBackend) Details(ctx context.Context, placeID string) (*models.EnrichedPlace, error) {
	endpoint := b.baseURL + "/places/" + url.PathEscape(placeID)
	req, err := b.newRequest(ctx, http.MethodGet, endpoint, detailsFieldMask, nil)
	if err != nil {
		return nil, err
	}

	b.t.logger.Debug().Str("url", endpoint).Msg("Calling Places details")

	var p place
	if err := b.t.doJSON(ctx, req, "places/details", &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, nil
	}

	return p.toEnriched(), nil
}

// Photo calls GET /{photoName}/media with skipHttpRedirect so the URL comes back as JSON
func (b *primaryBackend) Photo(ctx context.Context, reference string, maxWidth int) (string, error) {
	params := url.Values{}
	params.Set("maxWidthPx", strconv.Itoa(maxWidth))
	params.Set("skipHttpRedirect", "true")

	endpoint := fmt.Sprintf("%s/%s/media?%s", b.baseURL, strings.TrimPrefix(reference, "/"), params.Encode())
	req, err := b.newRequest(ctx, http.MethodGet, endpoint, "", nil)
	if err != nil {
		return "", err
	}

	var resp photoMediaResponse
	if err := b.t.doJSON(ctx, req, "places/photo", &resp); err != nil {
		return "", err
	}
	return resp.PhotoURI, nil
}

func (p place) toCandidate() models.PlaceCandidate {
	c := models.PlaceCandidate{
		ID:               p.ID,
		FormattedAddress: p.FormattedAddress,
		Types:            p.Types,
		Rating:           p.Rating,
		UserRatingCount:  p.UserRatingCount,
		BusinessStatus:   p.BusinessStatus,
		Source:           models.PlaceSourcePrimary,
	}
	if p.DisplayName != nil {
		c.DisplayName = p.DisplayName.Text
	}
	if p.Location != nil {
		c.Location = &models.LatLng{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude}
	}
	if level, ok := priceLevels[p.PriceLevel]; ok {
		c.PriceLevel = &level
	}
	return c
}

func (p place) toEnriched() *models.EnrichedPlace {
	enriched := &models.EnrichedPlace{
		PlaceCandidate:     p.toCandidate(),
		NationalPhone:      p.NationalPhoneNumber,
		InternationalPhone: p.InternationalPhoneNumber,
		Website:            p.WebsiteURI,
		MapsURI:            p.GoogleMapsURI,
	}

	hours := p.CurrentOpeningHours
	if hours == nil || len(hours.WeekdayDescriptions) == 0 {
		hours = p.RegularOpeningHours
	}
	if hours != nil {
		enriched.OpeningHours = &models.OpeningHours{
			OpenNow:             hours.OpenNow,
			WeekdayDescriptions: hours.WeekdayDescriptions,
		}
		// currentOpeningHours carries the live flag even when the schedule comes from regular hours
		if enriched.OpeningHours.OpenNow == nil && p.CurrentOpeningHours != nil {
			enriched.OpeningHours.OpenNow = p.CurrentOpeningHours.OpenNow
		}
	}

	for _, ph := range p.Photos {
		enriched.Photos = append(enriched.Photos, models.PhotoRef{Name: ph.Name, Source: models.PlaceSourcePrimary})
	}
	return enriched
}
