package places

import (
	"fmt"
	"net/http"
)

// APIError represents a non-success response from a Places endpoint
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("places API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// IsForbidden reports an authorization failure, the trigger for the legacy fallback
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// --- v1 API (places.googleapis.com/v1) ---

// searchTextRequest is the body of POST /places:searchText
type searchTextRequest struct {
	TextQuery    string        `json:"textQuery"`
	PageSize     int           `json:"pageSize,omitempty"`
	LocationBias *locationBias `json:"locationBias,omitempty"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type circle struct {
	Center latLng  `json:"center"`
	Radius float64 `json:"radius"`
}

type latLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type localizedText struct {
	Text         string `json:"text"`
	LanguageCode string `json:"languageCode,omitempty"`
}

// searchTextResponse is the response of POST /places:searchText
type searchTextResponse struct {
	Places []place `json:"places"`
}

// place is a v1 Place resource restricted to the requested field mask
type place struct {
	ID                       string         `json:"id"`
	DisplayName              *localizedText `json:"displayName,omitempty"`
	FormattedAddress         string         `json:"formattedAddress,omitempty"`
	Location                 *latLng        `json:"location,omitempty"`
	Types                    []string       `json:"types,omitempty"`
	Rating                   *float64       `json:"rating,omitempty"`
	UserRatingCount          *int           `json:"userRatingCount,omitempty"`
	PriceLevel               string         `json:"priceLevel,omitempty"`
	BusinessStatus           string         `json:"businessStatus,omitempty"`
	NationalPhoneNumber      string         `json:"nationalPhoneNumber,omitempty"`
	InternationalPhoneNumber string         `json:"internationalPhoneNumber,omitempty"`
	WebsiteURI               string         `json:"websiteUri,omitempty"`
	GoogleMapsURI            string         `json:"googleMapsUri,omitempty"`
	RegularOpeningHours      *openingHours  `json:"regularOpeningHours,omitempty"`
	CurrentOpeningHours      *openingHours  `json:"currentOpeningHours,omitempty"`
	Photos                   []photo        `json:"photos,omitempty"`
}

type openingHours struct {
	OpenNow             *bool    `json:"openNow,omitempty"`
	WeekdayDescriptions []string `json:"weekdayDescriptions,omitempty"`
}

type photo struct {
	Name     string `json:"name"`
	WidthPx  int    `json:"widthPx,omitempty"`
	HeightPx int    `json:"heightPx,omitempty"`
}

// photoMediaResponse is returned by GET /{photo}/media?skipHttpRedirect=true
type photoMediaResponse struct {
	Name     string `json:"name"`
	PhotoURI string `json:"photoUri"`
}

// v1 price levels mapped onto the legacy 0-4 scale
var priceLevels = map[string]int{
	"PRICE_LEVEL_FREE":           0,
	"PRICE_LEVEL_INEXPENSIVE":    1,
	"PRICE_LEVEL_MODERATE":       2,
	"PRICE_LEVEL_EXPENSIVE":      3,
	"PRICE_LEVEL_VERY_EXPENSIVE": 4,
}

// --- legacy API (maps.googleapis.com/maps/api/place) ---

// legacyStatusOK and legacyStatusZeroResults are the non-error legacy statuses
const (
	legacyStatusOK          = "OK"
	legacyStatusZeroResults = "ZERO_RESULTS"
)

// legacyTextSearchResponse represents the legacy Text Search response
type legacyTextSearchResponse struct {
	Results      []legacyPlace `json:"results"`
	Status       string        `json:"status"`
	ErrorMessage string        `json:"error_message,omitempty"`
}

// legacyDetailsResponse represents the legacy Place Details response
type legacyDetailsResponse struct {
	Result       *legacyPlace `json:"result"`
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message,omitempty"`
}

// legacyPlace represents a single place in legacy search and details responses
type legacyPlace struct {
	PlaceID                  string              `json:"place_id"`
	Name                     string              `json:"name"`
	FormattedAddress         string              `json:"formatted_address,omitempty"`
	Geometry                 *legacyGeometry     `json:"geometry,omitempty"`
	Types                    []string            `json:"types,omitempty"`
	Rating                   *float64            `json:"rating,omitempty"`
	UserRatingsTotal         *int                `json:"user_ratings_total,omitempty"`
	PriceLevel               *int                `json:"price_level,omitempty"`
	BusinessStatus           string              `json:"business_status,omitempty"`
	FormattedPhoneNumber     string              `json:"formatted_phone_number,omitempty"`
	InternationalPhoneNumber string              `json:"international_phone_number,omitempty"`
	Website                  string              `json:"website,omitempty"`
	URL                      string              `json:"url,omitempty"`
	OpeningHours             *legacyOpeningHours `json:"opening_hours,omitempty"`
	Photos                   []legacyPhoto       `json:"photos,omitempty"`
}

type legacyGeometry struct {
	Location *legacyLatLng `json:"location,omitempty"`
}

type legacyLatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type legacyOpeningHours struct {
	OpenNow     *bool    `json:"open_now,omitempty"`
	WeekdayText []string `json:"weekday_text,omitempty"`
}

type legacyPhoto struct {
	PhotoReference string `json:"photo_reference"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
}
