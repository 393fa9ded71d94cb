package models

import "time"

// LatLng represents geographic coordinates
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// LocationBias is a circular search bias
type LocationBias struct {
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	RadiusMeters float64 `json:"radius_meters,omitempty"`
}

// BusinessStatusOperational is the only business status that survives filtering
const BusinessStatusOperational = "OPERATIONAL"

// PlaceSource records which Places API generation produced a record
type PlaceSource string

const (
	PlaceSourcePrimary PlaceSource = "primary"
	PlaceSourceLegacy  PlaceSource = "legacy"
)

// PlaceCandidate is an unranked text search result
type PlaceCandidate struct {
	ID               string      `json:"id"`
	DisplayName      string      `json:"display_name"`
	FormattedAddress string      `json:"formatted_address"`
	Location         *LatLng     `json:"location,omitempty"`
	Types            []string    `json:"types,omitempty"`
	Rating           *float64    `json:"rating,omitempty"`
	UserRatingCount  *int        `json:"user_rating_count,omitempty"`
	PriceLevel       *int        `json:"price_level,omitempty"`
	BusinessStatus   string      `json:"business_status,omitempty"`
	Source           PlaceSource `json:"source"`
}

// IsOperational reports whether the candidate is open for business.
// A missing status counts as operational.
func (c PlaceCandidate) IsOperational() bool {
	return c.BusinessStatus == "" || c.BusinessStatus == BusinessStatusOperational
}

// PhotoRef is an unresolved photo reference tagged with the backend that issued it
type PhotoRef struct {
	Name   string      `json:"name"`
	Source PlaceSource `json:"source,omitempty"`
}

// OpeningHours holds the human readable schedule of a place
type OpeningHours struct {
	OpenNow             *bool    `json:"open_now,omitempty"`
	WeekdayDescriptions []string `json:"weekday_descriptions,omitempty"`
}

// EnrichedPlace is the authoritative record for a resolved business
type EnrichedPlace struct {
	PlaceCandidate
	NationalPhone      string        `json:"national_phone,omitempty"`
	InternationalPhone string        `json:"international_phone,omitempty"`
	Website            string        `json:"website,omitempty"`
	MapsURI            string        `json:"maps_uri,omitempty"`
	OpeningHours       *OpeningHours `json:"opening_hours,omitempty"`
	Photos             []PhotoRef    `json:"photos,omitempty"`
	PhotoURL           string        `json:"photo_url,omitempty"`
	RetrievedAt        time.Time     `json:"retrieved_at"`
}

// Phone returns the national number, falling back to the international one
func (p *EnrichedPlace) Phone() string {
	if p.NationalPhone != "" {
		return p.NationalPhone
	}
	return p.InternationalPhone
}
