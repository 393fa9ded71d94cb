package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
)

// PlacesHandler serves business lookups and single step enrichment
type PlacesHandler struct {
	places   interfaces.PlacesService
	enricher interfaces.StepEnricher
	validate *validator.Validate
	logger   arbor.ILogger
}

// NewPlacesHandler creates a new PlacesHandler
func NewPlacesHandler(places interfaces.PlacesService, enricher interfaces.StepEnricher, validate *validator.Validate, logger arbor.ILogger) *PlacesHandler {
	return &PlacesHandler{
		places:   places,
		enricher: enricher,
		validate: validate,
		logger:   logger,
	}
}

// lookupQuery is the validated form of the lookup query string
type lookupQuery struct {
	Name     string   `validate:"required,max=200"`
	Location string   `validate:"max=200"`
	Lat      *float64 `validate:"required_with=Lng,omitempty,latitude"`
	Lng      *float64 `validate:"required_with=Lat,omitempty,longitude"`
	Radius   float64  `validate:"gte=0,lte=50000"`
}

// LookupHandler handles GET /api/places/lookup?name=&location=&lat=&lng=&radius=
func (h *PlacesHandler) LookupHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	q := r.URL.Query()
	query := lookupQuery{
		Name:     strings.TrimSpace(q.Get("name")),
		Location: strings.TrimSpace(q.Get("location")),
	}

	var err error
	if query.Lat, err = parseOptionalFloat(q.Get("lat")); err != nil {
		WriteError(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	if query.Lng, err = parseOptionalFloat(q.Get("lng")); err != nil {
		WriteError(w, http.StatusBadRequest, "lng must be a number")
		return
	}
	if radius, err := parseOptionalFloat(q.Get("radius")); err != nil {
		WriteError(w, http.StatusBadRequest, "radius must be a number")
		return
	} else if radius != nil {
		query.Radius = *radius
	}

	if err := h.validate.Struct(query); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request: "+describeValidation(err))
		return
	}

	var bias *models.LocationBias
	if query.Lat != nil && query.Lng != nil {
		bias = &models.LocationBias{Latitude: *query.Lat, Longitude: *query.Lng, RadiusMeters: query.Radius}
	}

	place, err := h.places.LookupBusiness(r.Context(), query.Name, query.Location, bias)
	if err != nil {
		WriteServiceError(w, err)
		return
	}
	if place == nil {
		WriteError(w, http.StatusNotFound, "No matching business found")
		return
	}

	WriteJSON(w, http.StatusOK, place)
}

// enrichRequest is the body of POST /api/steps/enrich
type enrichRequest struct {
	Step          models.ItineraryStep `json:"step"`
	LocationLabel string               `json:"location_label" validate:"max=200"`
}

// EnrichStepHandler handles POST /api/steps/enrich
func (h *PlacesHandler) EnrichStepHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var req enrichRequest
	if err := DecodeJSON(r, h.validate, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	step, err := h.enricher.EnrichStep(r.Context(), req.Step, req.LocationLabel)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, step)
}

func parseOptionalFloat(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
