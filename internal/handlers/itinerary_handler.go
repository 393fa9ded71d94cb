package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
)

// ItineraryHandler serves itinerary generation
type ItineraryHandler struct {
	itineraries interfaces.ItineraryService
	validate    *validator.Validate
	logger      arbor.ILogger
}

// NewItineraryHandler creates a new ItineraryHandler
func NewItineraryHandler(itineraries interfaces.ItineraryService, validate *validator.Validate, logger arbor.ILogger) *ItineraryHandler {
	return &ItineraryHandler{
		itineraries: itineraries,
		validate:    validate,
		logger:      logger,
	}
}

// GenerateHandler handles POST /api/itinerary. A degraded itinerary is still a
// 200; the result's degraded flag tells the client.
func (h *ItineraryHandler) GenerateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	var filters models.GenerationFilters
	if err := DecodeJSON(r, h.validate, &filters); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.itineraries.GenerateItinerary(r.Context(), filters)
	if err != nil {
		h.logger.Error().Err(err).Str("location", filters.Location).Msg("Itinerary generation failed")
		WriteServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, result)
}
