package itinerary

import "github.com/ternarybob/outing/internal/models"

// ApplyRatingFilter keeps steps without a rating and steps rated at least
// minRating. Order is preserved.
func ApplyRatingFilter(steps []models.ItineraryStep, minRating float64) ([]models.ItineraryStep, models.FilterStats) {
	kept := make([]models.ItineraryStep, 0, len(steps))
	for _, step := range steps {
		if step.Rating == nil || *step.Rating >= minRating {
			kept = append(kept, step)
		}
	}

	return kept, models.FilterStats{
		OriginalCount:    len(steps),
		FilteredCount:    len(kept),
		RemovedCount:     len(steps) - len(kept),
		MinRatingApplied: minRating,
	}
}
