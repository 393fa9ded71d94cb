package main

import (
	"fmt"
	"strings"

	"github.com/ternarybob/outing/internal/models"
)

// formatGenerationResult formats a generated itinerary as markdown
func formatGenerationResult(result *models.GenerationResult) string {
	var sb strings.Builder
	itinerary := result.Itinerary

	sb.WriteString(fmt.Sprintf("## %s\n\n", itinerary.Title))
	if itinerary.Description != "" {
		sb.WriteString(itinerary.Description + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("**Duration:** %s  \n**Cost:** %s\n\n", itinerary.EstimatedDuration, itinerary.EstimatedCost))

	if result.Degraded {
		sb.WriteString("_The planner is unavailable right now; this is a placeholder itinerary._\n\n")
	}

	for i, step := range itinerary.Steps {
		sb.WriteString(formatStep(i+1, step))
	}

	if stats := result.FilterStats; stats != nil && stats.RemovedCount > 0 {
		sb.WriteString(fmt.Sprintf("_%d step(s) rated below %.1f were removed._\n", stats.RemovedCount, stats.MinRatingApplied))
	}

	return sb.String()
}

// formatStep formats a single itinerary step as markdown
func formatStep(n int, step models.ItineraryStep) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("### %d. %s", n, step.Title))
	if step.Time != "" {
		sb.WriteString(fmt.Sprintf(" (%s)", step.Time))
	}
	sb.WriteString("\n")

	if step.BusinessName != "" {
		status := "unverified"
		if step.Validated {
			status = "verified"
		}
		sb.WriteString(fmt.Sprintf("**Business:** %s (%s)\n", step.BusinessName, status))
	}
	if step.Location != "" {
		sb.WriteString(fmt.Sprintf("**Location:** %s\n", step.Location))
	}
	if step.Rating != nil {
		line := fmt.Sprintf("**Rating:** %.1f", *step.Rating)
		if step.UserRatingsTotal != nil {
			line += fmt.Sprintf(" (%d reviews)", *step.UserRatingsTotal)
		}
		sb.WriteString(line + "\n")
	}
	if step.BusinessPhone != "" {
		sb.WriteString(fmt.Sprintf("**Phone:** %s\n", step.BusinessPhone))
	}
	if step.BusinessWebsite != "" {
		sb.WriteString(fmt.Sprintf("**Website:** %s\n", step.BusinessWebsite))
	}
	if step.BusinessHours != "" {
		sb.WriteString(fmt.Sprintf("**Hours:** %s\n", step.BusinessHours))
	}
	if step.GoogleMapsURL != "" {
		sb.WriteString(fmt.Sprintf("**Map:** %s\n", step.GoogleMapsURL))
	}
	if step.ValidationError != "" {
		sb.WriteString(fmt.Sprintf("**Note:** %s\n", step.ValidationError))
	}
	if step.Notes != "" {
		sb.WriteString("\n" + step.Notes + "\n")
	}
	sb.WriteString("\n")

	return sb.String()
}

// formatPlace formats a resolved business as markdown
func formatPlace(place *models.EnrichedPlace) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("## %s\n", place.DisplayName))
	sb.WriteString(fmt.Sprintf("**Address:** %s\n", place.FormattedAddress))
	sb.WriteString(fmt.Sprintf("**Place ID:** %s (%s)\n", place.ID, place.Source))
	if place.Rating != nil {
		sb.WriteString(fmt.Sprintf("**Rating:** %.1f\n", *place.Rating))
	}
	if phone := place.Phone(); phone != "" {
		sb.WriteString(fmt.Sprintf("**Phone:** %s\n", phone))
	}
	if place.Website != "" {
		sb.WriteString(fmt.Sprintf("**Website:** %s\n", place.Website))
	}
	if place.MapsURI != "" {
		sb.WriteString(fmt.Sprintf("**Map:** %s\n", place.MapsURI))
	}
	if place.OpeningHours != nil && len(place.OpeningHours.WeekdayDescriptions) > 0 {
		sb.WriteString("**Hours:**\n")
		for _, line := range place.OpeningHours.WeekdayDescriptions {
			sb.WriteString("- " + line + "\n")
		}
	}
	if place.PhotoURL != "" {
		sb.WriteString(fmt.Sprintf("**Photo:** %s\n", place.PhotoURL))
	}

	return sb.String()
}
