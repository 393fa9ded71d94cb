package itinerary

import (
	"fmt"
	"strings"

	"github.com/ternarybob/outing/internal/interfaces"
	"github.com/ternarybob/outing/internal/models"
)

const systemPrompt = `You are a local outing planner. Build a realistic itinerary of 3 to 6 steps in chronological order.
Use real, currently operating businesses and give their exact names in business_name so they can be verified.
Leave business_name empty for parks, trails and other public places.
Keep travel between consecutive steps short and respect the requested budget, pace and group size.`

// jsonOnlyInstruction is appended for the free-text attempt, which has no schema to lean on
const jsonOnlyInstruction = `Respond with JSON only. Do not wrap it in markdown or add any commentary.
The JSON object must have the keys "title", "description", "estimatedDuration", "estimatedCost" and "steps".
Each step must have "time", "title", "location", "business_name", "notes" and "booking" ({"method", "link", "fallback"}).`

// LocationLabel returns the location text used for the prompt and place lookups
func LocationLabel(filters models.GenerationFilters) string {
	return strings.TrimSpace(filters.Location)
}

// BuildPrompt renders the outing request as a system and user message pair
func BuildPrompt(filters models.GenerationFilters) []interfaces.Message {
	var b strings.Builder

	location := LocationLabel(filters)
	if location == "" {
		location = "near the user's current location"
	}
	fmt.Fprintf(&b, "Plan an outing in %s.\n", location)

	if filters.Latitude != nil && filters.Longitude != nil {
		fmt.Fprintf(&b, "Coordinates: %.5f, %.5f\n", *filters.Latitude, *filters.Longitude)
	}
	writeField(&b, "Date", filters.Date)
	writeField(&b, "Start time", filters.StartTime)
	writeField(&b, "Duration", filters.Duration)
	writeField(&b, "Budget", filters.Budget)
	if filters.GroupSize > 0 {
		fmt.Fprintf(&b, "Group size: %d\n", filters.GroupSize)
	}
	if len(filters.Interests) > 0 {
		writeField(&b, "Interests", strings.Join(filters.Interests, ", "))
	}
	writeField(&b, "Pace", filters.Pace)
	writeField(&b, "Additional notes", filters.Notes)

	return []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: strings.TrimSpace(b.String())},
	}
}

// buildLegacyPrompt is BuildPrompt with the JSON-only instruction appended
func buildLegacyPrompt(filters models.GenerationFilters) []interfaces.Message {
	messages := BuildPrompt(filters)
	last := &messages[len(messages)-1]
	last.Content = last.Content + "\n\n" + jsonOnlyInstruction
	return messages
}

func writeField(b *strings.Builder, label, value string) {
	if value = strings.TrimSpace(value); value != "" {
		fmt.Fprintf(b, "%s: %s\n", label, value)
	}
}
