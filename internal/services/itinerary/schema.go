package itinerary

// SchemaName names the itinerary schema in schema-constrained requests
const SchemaName = "outing_itinerary"

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func object(properties map[string]interface{}, order ...string) map[string]interface{} {
	required := make([]interface{}, len(order))
	for i, name := range order {
		required[i] = name
	}
	return map[string]interface{}{
		"type":                 "object",
		"properties":           properties,
		"required":             required,
		"additionalProperties": false,
	}
}

// Schema returns the JSON schema the structured attempt constrains output to.
// Every property is required so the schema is valid in strict mode; optional
// values are returned as empty strings. A new map is built on each call.
func Schema() map[string]interface{} {
	booking := object(map[string]interface{}{
		"method":   stringProp("How to reserve: reservation, tickets, walk-in or none"),
		"link":     stringProp("Booking URL, empty when unknown"),
		"fallback": stringProp("What to do if booking is unavailable, empty when not needed"),
	}, "method", "link", "fallback")

	step := object(map[string]interface{}{
		"time":          stringProp("Start time, e.g. 10:30 AM"),
		"title":         stringProp("Short activity title"),
		"location":      stringProp("Neighborhood or address"),
		"business_name": stringProp("Exact business name for a specific venue, empty for public spaces"),
		"notes":         stringProp("Practical tips for this step"),
		"booking":       booking,
	}, "time", "title", "location", "business_name", "notes", "booking")

	return object(map[string]interface{}{
		"title":             stringProp("Catchy outing title"),
		"description":       stringProp("One or two sentence summary"),
		"estimatedDuration": stringProp("Total duration, e.g. 4 hours"),
		"estimatedCost":     stringProp("Cost range per person, e.g. $40-60"),
		"steps": map[string]interface{}{
			"type":        "array",
			"description": "Steps in chronological order",
			"items":       step,
		},
	}, "title", "description", "estimatedDuration", "estimatedCost", "steps")
}
