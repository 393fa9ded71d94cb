package places

import (
	"regexp"
	"strings"
)

// currentLocationSentinels are hints that carry no usable place text
var currentLocationSentinels = map[string]bool{
	"current location": true,
	"my location":      true,
	"near me":          true,
	"nearby":           true,
}

// knownCities maps bare city names to a canonical "City, Region, Country" form
var knownCities = map[string]string{
	"austin":        "Austin, TX, USA",
	"dallas":        "Dallas, TX, USA",
	"houston":       "Houston, TX, USA",
	"san antonio":   "San Antonio, TX, USA",
	"new york":      "New York, NY, USA",
	"nyc":           "New York, NY, USA",
	"chicago":       "Chicago, IL, USA",
	"los angeles":   "Los Angeles, CA, USA",
	"san francisco": "San Francisco, CA, USA",
	"seattle":       "Seattle, WA, USA",
	"boston":        "Boston, MA, USA",
	"denver":        "Denver, CO, USA",
	"miami":         "Miami, FL, USA",
	"nashville":     "Nashville, TN, USA",
}

// NormalizeLocation turns a free-text location hint into an unambiguous
// search suffix. Empty or "current location" hints resolve to fallbackRegion.
func NormalizeLocation(hint, fallbackRegion, countrySuffix string) string {
	trimmed := strings.TrimSpace(hint)
	lower := strings.ToLower(trimmed)

	if trimmed == "" || currentLocationSentinels[lower] {
		return fallbackRegion
	}

	if canonical, ok := knownCities[lower]; ok {
		return canonical
	}

	if strings.Contains(trimmed, ",") || countrySuffix == "" {
		return trimmed
	}

	return trimmed + ", " + countrySuffix
}

var (
	// mealAtPattern strips "Lunch at", "Drinks at" and similar openers
	mealAtPattern = regexp.MustCompile(`(?i)^(breakfast|brunch|lunch|dinner|drinks|coffee|dessert|cocktails|tea|snacks)\s+at\s+`)

	// activityPattern strips imperative openers the generator likes to use
	activityPattern = regexp.MustCompile(`(?i)^(explore|visit|indulge in|enjoy|discover|experience|check out|stop by|head to|relax at|unwind at|browse)\s+`)

	// leadingAtPattern strips any short leading "... at " phrase
	leadingAtPattern = regexp.MustCompile(`(?i)^(?:[\w'&-]+\s+){1,3}at\s+`)
)

// CleanBusinessName strips generic leading phrases so the residual text is
// closer to the business's proper name
func CleanBusinessName(name string) string {
	cleaned := strings.TrimSpace(name)

	for _, pattern := range []*regexp.Regexp{mealAtPattern, activityPattern, leadingAtPattern} {
		if stripped := strings.TrimSpace(pattern.ReplaceAllString(cleaned, "")); stripped != "" {
			cleaned = stripped
		}
	}

	return cleaned
}
