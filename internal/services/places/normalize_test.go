package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeLocation(t *testing.T) {
	const fallback = "Austin, TX, USA"

	tests := []struct {
		name string
		hint string
		want string
	}{
		{"Empty hint", "", fallback},
		{"Whitespace hint", "   ", fallback},
		{"Current location sentinel", "Current Location", fallback},
		{"Near me sentinel", "near me", fallback},
		{"Known city", "austin", "Austin, TX, USA"},
		{"Known city with padding", "  NYC ", "New York, NY, USA"},
		{"Already qualified", "Portland, OR", "Portland, OR"},
		{"Unknown bare city", "Boise", "Boise, USA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeLocation(tt.hint, fallback, "USA"))
		})
	}
}

func TestNormalizeLocation_NoCountrySuffix(t *testing.T) {
	assert.Equal(t, "Boise", NormalizeLocation("Boise", "Austin, TX, USA", ""))
}

func TestCleanBusinessName(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Meal opener", "Lunch at Franklin Barbecue", "Franklin Barbecue"},
		{"Meal opener case insensitive", "DINNER AT Uchi", "Uchi"},
		{"Activity opener", "Explore Zilker Botanical Garden", "Zilker Botanical Garden"},
		{"Multi word activity opener", "Check out BookPeople", "BookPeople"},
		{"Generic at phrase", "Sunset cocktails at Summit Rooftop", "Summit Rooftop"},
		{"Plain name untouched", "Barton Springs Pool", "Barton Springs Pool"},
		{"Trims whitespace", "  Uchi  ", "Uchi"},
		{"Empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanBusinessName(tt.input))
		})
	}
}
