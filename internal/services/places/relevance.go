package places

import (
	"sort"
	"strings"
	"unicode"

	"github.com/ternarybob/outing/internal/models"
)

// RelevancePolicy controls location-relevance filtering of search candidates
type RelevancePolicy struct {
	// MinTokenLength drops location tokens of this length or shorter ("TX", "of")
	MinTokenLength int

	// DropZeroScoreAbove drops zero-score candidates only when more than this many candidates exist
	DropZeroScoreAbove int
}

// DefaultRelevancePolicy keeps tokens longer than two characters and drops
// zero-score candidates once there is more than one to choose from
var DefaultRelevancePolicy = RelevancePolicy{MinTokenLength: 2, DropZeroScoreAbove: 1}

// locationTokens splits a normalized location on commas and whitespace
func (p RelevancePolicy) locationTokens(location string) []string {
	fields := strings.FieldsFunc(strings.ToLower(location), func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	tokens := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, f := range fields {
		if len(f) <= p.MinTokenLength || seen[f] {
			continue
		}
		seen[f] = true
		tokens = append(tokens, f)
	}
	return tokens
}

// RankByLocation scores candidates by how many location tokens appear in
// their address and returns them best first. Ties keep search order. An
// empty result means nothing relevant was found.
func (p RelevancePolicy) RankByLocation(candidates []models.PlaceCandidate, location string) []models.PlaceCandidate {
	tokens := p.locationTokens(location)
	if len(tokens) == 0 || len(candidates) == 0 {
		return candidates
	}

	type scored struct {
		candidate models.PlaceCandidate
		score     int
	}

	dropZero := len(candidates) > p.DropZeroScoreAbove
	ranked := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		address := strings.ToLower(c.FormattedAddress)
		score := 0
		for _, token := range tokens {
			if strings.Contains(address, token) {
				score++
			}
		}
		if score == 0 && dropZero {
			continue
		}
		ranked = append(ranked, scored{candidate: c, score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})

	result := make([]models.PlaceCandidate, len(ranked))
	for i, r := range ranked {
		result[i] = r.candidate
	}
	return result
}
