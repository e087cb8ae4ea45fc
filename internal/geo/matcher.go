package geo

import (
	"strings"

	"github.com/jobsift/jobsift/internal/domain"
)

// Matcher picks the populated-place refinement for a normalized query from
// the master's candidate catalog. A nil result means no refinement: the
// search falls back to the regional mask.
type Matcher func(query string, candidates []*domain.GeoCandidate) *domain.GeoCandidate

// ExactMatcher refines only on an unambiguous match: the query's city
// segment must equal exactly one candidate's city segment,
// case-insensitively. Corrected names take precedence over platform names.
func ExactMatcher(query string, candidates []*domain.GeoCandidate) *domain.GeoCandidate {
	want := citySegment(query)
	if want == "" {
		return nil
	}

	var found *domain.GeoCandidate
	for _, c := range candidates {
		if citySegment(c.DisplayName()) != want {
			continue
		}
		if found != nil {
			// Two candidates claim the same city name; refusing to guess
			// keeps the regional mask, which at least never drops results.
			return nil
		}
		found = c
	}
	return found
}

// PrefixMatcher refines on the first candidate whose display name starts
// with the query's city segment. Looser than ExactMatcher; it can pick a
// neighbouring suburb when the platform lists it first.
func PrefixMatcher(query string, candidates []*domain.GeoCandidate) *domain.GeoCandidate {
	want := citySegment(query)
	if want == "" {
		return nil
	}
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.DisplayName()), want) {
			return c
		}
	}
	return nil
}

// citySegment lowercases the text before the first comma, trimmed.
func citySegment(s string) string {
	if idx := strings.IndexByte(s, ','); idx >= 0 {
		s = s[:idx]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
