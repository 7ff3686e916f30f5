package schema

import "github.com/agnivade/levenshtein"

// maxSuggestDistance bounds how far a candidate may be from the input before
// a suggestion does more harm than good.
const maxSuggestDistance = 3

// Suggest returns the candidate with the smallest edit distance to value, or
// the empty string when no candidate is close enough to be a plausible typo.
// Ties resolve to the earliest candidate so suggestions are deterministic.
func Suggest(value string, candidates []string) string {
	best := ""
	bestDist := maxSuggestDistance + 1
	for _, c := range candidates {
		if c == value {
			continue
		}
		d := levenshtein.ComputeDistance(value, c)
		if d < bestDist && d < len(c) {
			best, bestDist = c, d
		}
	}
	return best
}
