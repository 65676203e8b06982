package linker

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// DefaultThreshold is the lowest similarity Resolve accepts by default.
const DefaultThreshold = 0.8

// Match is the candidate picked for a name.
type Match struct {
	Index       int
	Value       string
	Correlation float64
}

// Resolve finds the candidate a user typed name refers to. Exact matches win, then
// case-insensitive ones, then the most similar candidate (Jaro-Winkler) with a
// similarity of at least threshold.
func Resolve(input string, candidates []string, threshold float64) (Match, bool) {
	for i, candidate := range candidates {
		if candidate == input {
			return Match{Index: i, Value: candidate, Correlation: 1}, true
		}
	}

	folded := strings.ToLower(strings.TrimSpace(input))
	for i, candidate := range candidates {
		if strings.ToLower(strings.TrimSpace(candidate)) == folded {
			return Match{Index: i, Value: candidate, Correlation: 1}, true
		}
	}

	best := Match{Index: -1}
	for i, candidate := range candidates {
		similarity := matchr.JaroWinkler(folded, strings.ToLower(candidate), false)
		if similarity > best.Correlation {
			best = Match{Index: i, Value: candidate, Correlation: similarity}
		}
	}
	if best.Index < 0 || best.Correlation < threshold {
		return Match{}, false
	}
	return best, true
}
