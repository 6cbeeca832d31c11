package selector

import (
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"estate_reviews/internal/places"
	"estate_reviews/internal/shared"
)

const (
	TierPrefix = iota
	TierContains
	TierFuzzy
)

// Match is one ranked candidate.
type Match struct {
	Value    string `json:"value"`
	Tier     int    `json:"tier"`
	Position int    `json:"position"`
	Distance int    `json:"distance"`
}

// FuzzyThreshold is the largest edit distance accepted for a query.
func FuzzyThreshold(query string) int {
	return int(math.Ceil(float64(utf8.RuneCountInString(query)) * 0.5))
}

// Rank filters and orders candidates against a typed query: prefix matches,
// then substring matches, then fuzzy matches; everything else is dropped.
// An empty query returns all candidates alphabetically.
func Rank(query string, candidates []string) []Match {
	q := shared.Key(query)
	if q == "" {
		sorted := places.SortNames(append([]string(nil), candidates...))
		out := make([]Match, len(sorted))
		for i, c := range sorted {
			out[i] = Match{Value: c}
		}
		return out
	}

	threshold := FuzzyThreshold(q)
	out := make([]Match, 0, len(candidates))
	for _, c := range candidates {
		n := shared.Key(c)
		switch idx := strings.Index(n, q); {
		case idx == 0:
			out = append(out, Match{Value: c, Tier: TierPrefix})
		case idx > 0:
			out = append(out, Match{Value: c, Tier: TierContains, Position: utf8.RuneCountInString(n[:idx])})
		default:
			if d := fuzzyDistance(q, n); d <= threshold {
				out = append(out, Match{Value: c, Tier: TierFuzzy, Distance: d})
			}
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Tier != b.Tier {
			return a.Tier < b.Tier
		}
		if a.Position != b.Position {
			return a.Position < b.Position
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		fa, fb := shared.Fold(a.Value), shared.Fold(b.Value)
		if fa != fb {
			return fa < fb
		}
		return a.Value < b.Value
	})
	return out
}

// Filter is Rank returning only the values.
func Filter(query string, candidates []string) []string {
	ms := Rank(query, candidates)
	out := make([]string, len(ms))
	for i, m := range ms {
		out[i] = m.Value
	}
	return out
}

// fuzzyDistance is the smallest edit distance between q and the whole
// candidate or any of its words.
func fuzzyDistance(q, candidate string) int {
	best := levenshtein.ComputeDistance(q, candidate)
	for _, w := range strings.FieldsFunc(candidate, func(r rune) bool { return r == ' ' || r == '-' }) {
		if d := levenshtein.ComputeDistance(q, w); d < best {
			best = d
		}
	}
	return best
}
