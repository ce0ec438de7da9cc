// Package ranking orders a region's matches by rating and keeps the top N.
package ranking

import (
	"cmp"
	"slices"

	"github.com/FranksOps/shopscout/internal/places"
)

// DefaultLimit is the number of matches kept per region when no limit is given.
const DefaultLimit = 60

// Rank returns at most limit matches ordered by Score, highest first.
// Matches without a rating score 0. Equal scores keep their input order,
// since the service's own ordering is a relevance signal. A limit <= 0 means
// DefaultLimit. The input slice is not modified.
func Rank(matches []places.Match, limit int) []places.Match {
	if limit <= 0 {
		limit = DefaultLimit
	}

	ranked := slices.Clone(matches)
	slices.SortStableFunc(ranked, func(a, b places.Match) int {
		return cmp.Compare(b.Score(), a.Score())
	})

	if len(ranked) > limit {
		ranked = ranked[:limit:limit]
	}
	return ranked
}
