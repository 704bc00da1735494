package scoring

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortKey selects the score used to rank courses.
type SortKey string

const (
	SortByPopularity   SortKey = "popularity"
	SortByQuality      SortKey = "quality"
	SortByEngagement   SortKey = "engagement"
	SortByCompleteness SortKey = "completeness"
)

// DefaultSortKey is used when the caller does not choose one.
const DefaultSortKey = SortByPopularity

// ParseSortKey parses a sort key name. An empty string yields DefaultSortKey.
func ParseSortKey(s string) (SortKey, error) {
	switch key := SortKey(strings.ToLower(strings.TrimSpace(s))); key {
	case "":
		return DefaultSortKey, nil
	case SortByPopularity, SortByQuality, SortByEngagement, SortByCompleteness:
		return key, nil
	default:
		return "", fmt.Errorf("unknown sort key %q (supported: popularity, quality, engagement, completeness)", s)
	}
}

// Value returns the score sc is ranked by under key.
func (key SortKey) Value(sc *Scorecard) float64 {
	switch key {
	case SortByQuality:
		return sc.Quality
	case SortByEngagement:
		return sc.Engagement
	case SortByCompleteness:
		return sc.Completeness.Percentage
	default:
		return sc.Popularity
	}
}

// Rank sorts cards descending by key, breaking ties by course ID ascending,
// and returns at most limit entries. A limit <= 0 returns all of them.
// The input slice is not modified.
func Rank(cards []Scorecard, key SortKey, limit int) []Scorecard {
	ranked := slices.Clone(cards)
	slices.SortFunc(ranked, func(a, b Scorecard) int {
		if c := cmp.Compare(key.Value(&b), key.Value(&a)); c != 0 {
			return c
		}
		return cmp.Compare(courseID(&a), courseID(&b))
	})
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

func courseID(sc *Scorecard) int64 {
	if sc.Course == nil {
		return 0
	}
	return sc.Course.ID
}
