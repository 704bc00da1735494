package scoring

import (
	"fmt"
	"iter"
)

// RecommendationType categorizes a recommendation.
type RecommendationType string

const (
	RecommendContent    RecommendationType = "content"
	RecommendEngagement RecommendationType = "engagement"
	RecommendQuality    RecommendationType = "quality"
	RecommendPopularity RecommendationType = "popularity"
)

// Priority ranks how urgent a recommendation is.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Recommendation thresholds.
const (
	MinCompletenessPercentage = 80.0
	MinEvaluations            = 5
	MinAverageRating          = 4.0
	MinCollects               = 10
)

// Recommendation is one improvement suggestion for a course.
type Recommendation struct {
	Type     RecommendationType `json:"type"`
	Priority Priority           `json:"priority"`
	Message  string             `json:"message"`
}

type rule func(sc *Scorecard) (Recommendation, bool)

var rules = []rule{
	func(sc *Scorecard) (Recommendation, bool) {
		if sc.Completeness.Percentage >= MinCompletenessPercentage {
			return Recommendation{}, false
		}
		return Recommendation{
			Type:     RecommendContent,
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("Content is %.0f%% complete; add the missing metadata and content", sc.Completeness.Percentage),
		}, true
	},
	func(sc *Scorecard) (Recommendation, bool) {
		if sc.Snapshot.EvaluationCount >= MinEvaluations {
			return Recommendation{}, false
		}
		return Recommendation{
			Type:     RecommendEngagement,
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("Only %d evaluations; encourage learners to leave a rating", sc.Snapshot.EvaluationCount),
		}, true
	},
	func(sc *Scorecard) (Recommendation, bool) {
		if sc.Snapshot.EvaluationCount == 0 || sc.Snapshot.AverageRating >= MinAverageRating {
			return Recommendation{}, false
		}
		return Recommendation{
			Type:     RecommendQuality,
			Priority: PriorityHigh,
			Message:  fmt.Sprintf("Average rating %.2f is below %.1f; review learner feedback", sc.Snapshot.AverageRating, MinAverageRating),
		}, true
	},
	func(sc *Scorecard) (Recommendation, bool) {
		if sc.Snapshot.CollectCount >= MinCollects {
			return Recommendation{}, false
		}
		return Recommendation{
			Type:     RecommendPopularity,
			Priority: PriorityMedium,
			Message:  fmt.Sprintf("Collected by %d learners; improve the title and cover", sc.Snapshot.CollectCount),
		}, true
	},
}

// Recommendations lazily yields every recommendation whose rule applies to
// sc. Rules are independent; all applicable ones fire in a fixed order
// (content, engagement, quality, popularity).
func Recommendations(sc Scorecard) iter.Seq[Recommendation] {
	if sc.Snapshot == nil {
		sc.Snapshot = effectiveSnapshot(sc.Course, nil)
	}
	return func(yield func(Recommendation) bool) {
		for _, r := range rules {
			rec, ok := r(&sc)
			if !ok {
				continue
			}
			if !yield(rec) {
				return
			}
		}
	}
}
