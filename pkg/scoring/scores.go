package scoring

import (
	"math"

	"courseware-hq/steward/pkg/course"
)

// Learner estimate multipliers. The estimate is a rough placeholder, not a
// measured learner count.
const (
	learnersPerCollect    = 3
	learnersPerEvaluation = 5
)

// Rates are engagement ratios against the estimated learner count.
type Rates struct {
	EstimatedLearners int     `json:"estimated_learners"`
	CollectRate       float64 `json:"collect_rate"`
	EvaluateRate      float64 `json:"evaluate_rate"`
}

// Popularity returns min(50, collects*2) + min(30, evaluations*3) + avg*4.
func Popularity(collects, evaluations int, averageRating float64) float64 {
	score := float64(min(50, collects*2)) + float64(min(30, evaluations*3)) + averageRating*4
	return round2(score)
}

// Quality returns completeness%*0.4 + avg*20 + consistency*20.
func Quality(completenessPercentage, averageRating, consistency float64) float64 {
	return round2(completenessPercentage*0.4 + averageRating*20 + consistency*20)
}

// Engagement returns min(40, collects*4) + min(40, evaluations*4), plus a
// 20 point bonus when the course has both collects and evaluations.
func Engagement(collects, evaluations int) float64 {
	score := min(40, collects*4) + min(40, evaluations*4)
	if collects > 0 && evaluations > 0 {
		score += 20
	}
	return float64(score)
}

// RatingStdDev returns the standard deviation of the star ratings in the
// histogram, where index 0 counts one-star ratings. An empty histogram
// yields 0.
func RatingStdDev(distribution [5]int) float64 {
	n := 0
	sum := 0.0
	for i, count := range distribution {
		n += count
		sum += float64((i + 1) * count)
	}
	if n == 0 {
		return 0
	}
	mean := sum / float64(n)

	variance := 0.0
	for i, count := range distribution {
		d := float64(i+1) - mean
		variance += float64(count) * d * d
	}
	return math.Sqrt(variance / float64(n))
}

// RatingConsistency returns max(0, 1 - stddev/2), or 1 when fewer than two
// evaluations are available.
func RatingConsistency(snap *course.EngagementSnapshot) float64 {
	if snap == nil || ratingCount(snap.RatingDistribution) < 2 {
		return 1.0
	}
	return math.Max(0, 1-RatingStdDev(snap.RatingDistribution)/2)
}

// ComputeRates derives collect and evaluate rates from the learner
// estimate max(1, collects*3 + evaluations*5).
func ComputeRates(collects, evaluations int) Rates {
	learners := max(1, collects*learnersPerCollect+evaluations*learnersPerEvaluation)
	return Rates{
		EstimatedLearners: learners,
		CollectRate:       round2(float64(collects) / float64(learners) * 100),
		EvaluateRate:      round2(float64(evaluations) / float64(learners) * 100),
	}
}

// Scorecard is every score computed for one course.
type Scorecard struct {
	Course       *course.Course             `json:"course"`
	Completeness Completeness               `json:"completeness"`
	Popularity   float64                    `json:"popularity_score"`
	Quality      float64                    `json:"quality_score"`
	Engagement   float64                    `json:"engagement_score"`
	Consistency  float64                    `json:"rating_consistency"`
	Rates        Rates                      `json:"rates"`
	Snapshot     *course.EngagementSnapshot `json:"engagement"`
}

// Evaluate scores c. When snap is nil the course's own counters are used
// with no rating information.
func Evaluate(c *course.Course, snap *course.EngagementSnapshot) Scorecard {
	snap = effectiveSnapshot(c, snap)
	completeness := ComputeCompleteness(c)
	consistency := RatingConsistency(snap)

	return Scorecard{
		Course:       c,
		Completeness: completeness,
		Popularity:   Popularity(snap.CollectCount, snap.EvaluationCount, snap.AverageRating),
		Quality:      Quality(completeness.Percentage, snap.AverageRating, consistency),
		Engagement:   Engagement(snap.CollectCount, snap.EvaluationCount),
		Consistency:  round2(consistency),
		Rates:        ComputeRates(snap.CollectCount, snap.EvaluationCount),
		Snapshot:     snap,
	}
}

func effectiveSnapshot(c *course.Course, snap *course.EngagementSnapshot) *course.EngagementSnapshot {
	if snap != nil {
		return snap
	}
	fallback := &course.EngagementSnapshot{}
	if c != nil {
		fallback.CollectCount = c.CollectCount
		fallback.EvaluationCount = c.EvaluationCount
	}
	return fallback
}

func ratingCount(distribution [5]int) int {
	n := 0
	for _, count := range distribution {
		n += count
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
