// Package scoring turns raw course counters into scores, completeness,
// recommendations, and rankings.
//
// Every function in this package is pure: inputs are a Course and an
// optional EngagementSnapshot, outputs are values. Caching and fetching
// belong to the caller (see pkg/analytics).
//
// # Formulas
//
// Content completeness (0-100) is additive over four buckets:
//
//	basic metadata   20  (5 each: title, description, cover, learn-hour)
//	structure        40  (20 for any chapter, 20 for any lesson)
//	outlines         20  (10 for any outline, 10 for any published outline)
//	video            20  (any video)
//
// Scores, rounded to two decimals:
//
//	popularity = min(50, collects*2) + min(30, evaluations*3) + avgRating*4
//	quality    = completeness%*0.4 + avgRating*20 + consistency*20
//	engagement = min(40, collects*4) + min(40, evaluations*4) + 20 if both > 0
//
// Rating consistency is max(0, 1 - stddev/2) over the weighted 1-5 star
// histogram, and 1.0 when fewer than two evaluations exist.
//
// # Ranking
//
// Rank sorts descending by the chosen key and breaks ties by course ID
// ascending, so the order never depends on input order.
package scoring
