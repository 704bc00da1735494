// Package analytics is the on-demand reporting path over the scoring
// engine. It loads courses and engagement snapshots from a
// course.MetricsSource, scores them, and caches the results for a short
// TTL. The cache is cleared by the orchestrator's cache cleanup task.
package analytics
