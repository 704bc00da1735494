package scoring

import (
	"strings"

	"courseware-hq/steward/pkg/course"
)

// Bucket maxima for content completeness.
const (
	MaxBasicScore     = 20
	MaxStructureScore = 40
	MaxOutlineScore   = 20
	MaxVideoScore     = 20
	MaxCompleteness   = 100

	basicFieldScore = 5
)

// Completeness is the content completeness breakdown of a course.
type Completeness struct {
	Basic     int `json:"basic"`
	Structure int `json:"structure"`
	Outline   int `json:"outline"`
	Video     int `json:"video"`

	// Score is the sum of the buckets, capped at 100.
	Score int `json:"score"`

	// Percentage is Score relative to MaxCompleteness.
	Percentage float64 `json:"percentage"`
}

// ComputeCompleteness scores how much required content and metadata c has.
// A nil course scores zero.
func ComputeCompleteness(c *course.Course) Completeness {
	var r Completeness
	if c == nil {
		return r
	}

	if strings.TrimSpace(c.Title) != "" {
		r.Basic += basicFieldScore
	}
	if strings.TrimSpace(c.Description) != "" {
		r.Basic += basicFieldScore
	}
	if strings.TrimSpace(c.Cover) != "" {
		r.Basic += basicFieldScore
	}
	if c.LearnHour != nil && *c.LearnHour > 0 {
		r.Basic += basicFieldScore
	}
	r.Basic = min(r.Basic, MaxBasicScore)

	if c.Content.Chapters > 0 {
		r.Structure += 20
	}
	if c.Content.Lessons > 0 {
		r.Structure += 20
	}
	r.Structure = min(r.Structure, MaxStructureScore)

	if c.Content.Outlines > 0 || c.Content.PublishedOutlines > 0 {
		r.Outline += 10
	}
	if c.Content.PublishedOutlines > 0 {
		r.Outline += 10
	}
	r.Outline = min(r.Outline, MaxOutlineScore)

	if c.Content.Videos > 0 {
		r.Video = MaxVideoScore
	}

	r.Score = min(r.Basic+r.Structure+r.Outline+r.Video, MaxCompleteness)
	r.Percentage = round2(float64(r.Score) / MaxCompleteness * 100)
	return r
}
