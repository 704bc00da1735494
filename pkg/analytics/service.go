package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"courseware-hq/steward/pkg/course"
	"courseware-hq/steward/pkg/scoring"
)

// CacheName labels the analytics cache in metrics.
const CacheName = "analytics"

// CourseReport is the on-demand scoring view of one course.
type CourseReport struct {
	Scorecard       scoring.Scorecard        `json:"scorecard"`
	Recommendations []scoring.Recommendation `json:"recommendations"`
	GeneratedAt     time.Time                `json:"generated_at"`
}

// RankEntry is one row of a ranking. Rank starts at 1.
type RankEntry struct {
	Rank      int               `json:"rank"`
	Scorecard scoring.Scorecard `json:"scorecard"`
}

// Ranking is an ordered top-N view of valid courses.
type Ranking struct {
	SortKey     scoring.SortKey `json:"sort_key"`
	Limit       int             `json:"limit"`
	Entries     []RankEntry     `json:"entries"`
	GeneratedAt time.Time       `json:"generated_at"`
}

// Service computes course reports and rankings from a MetricsSource.
type Service struct {
	source       course.MetricsSource
	cache        *Cache
	defaultKey   scoring.SortKey
	defaultLimit int
	now          func() time.Time
	logger       *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache caches results in c.
func WithCache(c *Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithDefaults sets the ranking key and size used when a caller passes
// none.
func WithDefaults(key scoring.SortKey, limit int) Option {
	return func(s *Service) {
		s.defaultKey = key
		s.defaultLimit = limit
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates an analytics service over source.
func NewService(source course.MetricsSource, opts ...Option) *Service {
	s := &Service{
		source:       source,
		defaultKey:   scoring.DefaultSortKey,
		defaultLimit: 10,
		now:          time.Now,
		logger:       slog.Default().With("component", "analytics"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cache returns the result cache, or nil.
func (s *Service) Cache() *Cache {
	return s.cache
}

// CourseReport scores one course and lists its recommendations. It returns
// an error matching course.ErrNotFound for unknown courses.
func (s *Service) CourseReport(ctx context.Context, id int64) (*CourseReport, error) {
	key := fmt.Sprintf("report:%d", id)
	if v, ok := s.cache.Get(key); ok {
		return v.(*CourseReport), nil
	}

	c, err := s.source.GetCourse(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load course %d: %w", id, err)
	}
	card, err := s.scorecard(ctx, c)
	if err != nil {
		return nil, err
	}

	report := &CourseReport{
		Scorecard:       card,
		Recommendations: slices.Collect(scoring.Recommendations(card)),
		GeneratedAt:     s.now(),
	}
	if report.Recommendations == nil {
		report.Recommendations = []scoring.Recommendation{}
	}

	s.cache.Set(key, report)
	s.logger.Debug("course report computed", "course_id", id, "recommendations", len(report.Recommendations))
	return report, nil
}

// RankCourses ranks valid courses by sortKey, descending, ties broken by
// course ID. An empty sortKey or a limit <= 0 uses the service defaults.
func (s *Service) RankCourses(ctx context.Context, sortKey string, limit int) (*Ranking, error) {
	key := s.defaultKey
	if sortKey != "" {
		parsed, err := scoring.ParseSortKey(sortKey)
		if err != nil {
			return nil, err
		}
		key = parsed
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}

	cacheKey := fmt.Sprintf("rank:%s:%d", key, limit)
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.(*Ranking), nil
	}

	valid := true
	courses, err := s.source.FindCourses(ctx, &course.Query{Valid: &valid})
	if err != nil {
		return nil, fmt.Errorf("find courses: %w", err)
	}

	cards := make([]scoring.Scorecard, 0, len(courses))
	for _, c := range courses {
		card, err := s.scorecard(ctx, c)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	ranked := scoring.Rank(cards, key, limit)
	ranking := &Ranking{
		SortKey:     key,
		Limit:       limit,
		Entries:     make([]RankEntry, len(ranked)),
		GeneratedAt: s.now(),
	}
	for i, card := range ranked {
		ranking.Entries[i] = RankEntry{Rank: i + 1, Scorecard: card}
	}

	s.cache.Set(cacheKey, ranking)
	s.logger.Debug("ranking computed", "sort_key", key, "limit", limit, "candidates", len(courses))
	return ranking, nil
}

func (s *Service) scorecard(ctx context.Context, c *course.Course) (scoring.Scorecard, error) {
	snap, err := s.source.Engagement(ctx, c.ID)
	if err != nil {
		return scoring.Scorecard{}, fmt.Errorf("load engagement for course %d: %w", c.ID, err)
	}
	return scoring.Evaluate(c, snap), nil
}
