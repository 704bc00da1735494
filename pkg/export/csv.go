package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"courseware-hq/steward/pkg/analytics"
	"courseware-hq/steward/pkg/orchestrator"
)

// CSVRenderer writes reports as flat CSV rows. Run reports are written one
// row per decision entry; per-task counters are available in the other
// formats.
type CSVRenderer struct {
	// IncludeHeader includes a header row with column names.
	IncludeHeader bool
}

// NewCSVRenderer creates a new CSV renderer.
func NewCSVRenderer(includeHeader bool) *CSVRenderer {
	return &CSVRenderer{IncludeHeader: includeHeader}
}

// RenderRun implements Renderer.
func (r *CSVRenderer) RenderRun(w io.Writer, report *orchestrator.RunReport) error {
	header := []string{"run_id", "mode", "time", "task", "kind", "entity_id", "action", "reason", "error"}
	rows := make([][]string, 0, len(report.Entries))
	for _, e := range report.Entries {
		rows = append(rows, []string{
			report.ID,
			string(report.Mode),
			formatTime(e.Time),
			string(e.Task),
			string(e.Kind),
			strconv.FormatInt(e.EntityID, 10),
			e.Action,
			e.Reason,
			e.Error,
		})
	}
	return r.write(w, header, rows)
}

// RenderRanking implements Renderer.
func (r *CSVRenderer) RenderRanking(w io.Writer, ranking *analytics.Ranking) error {
	header := []string{
		"rank", "course_id", "title",
		"popularity", "quality", "engagement", "completeness",
		"collect_rate", "evaluate_rate",
	}
	rows := make([][]string, 0, len(ranking.Entries))
	for _, e := range ranking.Entries {
		sc := e.Scorecard
		var id int64
		var title string
		if sc.Course != nil {
			id, title = sc.Course.ID, sc.Course.Title
		}
		rows = append(rows, []string{
			strconv.Itoa(e.Rank),
			strconv.FormatInt(id, 10),
			title,
			formatFloat(sc.Popularity),
			formatFloat(sc.Quality),
			formatFloat(sc.Engagement),
			formatFloat(sc.Completeness.Percentage),
			formatFloat(sc.Rates.CollectRate),
			formatFloat(sc.Rates.EvaluateRate),
		})
	}
	return r.write(w, header, rows)
}

// RenderCourseReport implements Renderer. Scores are written as
// metric,value rows followed by one row per recommendation.
func (r *CSVRenderer) RenderCourseReport(w io.Writer, report *analytics.CourseReport) error {
	sc := report.Scorecard
	rows := [][]string{
		{"score", "completeness", formatFloat(sc.Completeness.Percentage)},
		{"score", "popularity", formatFloat(sc.Popularity)},
		{"score", "quality", formatFloat(sc.Quality)},
		{"score", "engagement", formatFloat(sc.Engagement)},
		{"score", "rating_consistency", formatFloat(sc.Consistency)},
		{"rate", "collect_rate", formatFloat(sc.Rates.CollectRate)},
		{"rate", "evaluate_rate", formatFloat(sc.Rates.EvaluateRate)},
	}
	for _, rec := range report.Recommendations {
		rows = append(rows, []string{"recommendation", string(rec.Type) + ":" + string(rec.Priority), rec.Message})
	}
	return r.write(w, []string{"section", "name", "value"}, rows)
}

func (r *CSVRenderer) write(w io.Writer, header []string, rows [][]string) error {
	writer := csv.NewWriter(w)

	if r.IncludeHeader {
		if err := writer.Write(header); err != nil {
			return NewRenderError(FormatCSV, err)
		}
	}
	if err := writer.WriteAll(rows); err != nil {
		return NewRenderError(FormatCSV, err)
	}
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
