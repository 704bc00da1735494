package export

import (
	"fmt"
	"io"
	"text/tabwriter"

	"courseware-hq/steward/pkg/analytics"
	"courseware-hq/steward/pkg/orchestrator"
)

// TableRenderer writes human-readable aligned tables.
type TableRenderer struct {
	// Verbose includes skip entries in run reports.
	Verbose bool
}

// NewTableRenderer creates a new table renderer.
func NewTableRenderer() *TableRenderer {
	return &TableRenderer{}
}

// RenderRun implements Renderer.
func (r *TableRenderer) RenderRun(w io.Writer, report *orchestrator.RunReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Run %s (%s)\n", report.ID, report.Mode)
	fmt.Fprintf(tw, "Started:\t%s\n", formatTime(report.StartedAt))
	fmt.Fprintf(tw, "Duration:\t%s\n", report.Duration())
	fmt.Fprintf(tw, "Completed:\t%t\n", report.Completed)
	for _, warning := range report.PolicyWarnings {
		fmt.Fprintf(tw, "Warning:\t%s\n", warning)
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "TASK\tOUTCOME\tPROCESSED\tSKIPPED\tACTIONS\tFAILED")
	for _, t := range report.Tasks {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n",
			t.Task, t.Outcome(), t.Processed, t.Skipped, t.Actions, t.Failed)
	}

	entries := make([]orchestrator.Entry, 0, len(report.Entries))
	for _, e := range report.Entries {
		if e.Action == "skip" && !r.Verbose {
			continue
		}
		entries = append(entries, e)
	}
	if len(entries) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "TASK\tKIND\tID\tACTION\tREASON")
		for _, e := range entries {
			reason := e.Reason
			if e.Error != "" {
				reason = "error: " + e.Error
			}
			fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", e.Task, e.Kind, e.EntityID, e.Action, reason)
		}
	}

	fmt.Fprintf(tw, "\nTotal actions: %d, failures: %d\n", report.ActionCount(), report.FailureCount())
	if err := tw.Flush(); err != nil {
		return NewRenderError(FormatTable, err)
	}
	return nil
}

// RenderRanking implements Renderer.
func (r *TableRenderer) RenderRanking(w io.Writer, ranking *analytics.Ranking) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "Top %d courses by %s\n\n", ranking.Limit, ranking.SortKey)
	fmt.Fprintln(tw, "RANK\tID\tTITLE\tPOPULARITY\tQUALITY\tENGAGEMENT\tCOMPLETENESS")
	for _, e := range ranking.Entries {
		sc := e.Scorecard
		var id int64
		var title string
		if sc.Course != nil {
			id, title = sc.Course.ID, sc.Course.Title
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%.2f\t%.2f\t%.2f\t%.2f%%\n",
			e.Rank, id, title, sc.Popularity, sc.Quality, sc.Engagement, sc.Completeness.Percentage)
	}
	if len(ranking.Entries) == 0 {
		fmt.Fprintln(tw, "(no courses)")
	}

	if err := tw.Flush(); err != nil {
		return NewRenderError(FormatTable, err)
	}
	return nil
}

// RenderCourseReport implements Renderer.
func (r *TableRenderer) RenderCourseReport(w io.Writer, report *analytics.CourseReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	sc := report.Scorecard

	if sc.Course != nil {
		fmt.Fprintf(tw, "Course %d: %s\n\n", sc.Course.ID, sc.Course.Title)
	}
	c := sc.Completeness
	fmt.Fprintf(tw, "Completeness:\t%.2f%%\t(basic %d, structure %d, outline %d, video %d)\n",
		c.Percentage, c.Basic, c.Structure, c.Outline, c.Video)
	fmt.Fprintf(tw, "Popularity:\t%.2f\n", sc.Popularity)
	fmt.Fprintf(tw, "Quality:\t%.2f\n", sc.Quality)
	fmt.Fprintf(tw, "Engagement:\t%.2f\n", sc.Engagement)
	fmt.Fprintf(tw, "Rating consistency:\t%.2f\n", sc.Consistency)
	fmt.Fprintf(tw, "Collect rate:\t%.2f%%\t(of ~%d learners)\n", sc.Rates.CollectRate, sc.Rates.EstimatedLearners)
	fmt.Fprintf(tw, "Evaluate rate:\t%.2f%%\n", sc.Rates.EvaluateRate)

	fmt.Fprintln(tw)
	if len(report.Recommendations) == 0 {
		fmt.Fprintln(tw, "No recommendations.")
	} else {
		fmt.Fprintln(tw, "PRIORITY\tTYPE\tRECOMMENDATION")
		for _, rec := range report.Recommendations {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", rec.Priority, rec.Type, rec.Message)
		}
	}

	if err := tw.Flush(); err != nil {
		return NewRenderError(FormatTable, err)
	}
	return nil
}
