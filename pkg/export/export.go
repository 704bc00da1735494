package export

import (
	"fmt"
	"io"
	"strings"

	"courseware-hq/steward/pkg/analytics"
	"courseware-hq/steward/pkg/orchestrator"
)

// Format is an output format for reports.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
)

// Formats returns every supported format.
func Formats() []Format {
	return []Format{FormatTable, FormatJSON, FormatCSV}
}

// ParseFormat parses a format name. An empty name selects FormatTable.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON, FormatCSV:
		return f, nil
	default:
		return "", fmt.Errorf("unknown format %q (supported: table, json, csv)", s)
	}
}

// Renderer writes reports in one format.
type Renderer interface {
	RenderRun(w io.Writer, report *orchestrator.RunReport) error
	RenderRanking(w io.Writer, ranking *analytics.Ranking) error
	RenderCourseReport(w io.Writer, report *analytics.CourseReport) error
}

// NewRenderer returns the renderer for format.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatTable, "":
		return NewTableRenderer(), nil
	case FormatJSON:
		return NewJSONRenderer(true), nil
	case FormatCSV:
		return NewCSVRenderer(true), nil
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
}

// Render dispatches data to the matching Renderer method. data must be a
// *orchestrator.RunReport, *analytics.Ranking or *analytics.CourseReport.
func Render(w io.Writer, format Format, data any) error {
	r, err := NewRenderer(format)
	if err != nil {
		return err
	}
	return RenderWith(w, r, format, data)
}

// RenderWith is Render with an explicitly configured renderer. format is
// only used to label errors.
func RenderWith(w io.Writer, r Renderer, format Format, data any) error {
	switch v := data.(type) {
	case *orchestrator.RunReport:
		return r.RenderRun(w, v)
	case *analytics.Ranking:
		return r.RenderRanking(w, v)
	case *analytics.CourseReport:
		return r.RenderCourseReport(w, v)
	default:
		return NewRenderError(format, fmt.Errorf("unsupported value of type %T", data))
	}
}

// RenderError reports a failure to render a report.
type RenderError struct {
	Format Format
	Cause  error
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Format, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RenderError) Unwrap() error {
	return e.Cause
}

// NewRenderError creates a RenderError.
func NewRenderError(format Format, cause error) *RenderError {
	return &RenderError{Format: format, Cause: cause}
}
