package export

import (
	"encoding/json"
	"io"

	"courseware-hq/steward/pkg/analytics"
	"courseware-hq/steward/pkg/orchestrator"
)

// JSONRenderer writes reports as JSON documents.
type JSONRenderer struct {
	// Pretty enables pretty-printing with indentation.
	Pretty bool
}

// NewJSONRenderer creates a new JSON renderer.
func NewJSONRenderer(pretty bool) *JSONRenderer {
	return &JSONRenderer{Pretty: pretty}
}

// RenderRun implements Renderer.
func (r *JSONRenderer) RenderRun(w io.Writer, report *orchestrator.RunReport) error {
	return r.encode(w, report)
}

// RenderRanking implements Renderer.
func (r *JSONRenderer) RenderRanking(w io.Writer, ranking *analytics.Ranking) error {
	return r.encode(w, ranking)
}

// RenderCourseReport implements Renderer.
func (r *JSONRenderer) RenderCourseReport(w io.Writer, report *analytics.CourseReport) error {
	return r.encode(w, report)
}

func (r *JSONRenderer) encode(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	if r.Pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(v); err != nil {
		return NewRenderError(FormatJSON, err)
	}
	return nil
}
