package cli

import (
	"io"
	"os"

	"courseware-hq/steward/pkg/export"
)

// Output writes command results in the format selected by --format.
type Output struct {
	w       io.Writer
	format  export.Format
	verbose bool
}

// NewOutput creates an Output. A nil w writes to os.Stdout.
func NewOutput(w io.Writer, format string, verbose bool) (*Output, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, NewConfigError("format", err.Error())
	}
	if w == nil {
		w = os.Stdout
	}
	return &Output{w: w, format: f, verbose: verbose}, nil
}

// Format returns the selected format.
func (o *Output) Format() export.Format {
	return o.format
}

// Render writes a run report, ranking or course report.
func (o *Output) Render(data any) error {
	if o.format == export.FormatTable && o.verbose {
		return export.RenderWith(o.w, &export.TableRenderer{Verbose: true}, o.format, data)
	}
	return export.Render(o.w, o.format, data)
}
