// Package export renders run reports, rankings and course reports.
//
// # Formats
//
//   - table: aligned columns for terminals
//   - json: the report structs as JSON documents
//   - csv: flat rows, one per decision entry or ranked course
//
// Rendering never changes the report. A typical caller:
//
//	format, err := export.ParseFormat(flagFormat)
//	if err != nil {
//	    return err
//	}
//	return export.Render(os.Stdout, format, report)
//
// Failures are returned as *RenderError.
package export
