package output

import (
	"io"

	"github.com/temirov/dirtree/internal/services/stream"
)

// StreamRenderer consumes the events of one command run and writes the final payload on Flush.
type StreamRenderer interface {
	Handle(event stream.Event) error
	Flush() error
	// Output returns the rendered payload once the run has delivered it.
	Output() string
	// Document returns the merged text of a merge run regardless of the output format.
	Document() string
}

// RendererOptions configures the stream renderers. Progress may be nil.
type RendererOptions struct {
	Stdout         io.Writer
	Stderr         io.Writer
	Command        string
	Progress       *ProgressLine
	IncludeSummary bool
}

// NewStreamRenderer returns the renderer for format, defaulting to raw output.
func NewStreamRenderer(format string, options RendererOptions) StreamRenderer {
	if format == formatJSON {
		return NewJSONStreamRenderer(options)
	}
	return NewRawStreamRenderer(options)
}
