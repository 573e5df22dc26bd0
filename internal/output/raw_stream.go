package output

import (
	"github.com/temirov/dirtree/internal/services/stream"
)

type rawStreamRenderer struct {
	runState
	rendered string
}

// NewRawStreamRenderer renders trees with box-drawing connectors and merged documents as
// plain text.
func NewRawStreamRenderer(options RendererOptions) StreamRenderer {
	return &rawStreamRenderer{runState: runState{options: options}}
}

func (renderer *rawStreamRenderer) Handle(event stream.Event) error {
	if event.Kind == stream.EventKindStart {
		renderer.root = event.Path
		return nil
	}
	_, err := renderer.handleCommon(event)
	return err
}

func (renderer *rawStreamRenderer) Flush() error {
	renderer.rendered = renderer.render()
	return renderer.finish(renderer.rendered)
}

func (renderer *rawStreamRenderer) Output() string {
	return renderer.rendered
}

func (renderer *rawStreamRenderer) render() string {
	if renderer.tree != nil {
		return RenderTreeText(renderer.tree, 0)
	}
	if renderer.document != nil {
		return renderer.document.Text
	}
	return ""
}
