package output

import (
	"encoding/json"

	"github.com/temirov/dirtree/internal/services/stream"
)

type jsonStreamRenderer struct {
	runState
	rendered string
}

// jsonDocumentPayload is the JSON form of a merged document.
type jsonDocumentPayload struct {
	Root      string `json:"root"`
	Files     int    `json:"files"`
	Skipped   int    `json:"skipped"`
	Tokens    int    `json:"tokens,omitempty"`
	Model     string `json:"model,omitempty"`
	Cancelled bool   `json:"cancelled,omitempty"`
	Content   string `json:"content"`
}

// NewJSONStreamRenderer renders trees as nested JSON nodes and merged documents as a JSON
// object carrying the text and its counts.
func NewJSONStreamRenderer(options RendererOptions) StreamRenderer {
	return &jsonStreamRenderer{runState: runState{options: options}}
}

func (renderer *jsonStreamRenderer) Handle(event stream.Event) error {
	if event.Kind == stream.EventKindStart {
		renderer.root = event.Path
		return nil
	}
	_, err := renderer.handleCommon(event)
	return err
}

func (renderer *jsonStreamRenderer) Flush() error {
	rendered, err := renderer.render()
	if err != nil {
		return err
	}
	renderer.rendered = rendered
	return renderer.finish(rendered)
}

func (renderer *jsonStreamRenderer) Output() string {
	return renderer.rendered
}

func (renderer *jsonStreamRenderer) render() (string, error) {
	if renderer.tree != nil {
		return RenderTreeJSON(renderer.tree)
	}
	if renderer.document == nil {
		return "", nil
	}
	payload := jsonDocumentPayload{
		Root:      renderer.root,
		Files:     renderer.document.Files,
		Cancelled: renderer.cancelled,
		Content:   renderer.document.Text,
	}
	if renderer.summary != nil {
		payload.Skipped = renderer.summary.Skipped
		payload.Tokens = renderer.summary.Tokens
		payload.Model = renderer.summary.Model
	}
	encoded, err := json.MarshalIndent(payload, indentPrefix, indentSpacer)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}
