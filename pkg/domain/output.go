package domain

import "encoding/json"

// Render modes for directives.
const (
	RenderModeEvaluated = "evaluated"
	RenderModeRaw       = "raw"
)

// Output is what one render of a passage produces.
type Output struct {
	PassageID        string              `json:"passage_id"`
	Content          string              `json:"content"`
	Choices          []ChoiceView        `json:"choices"`
	RenderDirectives []RenderedDirective `json:"render_directives"`
	InputDirectives  []InputRequest      `json:"input_directives"`
	// Path lists every passage visited while resolving jumps, in order.
	Path []string `json:"path,omitempty"`
}

// ChoiceView is a choice that passed its condition, with rendered text.
type ChoiceView struct {
	Text   string   `json:"text"`
	Target string   `json:"target"`
	Sticky bool     `json:"sticky"`
	Tags   []string `json:"tags,omitempty"`

	// Key identifies the authored choice for one-time bookkeeping.
	Key ChoiceKey `json:"-"`
}

// RenderedDirective is an evaluated render directive handed to the frontend.
type RenderedDirective struct {
	Name          string         `json:"name"`
	Mode          string         `json:"mode"`
	Data          map[string]any `json:"data,omitempty"`
	RawArgs       string         `json:"raw_args,omitempty"`
	FrameworkHint string         `json:"framework_hint,omitempty"`
	Error         string         `json:"error,omitempty"`

	// Framework holds hint-specific payloads keyed by framework name,
	// merged into the top level of the JSON object.
	Framework map[string]any `json:"-"`
}

// MarshalJSON flattens framework payloads next to the standard fields.
func (d RenderedDirective) MarshalJSON() ([]byte, error) {
	type plain RenderedDirective
	body, err := marshalTagged(NodeRenderDirective, plain(d))
	if err != nil || len(d.Framework) == 0 {
		return body, err
	}
	var m map[string]any
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	for k, v := range d.Framework {
		m[k] = v
	}
	return json.Marshal(m)
}

// InputRequest asks the frontend to collect a named value.
type InputRequest struct {
	Name        string `json:"name"`
	Label       string `json:"label"`
	Placeholder string `json:"placeholder"`
}

// MarshalJSON tags the request like the source node.
func (r InputRequest) MarshalJSON() ([]byte, error) {
	type plain InputRequest
	return marshalTagged(NodeInput, plain(r))
}

// StoryInfo summarizes a loaded story.
type StoryInfo struct {
	Version        string            `json:"version"`
	PassageCount   int               `json:"passage_count"`
	InitialPassage string            `json:"initial_passage"`
	CurrentPassage string            `json:"current_passage,omitempty"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
