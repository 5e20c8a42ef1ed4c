package dto

import (
	"github.com/aretw0/bardic/pkg/domain"
)

// Choice is a numbered choice as frontends receive it.
type Choice struct {
	Index  int      `json:"index"`
	Text   string   `json:"text"`
	Target string   `json:"target"`
	Tags   []string `json:"tags,omitempty"`
}

// Passage is the wire form of a rendered passage.
type Passage struct {
	SessionID        string                     `json:"session_id,omitempty"`
	PassageID        string                     `json:"passage_id"`
	Content          string                     `json:"content"`
	Choices          []Choice                   `json:"choices"`
	IsEnd            bool                       `json:"is_end"`
	RenderDirectives []domain.RenderedDirective `json:"render_directives"`
	InputDirectives  []domain.InputRequest      `json:"input_directives"`
}

// FromOutput numbers the choices of out and flags the end of the story.
func FromOutput(out *domain.Output) Passage {
	p := Passage{
		PassageID:        out.PassageID,
		Content:          out.Content,
		Choices:          make([]Choice, len(out.Choices)),
		IsEnd:            len(out.Choices) == 0,
		RenderDirectives: out.RenderDirectives,
		InputDirectives:  out.InputDirectives,
	}
	for i, c := range out.Choices {
		p.Choices[i] = Choice{Index: i, Text: c.Text, Target: c.Target, Tags: c.Tags}
	}
	if p.RenderDirectives == nil {
		p.RenderDirectives = []domain.RenderedDirective{}
	}
	if p.InputDirectives == nil {
		p.InputDirectives = []domain.InputRequest{}
	}
	return p
}

// StartRequest opens a session on a story, optionally from a save.
type StartRequest struct {
	StoryID string `json:"story_id"`
	SaveID  string `json:"save_id,omitempty"`
}

// ChooseRequest picks a choice by index.
type ChooseRequest struct {
	Index *int `json:"index"`
}

// InputsRequest submits input values by name.
type InputsRequest struct {
	Inputs map[string]string `json:"inputs"`
}

// SaveRequest names a new save.
type SaveRequest struct {
	SaveName string `json:"save_name"`
}

// SaveResponse returns the ID of a new save.
type SaveResponse struct {
	SaveID string `json:"save_id"`
}

// LoadRequest restores a save into a session.
type LoadRequest struct {
	SaveID string `json:"save_id"`
}

// Error is the body of every failed request.
type Error struct {
	Error string `json:"error"`
}
