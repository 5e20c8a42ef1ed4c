package domain

import (
	"sort"
	"strings"
)

// FormatVersion is the version stamped on every compiled document.
const FormatVersion = "0.1.0"

// Document is a compiled story.
type Document struct {
	Version        string              `json:"version"`
	InitialPassage string              `json:"initial_passage"`
	Metadata       map[string]string   `json:"metadata,omitempty"`
	Imports        []string            `json:"imports,omitempty"`
	Passages       map[string]*Passage `json:"passages"`
}

// Passage is a named unit of story.
type Passage struct {
	ID      string   `json:"id"`
	Tags    []string `json:"tags,omitempty"`
	Content Nodes    `json:"content"`
	Choices []Choice `json:"choices"`
	Execute Commands `json:"execute,omitempty"`
	// Line is the 1-based source line of the passage header.
	Line int `json:"line,omitempty"`
}

// Choice is an authored option. Text is a token list of Text and Expression
// nodes. Sticky choices ("+") stay available; others ("*") are one-time.
type Choice struct {
	Text      Nodes    `json:"text"`
	Target    string   `json:"target"`
	Condition string   `json:"condition,omitempty"`
	Sticky    bool     `json:"sticky"`
	Tags      []string `json:"tags,omitempty"`
}

// Source returns the choice text as authored, with interpolations kept as
// "{code}". It identifies the choice independently of variable values.
func (c Choice) Source() string {
	var b strings.Builder
	for _, tok := range c.Text {
		switch t := tok.(type) {
		case *Text:
			b.WriteString(t.Value)
		case *Expression:
			b.WriteString("{" + t.Code + "}")
		}
	}
	return b.String()
}

// PassageIDs returns all passage names sorted.
func (d *Document) PassageIDs() []string {
	ids := make([]string, 0, len(d.Passages))
	for id := range d.Passages {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StoryID identifies the story for save compatibility. It falls back to the
// title metadata and is empty for untitled stories.
func (d *Document) StoryID() string {
	if id := d.Metadata["story_id"]; id != "" {
		return id
	}
	return d.Metadata["title"]
}
