package dsl

import (
	"fmt"

	"github.com/aretw0/bardic/internal/validator"
	"github.com/aretw0/bardic/pkg/adapters/memory"
	"github.com/aretw0/bardic/pkg/domain"
)

// Builder assembles a Document passage by passage.
type Builder struct {
	meta    map[string]string
	start   string
	order   []string
	entries map[string]*PassageBuilder
}

// New creates an empty builder.
func New() *Builder {
	return &Builder{
		meta:    map[string]string{},
		entries: map[string]*PassageBuilder{},
	}
}

// Meta sets a metadata key such as "title" or "story_id".
func (b *Builder) Meta(key, value string) *Builder {
	b.meta[key] = value
	return b
}

// Start names the initial passage. Without it, a passage called "Start"
// wins, then the first passage added.
func (b *Builder) Start(id string) *Builder {
	b.start = id
	return b
}

// Passage returns the builder for id, creating it on first use.
func (b *Builder) Passage(id string) *PassageBuilder {
	if pb, ok := b.entries[id]; ok {
		return pb
	}
	pb := &PassageBuilder{passage: &domain.Passage{ID: id, Choices: []domain.Choice{}}}
	b.entries[id] = pb
	b.order = append(b.order, id)
	return pb
}

// Build returns the document, or the validation errors it would have.
func (b *Builder) Build() (*domain.Document, error) {
	if len(b.order) == 0 {
		return nil, fmt.Errorf("dsl: no passages defined")
	}
	doc := &domain.Document{
		Version:        domain.FormatVersion,
		InitialPassage: b.initial(),
		Passages:       make(map[string]*domain.Passage, len(b.entries)),
	}
	if len(b.meta) > 0 {
		doc.Metadata = make(map[string]string, len(b.meta))
		for k, v := range b.meta {
			doc.Metadata[k] = v
		}
	}
	for id, pb := range b.entries {
		doc.Passages[id] = pb.passage
	}

	report, err := validator.ValidateGraph(doc)
	if err != nil {
		return nil, err
	}
	if err := report.Err(); err != nil {
		return nil, fmt.Errorf("dsl: %w", err)
	}
	return doc, nil
}

// BuildLoader builds the document and serves it under storyID.
func (b *Builder) BuildLoader(storyID string) (*memory.Loader, error) {
	doc, err := b.Build()
	if err != nil {
		return nil, err
	}
	return memory.NewLoader(map[string]*domain.Document{storyID: doc}), nil
}

func (b *Builder) initial() string {
	if b.start != "" {
		return b.start
	}
	if _, ok := b.entries["Start"]; ok {
		return "Start"
	}
	return b.order[0]
}
