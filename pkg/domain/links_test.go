package domain_test

import (
	"testing"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestPassage_Links(t *testing.T) {
	p := &domain.Passage{
		ID: "Start",
		Content: domain.Nodes{
			&domain.Text{Value: "Hi"},
			&domain.Conditional{Branches: []domain.Branch{
				{Condition: "gold > 1", Content: domain.Nodes{&domain.Jump{Target: "Rich"}}},
				{Condition: "True", Choices: []domain.Choice{{Text: domain.Nodes{&domain.Text{Value: "Beg"}}, Target: "Street"}}},
			}},
			&domain.ForLoop{Variable: "i", Collection: "items", Choices: []domain.Choice{
				{Text: domain.Nodes{&domain.Text{Value: "Use "}, &domain.Expression{Code: "i"}}, Target: "Use", Sticky: true},
			}},
		},
		Choices: []domain.Choice{{Text: domain.Nodes{&domain.Text{Value: "Leave"}}, Target: "End", Condition: "door"}},
	}

	assert.Equal(t, []domain.Link{
		{Target: "Rich", Kind: domain.LinkJump, Condition: "gold > 1"},
		{Target: "Street", Kind: domain.LinkChoice, Label: "Beg", Condition: "else"},
		{Target: "Use", Kind: domain.LinkChoice, Label: "Use {i}", Condition: "for i in items", Sticky: true},
		{Target: "End", Kind: domain.LinkChoice, Label: "Leave", Condition: "door"},
	}, p.Links())
}
