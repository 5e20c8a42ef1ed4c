package dsl

import (
	"strings"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/script"
)

// PassageBuilder configures one passage with a fluent API.
type PassageBuilder struct {
	passage *domain.Passage
}

// Tags adds passage tags.
func (p *PassageBuilder) Tags(tags ...string) *PassageBuilder {
	p.passage.Tags = append(p.passage.Tags, tags...)
	return p
}

// Set adds "~ name = expr", run each time the passage is entered.
func (p *PassageBuilder) Set(name, expr string) *PassageBuilder {
	p.passage.Execute = append(p.passage.Execute, &domain.SetVar{Var: name, Expression: expr})
	return p
}

// Run adds a statement evaluated for its side effects on entry.
func (p *PassageBuilder) Run(code string) *PassageBuilder {
	p.passage.Execute = append(p.passage.Execute, &domain.ExpressionStatement{Code: code})
	return p
}

// Line appends a line of prose. "{expr}" interpolates and trailing "^TAG"
// markers tag the line.
func (p *PassageBuilder) Line(text string) *PassageBuilder {
	p.newline()
	p.passage.Content = append(p.passage.Content, compiler.ParseContent(text)...)
	return p
}

// Render appends a render directive; args is the raw argument list.
func (p *PassageBuilder) Render(name, args string) *PassageBuilder {
	p.passage.Content = append(p.passage.Content, &domain.RenderDirective{Name: name, Args: args})
	return p
}

// Input asks the player for a value stored in the variable name. An empty
// label becomes the title-cased name.
func (p *PassageBuilder) Input(name, label, placeholder string) *PassageBuilder {
	if label == "" {
		label = script.TitleCase(strings.ReplaceAll(name, "_", " "))
	}
	p.passage.Content = append(p.passage.Content, &domain.InputDirective{Name: name, Label: label, Placeholder: placeholder})
	return p
}

// Jump ends the body with an immediate transfer to target.
func (p *PassageBuilder) Jump(target string) *PassageBuilder {
	p.passage.Content = append(p.passage.Content, &domain.Jump{Target: target})
	return p
}

// Choice adds a sticky choice.
func (p *PassageBuilder) Choice(text, target string) *PassageBuilder {
	return p.choice("", text, target, true)
}

// OneTime adds a choice that disappears once taken.
func (p *PassageBuilder) OneTime(text, target string) *PassageBuilder {
	return p.choice("", text, target, false)
}

// ChoiceIf adds a sticky choice shown only while condition holds.
func (p *PassageBuilder) ChoiceIf(condition, text, target string) *PassageBuilder {
	return p.choice(condition, text, target, true)
}

func (p *PassageBuilder) choice(condition, text, target string, sticky bool) *PassageBuilder {
	nodes := compiler.ParseContent(text)
	var tags []string
	if n := len(nodes); n > 0 {
		switch last := nodes[n-1].(type) {
		case *domain.Text:
			tags, last.Tags = last.Tags, nil
		case *domain.Expression:
			tags, last.Tags = last.Tags, nil
		}
	}
	p.passage.Choices = append(p.passage.Choices, domain.Choice{
		Text:      nodes,
		Target:    target,
		Condition: condition,
		Sticky:    sticky,
		Tags:      tags,
	})
	return p
}

func (p *PassageBuilder) newline() {
	if len(p.passage.Content) > 0 {
		p.passage.Content = append(p.passage.Content, &domain.Text{Value: "\n"})
	}
}
