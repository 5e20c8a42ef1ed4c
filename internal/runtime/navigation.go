package runtime

import (
	"context"
	"fmt"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/script"
)

// Goto enters passage id: its commands run once, its content is rendered
// and any jump is followed until a passage renders without one. The text of
// every passage in the chain is joined; choices come from the last one.
func (e *Engine) Goto(ctx context.Context, id string) (*domain.Output, error) {
	return e.enter(ctx, id, true)
}

// Choose takes the choice at index in the current output.
func (e *Engine) Choose(ctx context.Context, index int) (*domain.Output, error) {
	if e.output == nil {
		return nil, domain.ErrNoOutput
	}
	if index < 0 || index >= len(e.output.Choices) {
		return nil, fmt.Errorf("%w: %d (have %d)", domain.ErrChoiceOutOfRange, index, len(e.output.Choices))
	}
	choice := e.output.Choices[index]
	if !choice.Sticky {
		e.used[choice.Key] = true
	}
	e.emitChoice(ctx, index, choice)
	return e.Goto(ctx, choice.Target)
}

// ResetOneTimeChoices makes every used one-time choice available again.
func (e *Engine) ResetOneTimeChoices() {
	e.used = make(map[domain.ChoiceKey]bool)
}

// enter runs a jump chain starting at id. With execute false the first
// passage is rendered without running its commands.
func (e *Engine) enter(ctx context.Context, id string, execute bool) (_ *domain.Output, err error) {
	if _, ok := e.doc.Passages[id]; !ok {
		return nil, fmt.Errorf("%w: '%s'", domain.ErrPassageNotFound, id)
	}
	prev := e.currentID
	defer func() {
		if err != nil {
			e.currentID = prev
		}
	}()

	out := &domain.Output{
		Choices:          []domain.ChoiceView{},
		RenderDirectives: []domain.RenderedDirective{},
		InputDirectives:  []domain.InputRequest{},
	}
	var texts []string
	from := e.currentID
	visited := make(map[string]bool)

	for {
		if visited[id] {
			return nil, &JumpCycleError{Path: append(out.Path, id)}
		}
		visited[id] = true
		out.Path = append(out.Path, id)

		passage, ok := e.doc.Passages[id]
		if !ok {
			return nil, fmt.Errorf("jump from '%s': %w: '%s'", from, domain.ErrPassageNotFound, id)
		}
		if len(out.Path) == 1 {
			e.emitPassageEnter(ctx, id, from)
		} else {
			e.emitJump(ctx, id, from)
		}
		// Commands see the passage as current so story prints are attributed to it.
		e.currentID = id

		if execute || len(out.Path) > 1 {
			if err = e.runCommands(passage); err != nil {
				return nil, err
			}
		}

		r := newRenderer(e, passage)
		jump, err := r.render(passage.Content)
		if err != nil {
			return nil, err
		}
		if text := strings.TrimRight(r.text.String(), "\n"); text != "" {
			texts = append(texts, text)
		}
		out.RenderDirectives = append(out.RenderDirectives, r.directives...)
		out.InputDirectives = append(out.InputDirectives, r.inputs...)

		if jump == "" {
			out.Choices = append(out.Choices, r.choices...)
			out.Choices = append(out.Choices, r.passageChoices(passage.Choices)...)
			break
		}
		e.logger.Debug("following jump", "from", id, "to", jump)
		from, id = id, jump
	}

	out.PassageID = id
	out.Content = strings.Join(texts, "\n\n")
	e.output = out
	return out, nil
}

func (e *Engine) runCommands(p *domain.Passage) error {
	for _, cmd := range p.Execute {
		if err := e.runCommand(cmd); err != nil {
			return &CommandError{PassageID: p.ID, Command: describeCommand(cmd), Err: err}
		}
	}
	return nil
}

func (e *Engine) runCommand(cmd domain.Command) error {
	switch c := cmd.(type) {
	case *domain.SetVar:
		return e.env.Exec(c.Var + " = " + c.Expression)
	case *domain.ExpressionStatement:
		_, err := e.env.Eval(c.Code)
		return err
	case *domain.PythonBlock:
		return e.env.Exec(c.Code)
	}
	return fmt.Errorf("%w: %q is not a command", domain.ErrUnknownNodeType, cmd.Kind())
}

// choiceAvailable hides used one-time choices and choices whose condition
// is false. A condition that fails to evaluate counts as false.
func (e *Engine) choiceAvailable(c domain.Choice, key domain.ChoiceKey) bool {
	if !c.Sticky && e.used[key] {
		return false
	}
	if c.Condition == "" {
		return true
	}
	v, err := e.env.Eval(c.Condition)
	if err != nil {
		e.logger.Warn("choice condition failed", "passage", key.Passage, "expr", c.Condition, "err", err)
		return false
	}
	return script.Truthy(v)
}
