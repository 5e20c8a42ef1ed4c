package runtime

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/script"
)

// renderer walks the content tree of one passage.
type renderer struct {
	e          *Engine
	passage    *domain.Passage
	text       strings.Builder
	choices    []domain.ChoiceView
	directives []domain.RenderedDirective
	inputs     []domain.InputRequest
}

func newRenderer(e *Engine, p *domain.Passage) *renderer {
	return &renderer{e: e, passage: p}
}

// render renders nodes in order. It stops at the first jump and returns its
// target; siblings after the jump are not rendered.
func (r *renderer) render(nodes domain.Nodes) (string, error) {
	for _, n := range nodes {
		jump, err := r.renderNode(n)
		if err != nil || jump != "" {
			return jump, err
		}
	}
	return "", nil
}

func (r *renderer) renderNode(n domain.ContentNode) (string, error) {
	switch node := n.(type) {
	case *domain.Text:
		r.text.WriteString(node.Value)
	case *domain.Expression:
		r.text.WriteString(r.e.interpolate(r.passage.ID, node.Code))
	case *domain.Conditional:
		return r.renderConditional(node)
	case *domain.ForLoop:
		return r.renderLoop(node)
	case *domain.Jump:
		return node.Target, nil
	case *domain.PythonBlock, *domain.SetVar, *domain.ExpressionStatement:
		if err := r.e.runCommand(node); err != nil {
			return "", &CommandError{PassageID: r.passage.ID, Command: describeCommand(node), Err: err}
		}
	case *domain.RenderDirective:
		r.directives = append(r.directives, r.e.renderDirective(r.passage.ID, node, len(r.directives)))
	case *domain.InputDirective:
		r.inputs = append(r.inputs, domain.InputRequest{
			Name:        node.Name,
			Label:       node.Label,
			Placeholder: node.Placeholder,
		})
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownNodeType, n.Kind())
	}
	return "", nil
}

// renderConditional renders the first branch whose condition holds. Later
// conditions are never evaluated.
func (r *renderer) renderConditional(c *domain.Conditional) (string, error) {
	for _, br := range c.Branches {
		if !r.e.condition(r.passage.ID, br.Condition) {
			continue
		}
		jump, err := r.render(br.Content)
		if err != nil || jump != "" {
			return jump, err
		}
		r.choices = append(r.choices, r.offer(br.Choices, false)...)
		return "", nil
	}
	return "", nil
}

// renderLoop renders the body once per element. Loop variables are
// restored afterwards so they never leak into the story state.
func (r *renderer) renderLoop(l *domain.ForLoop) (string, error) {
	coll, err := r.e.env.Eval(l.Collection)
	var items []script.Value
	if err == nil {
		items, err = script.Iterate(coll)
	}
	if err != nil {
		r.e.logger.Warn("loop collection failed", "passage", r.passage.ID, "expr", l.Collection, "err", err)
		r.text.WriteString(errorMarker(l.Collection, err))
		return "", nil
	}

	names := loopNames(l.Variable)
	saved := r.e.saveVars(names)
	defer r.e.restoreVars(saved)

	for _, item := range items {
		if err := r.e.bindLoopVars(names, item); err != nil {
			r.e.logger.Warn("loop unpacking failed", "passage", r.passage.ID, "var", l.Variable, "err", err)
			r.text.WriteString(errorMarker(l.Variable, err))
			return "", nil
		}
		jump, err := r.render(l.Content)
		if err != nil || jump != "" {
			return jump, err
		}
		r.choices = append(r.choices, r.offer(l.Choices, true)...)
	}
	return "", nil
}

// offer filters and renders choices. Choices declared inside a loop are
// identified by their rendered text, since one declaration yields a
// different choice per iteration.
func (r *renderer) offer(choices []domain.Choice, inLoop bool) []domain.ChoiceView {
	views := make([]domain.ChoiceView, 0, len(choices))
	for _, c := range choices {
		key := domain.ChoiceKey{Passage: r.passage.ID, Text: c.Source(), Target: c.Target}
		var text string
		if inLoop {
			text = r.e.renderTokens(r.passage.ID, c.Text)
			key.Text = text
		}
		if !r.e.choiceAvailable(c, key) {
			continue
		}
		if !inLoop {
			text = r.e.renderTokens(r.passage.ID, c.Text)
		}
		views = append(views, domain.ChoiceView{
			Text:   text,
			Target: c.Target,
			Sticky: c.Sticky,
			Tags:   c.Tags,
			Key:    key,
		})
	}
	return views
}

func (r *renderer) passageChoices(choices []domain.Choice) []domain.ChoiceView {
	return r.offer(choices, false)
}

func (e *Engine) renderTokens(passage string, tokens domain.Nodes) string {
	var b strings.Builder
	for _, tok := range tokens {
		switch t := tok.(type) {
		case *domain.Text:
			b.WriteString(t.Value)
		case *domain.Expression:
			b.WriteString(e.interpolate(passage, t.Code))
		}
	}
	return strings.TrimSpace(b.String())
}

// interpolate evaluates an expression node. Failures are rendered inline as
// an error marker so the rest of the passage still renders.
func (e *Engine) interpolate(passage, code string) string {
	expr, spec := script.SplitFormatSpec(code)
	v, err := e.env.Eval(strings.TrimSpace(expr))
	if err == nil && spec != "" {
		v, err = script.Format(v, spec)
	}
	if err != nil {
		e.logger.Warn("interpolation failed", "passage", passage, "expr", code, "err", err)
		return errorMarker(code, err)
	}
	return script.Str(v)
}

// condition evaluates a branch condition. Errors count as false.
func (e *Engine) condition(passage, code string) bool {
	v, err := e.env.Eval(code)
	if err != nil {
		e.logger.Warn("branch condition failed", "passage", passage, "expr", code, "err", err)
		return false
	}
	return script.Truthy(v)
}

func errorMarker(code string, err error) string {
	if _, ok := script.IsUndefinedName(err); ok {
		return fmt.Sprintf("{ERROR: undefined variable '%s'}", code)
	}
	var se *script.Error
	if errors.As(err, &se) {
		return fmt.Sprintf("{ERROR: %s - %s: %s}", code, se.Kind, se.Msg)
	}
	return fmt.Sprintf("{ERROR: %s - %v}", code, err)
}

type savedVar struct {
	name    string
	value   script.Value
	present bool
}

func loopNames(variable string) []string {
	parts := strings.Split(variable, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			names = append(names, p)
		}
	}
	return names
}

func (e *Engine) saveVars(names []string) []savedVar {
	saved := make([]savedVar, len(names))
	for i, name := range names {
		v, ok := e.env.Vars[name]
		saved[i] = savedVar{name: name, value: v, present: ok}
	}
	return saved
}

func (e *Engine) restoreVars(saved []savedVar) {
	for _, s := range saved {
		if s.present {
			e.env.Vars[s.name] = s.value
		} else {
			delete(e.env.Vars, s.name)
		}
	}
}

func (e *Engine) bindLoopVars(names []string, item script.Value) error {
	if len(names) == 1 {
		e.env.Vars[names[0]] = item
		return nil
	}
	parts, err := script.Iterate(item)
	if err != nil {
		return err
	}
	if len(parts) != len(names) {
		return fmt.Errorf("cannot unpack %d values into %d names", len(parts), len(names))
	}
	for i, name := range names {
		e.env.Vars[name] = parts[i]
	}
	return nil
}
