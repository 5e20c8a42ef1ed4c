package runtime

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/script"
)

// PostProcessor adds framework-specific fields to an evaluated directive.
// index counts the directives already rendered in the passage.
type PostProcessor func(d *domain.RenderedDirective, passageID string, index int)

// ReactPostProcessor adds a "react" payload with a PascalCase component
// name, a key unique within the passage and the evaluated data as props.
func ReactPostProcessor(d *domain.RenderedDirective, passageID string, index int) {
	props := d.Data
	if props == nil {
		props = map[string]any{}
	}
	if d.Framework == nil {
		d.Framework = map[string]any{}
	}
	d.Framework["react"] = map[string]any{
		"componentName": pascalCase(d.Name),
		"key":           fmt.Sprintf("%s_%s_%d", d.Name, passageID, index),
		"props":         props,
	}
}

func pascalCase(name string) string {
	var b strings.Builder
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	}) {
		runes := []rune(word)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(string(runes[1:]))
	}
	return b.String()
}

// renderDirective evaluates a directive's arguments as a call argument
// list: positional values are keyed arg_0, arg_1 and so on.
func (e *Engine) renderDirective(passageID string, d *domain.RenderDirective, index int) domain.RenderedDirective {
	out := domain.RenderedDirective{Name: d.Name, FrameworkHint: d.FrameworkHint}
	if !e.evaluateDirectives {
		out.Mode = domain.RenderModeRaw
		out.RawArgs = d.Args
		return out
	}

	out.Mode = domain.RenderModeEvaluated
	pos, kwargs, err := e.env.EvalCallArgs(d.Args)
	if err != nil {
		e.logger.Warn("directive arguments failed", "passage", passageID, "directive", d.Name, "err", err)
		out.Error = err.Error()
		out.RawArgs = d.Args
		return out
	}
	data := make(map[string]any, len(pos)+len(kwargs))
	for i, v := range pos {
		data[fmt.Sprintf("arg_%d", i)] = script.ToGo(v)
	}
	for k, v := range kwargs {
		data[k] = script.ToGo(v)
	}
	out.Data = data

	if d.FrameworkHint != "" {
		if p, ok := e.postProcessors[d.FrameworkHint]; ok {
			p(&out, passageID, index)
		}
	}
	return out
}
