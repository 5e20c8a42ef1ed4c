package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/script"
)

var (
	renderHintRe = regexp.MustCompile(`^:(\w+)\s+(.+)$`)
	renderCallRe = regexp.MustCompile(`^(\w+)(?:\((.*)\))?$`)
	inputAttrRe  = regexp.MustCompile(`(\w+)="([^"]*)"`)
)

// parseRenderLine parses "@render[:hint] name(args)". A malformed directive
// yields a warning instead of a node.
func parseRenderLine(s string) (*domain.RenderDirective, string) {
	s, _ = stripInlineComment(strings.TrimSpace(s))
	s = strings.TrimSpace(s)
	after := strings.TrimPrefix(s, "@render")

	var hint, call string
	switch {
	case strings.HasPrefix(after, ":"):
		m := renderHintRe.FindStringSubmatch(after)
		if m == nil {
			return nil, "invalid @render:framework syntax: " + s
		}
		hint, call = m[1], m[2]
	case strings.TrimSpace(after) != "":
		call = strings.TrimSpace(after)
	default:
		return nil, "empty @render directive"
	}

	m := renderCallRe.FindStringSubmatch(strings.TrimSpace(call))
	if m == nil {
		return nil, "invalid directive syntax: " + call
	}
	return &domain.RenderDirective{
		Name:          m[1],
		Args:          strings.TrimSpace(m[2]),
		FrameworkHint: hint,
	}, ""
}

// parseInputLine parses `@input name="x" label="..." placeholder="..."`.
// The label defaults to the title-cased name.
func parseInputLine(s string) (*domain.InputDirective, string) {
	s, _ = stripInlineComment(strings.TrimSpace(s))
	after := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "@input"))
	if after == "" {
		return nil, "empty @input directive"
	}
	attrs := map[string]string{}
	for _, m := range inputAttrRe.FindAllStringSubmatch(after, -1) {
		attrs[m[1]] = m[2]
	}
	name, ok := attrs["name"]
	if !ok {
		return nil, "@input directive missing 'name' attribute: " + s
	}
	label, ok := attrs["label"]
	if !ok {
		label = script.TitleCase(strings.ReplaceAll(name, "_", " "))
	}
	return &domain.InputDirective{Name: name, Label: label, Placeholder: attrs["placeholder"]}, ""
}

// augmentedOps in match order.
var augmentedOps = []string{"//=", "**=", "+=", "-=", "*=", "/=", "%="}

// splitAssignment finds the assignment operator of a "~" body at bracket
// depth zero and outside strings. op is "=" or an augmented operator; it is
// empty for a bare expression statement.
func splitAssignment(body string) (target, op, value string) {
	depth := 0
	var quote byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth != 0 {
				continue
			}
			if i+1 < len(body) && body[i+1] == '=' {
				i++
				continue
			}
			if i > 0 && strings.ContainsRune("<>!", rune(body[i-1])) {
				continue
			}
			for _, aug := range augmentedOps {
				start := i + 1 - len(aug)
				if start >= 0 && body[start:i+1] == aug {
					return strings.TrimSpace(body[:start]), aug, strings.TrimSpace(body[i+1:])
				}
			}
			return strings.TrimSpace(body[:i]), "=", strings.TrimSpace(body[i+1:])
		}
	}
	return "", "", strings.TrimSpace(body)
}

// bracketBalance counts unclosed brackets outside strings.
func bracketBalance(s string) int {
	depth := 0
	var quote byte
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth
}

// collectMultiline extends expr with the following lines until its brackets
// balance. It returns the joined expression and the number of lines used,
// counting the first.
func collectMultiline(lines []string, i int, expr string) (string, int) {
	depth := bracketBalance(expr)
	if depth <= 0 {
		return expr, 1
	}
	parts := []string{expr}
	j := i + 1
	for ; j < len(lines) && depth > 0; j++ {
		l, _ := stripInlineComment(lines[j])
		parts = append(parts, l)
		depth += bracketBalance(l)
	}
	return strings.Join(parts, "\n"), j - i
}

// assignmentNode builds the node for a "~" line. Augmented assignment is
// desugared to "x = x op (e)".
func assignmentNode(body string) (domain.ContentNode, error) {
	target, op, value := splitAssignment(body)
	if op == "" {
		if _, err := script.ParseExpr(value); err != nil {
			return nil, err
		}
		return &domain.ExpressionStatement{Code: value}, nil
	}
	if target == "" || value == "" {
		return nil, fmt.Errorf("incomplete assignment %q", body)
	}
	if _, err := script.ParseExpr(target); err != nil {
		return nil, fmt.Errorf("invalid assignment target %q: %w", target, err)
	}
	if op != "=" {
		value = fmt.Sprintf("%s %s (%s)", target, strings.TrimSuffix(op, "="), value)
	}
	return &domain.SetVar{Var: target, Expression: value}, nil
}
