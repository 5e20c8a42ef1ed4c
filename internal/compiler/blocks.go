package compiler

import (
	"regexp"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
)

var loopVarRe = regexp.MustCompile(`^\(?\s*\w+(?:\s*,\s*\w+)*\s*,?\s*\)?$`)

// section is a run of lines together with the unit index of its first line,
// so errors raised inside a dedented block body still point at the source.
type section struct {
	lines []string
	base  int
}

// body accumulates the result of parsing a section. At passage level
// assignments and script blocks become commands; inside blocks they stay in
// the content so they only run when their branch is rendered.
type body struct {
	top     bool
	nodes   domain.Nodes
	choices []domain.Choice
	execute domain.Commands
}

func newBody(top bool) *body {
	return &body{top: top, nodes: domain.Nodes{}, choices: []domain.Choice{}}
}

func (p *parser) parseSection(sec section, b *body) error {
	for i := 0; i < len(sec.lines); {
		n, err := p.parseLine(sec, i, b)
		if err != nil {
			return err
		}
		i += n
	}
	return nil
}

// parseLine handles the line at i and returns how many lines it consumed.
func (p *parser) parseLine(sec section, i int, b *body) (int, error) {
	raw := sec.lines[i]
	c := classify(raw)
	at := sec.base + i
	if c.bad != "" {
		return 0, p.errorAt(at, KindSyntax, c.bad, c.hint)
	}

	switch c.kind {
	case lineBlank:
		b.nodes = append(b.nodes, newline())
	case lineComment:
	case lineHeader:
		return 0, p.errorAt(at, KindSyntax, "Passage header inside a block", "")
	case lineStart:
		return 0, p.errorAt(at, KindSyntax, "@start must appear outside control blocks", "")
	case lineInclude:
		return 0, p.errorAt(at, KindInclude, "@include needs a file path", "Write '@include path/to/file.bard'.")

	case linePyOpen:
		code, n, err := p.extractPy(sec, i)
		if err != nil {
			return 0, err
		}
		if b.top {
			b.execute = append(b.execute, &domain.PythonBlock{Code: code})
		} else {
			b.nodes = append(b.nodes, &domain.PythonBlock{Code: code})
		}
		return n, nil

	case lineIf:
		cond, n, err := p.extractConditional(sec, i)
		if err != nil {
			return 0, err
		}
		b.nodes = append(b.nodes, cond)
		return n, nil

	case lineFor:
		loop, n, err := p.extractLoop(sec, i)
		if err != nil {
			return 0, err
		}
		b.nodes = append(b.nodes, loop)
		return n, nil

	case lineElif, lineElse, lineEndIf:
		return 0, p.errorAt(at, KindMismatched, "'"+strings.TrimSpace(raw)+"' without a matching @if", "Open the conditional with '@if condition:' or '<<if condition>>'.")
	case lineEndFor:
		return 0, p.errorAt(at, KindMismatched, "'"+strings.TrimSpace(raw)+"' without a matching @for", "")
	case linePyClose:
		return 0, p.errorAt(at, KindMismatched, "@endpy without a matching @py:", "")

	case lineRender:
		d, warn := parseRenderLine(raw)
		if warn != "" {
			p.warn(at, warn)
			break
		}
		b.nodes = append(b.nodes, d)

	case lineInput:
		d, warn := parseInputLine(raw)
		if warn != "" {
			p.warn(at, warn)
			break
		}
		b.nodes = append(b.nodes, d)

	case lineJump:
		s, _ := stripInlineComment(strings.TrimSpace(raw))
		m := jumpRe.FindStringSubmatch(strings.TrimSpace(s))
		if m == nil {
			return 0, p.errorAt(at, KindSyntax, "Invalid jump", "Write '-> PassageName'.")
		}
		b.nodes = append(b.nodes, &domain.Jump{Target: m[1]})

	case lineAssign:
		expr, _ := stripInlineComment(c.arg)
		expr, n := collectMultiline(sec.lines, i, expr)
		node, err := assignmentNode(expr)
		if err != nil {
			return 0, p.errorAt(at, KindSyntax, err.Error(), "Assignments look like '~ name = expression' or '~ name += expression'.")
		}
		if b.top {
			b.execute = append(b.execute, node)
		} else {
			b.nodes = append(b.nodes, node)
		}
		return n, nil

	case lineChoice:
		choice, ok := parseChoiceLine(raw)
		if !ok {
			return 0, p.errorAt(at, KindSyntax, "Malformed choice", "Choices look like '+ [Text] -> Target' or '* {condition} [Text] -> Target'.")
		}
		b.choices = append(b.choices, choice)

	default:
		text := strings.TrimRight(raw, " \t")
		if glued, ok := strings.CutSuffix(text, "<>"); ok {
			b.nodes = append(b.nodes, parseContentLine(glued)...)
			break
		}
		b.nodes = append(b.nodes, parseContentLine(raw)...)
		b.nodes = append(b.nodes, newline())
	}
	return 1, nil
}

func newline() *domain.Text { return &domain.Text{Value: "\n"} }

// extractPy returns the code of a script block opened at i and the number of
// lines consumed including both delimiters. The <<py form is dedented
// relative to its first non-blank line; the @py: form is kept verbatim.
func (p *parser) extractPy(sec section, i int) (string, int, error) {
	open := classify(sec.lines[i])
	var code []string
	for j := i + 1; j < len(sec.lines); j++ {
		s := strings.TrimSpace(sec.lines[j])
		if (open.bracket && s == ">>") || (!open.bracket && s == "@endpy") {
			if open.bracket {
				code = dedent(code)
			}
			return strings.Join(code, "\n"), j - i + 1, nil
		}
		if !open.bracket && s == "@endpy:" {
			return "", 0, p.errorAt(sec.base+j, KindSyntax, "@endpy should not have a colon", closerHint)
		}
		if strings.HasPrefix(sec.lines[j], ":: ") {
			break
		}
		code = append(code, sec.lines[j])
	}
	return "", 0, p.unclosed(sec.base+i, blockPy, open.bracket)
}

// extractConditional parses an if / elif / else block opened at i. Nested
// conditionals are skipped over by depth so their arms do not split ours.
func (p *parser) extractConditional(sec section, i int) (*domain.Conditional, int, error) {
	open := classify(sec.lines[i])
	type arm struct {
		cond     string
		from, to int
	}
	arms := []arm{{cond: open.arg, from: i + 1}}
	depth, sawElse := 0, false

	for j := i + 1; j < len(sec.lines); j++ {
		c := classify(sec.lines[j])
		if c.bad != "" {
			return nil, 0, p.errorAt(sec.base+j, KindSyntax, c.bad, c.hint)
		}
		switch c.kind {
		case lineHeader:
			return nil, 0, p.unclosed(sec.base+i, blockIf, open.bracket)
		case linePyOpen:
			_, n, err := p.extractPy(sec, j)
			if err != nil {
				return nil, 0, err
			}
			j += n - 1
		case lineIf:
			depth++
		case lineElif, lineElse:
			if depth > 0 {
				continue
			}
			if sawElse {
				return nil, 0, p.errorAt(sec.base+j, KindMismatched, "'"+strings.TrimSpace(sec.lines[j])+"' after the else branch", "The else branch must be the last one.")
			}
			arms[len(arms)-1].to = j
			arms = append(arms, arm{cond: c.arg, from: j + 1})
			sawElse = c.kind == lineElse
		case lineEndIf:
			if depth > 0 {
				depth--
				continue
			}
			arms[len(arms)-1].to = j
			node := &domain.Conditional{}
			for _, a := range arms {
				b := newBody(false)
				if err := p.parseSection(section{lines: dedent(sec.lines[a.from:a.to]), base: sec.base + a.from}, b); err != nil {
					return nil, 0, err
				}
				br := domain.Branch{Condition: a.cond, Content: b.nodes}
				if len(b.choices) > 0 {
					br.Choices = b.choices
				}
				node.Branches = append(node.Branches, br)
			}
			return node, j - i + 1, nil
		}
	}
	return nil, 0, p.unclosed(sec.base+i, blockIf, open.bracket)
}

// extractLoop parses a for block opened at i. The loop variable may be a
// comma separated list for tuple unpacking.
func (p *parser) extractLoop(sec section, i int) (*domain.ForLoop, int, error) {
	open := classify(sec.lines[i])
	variable, collection, ok := splitLoopHeader(open.arg)
	if !ok || !loopVarRe.MatchString(variable) {
		return nil, 0, p.errorAt(sec.base+i, KindSyntax, "Invalid loop header: "+open.arg, "Write '@for item in collection:' or '@for key, value in pairs:'.")
	}
	variable = strings.Trim(variable, "() ")

	depth := 0
	for j := i + 1; j < len(sec.lines); j++ {
		c := classify(sec.lines[j])
		if c.bad != "" {
			return nil, 0, p.errorAt(sec.base+j, KindSyntax, c.bad, c.hint)
		}
		switch c.kind {
		case lineHeader:
			return nil, 0, p.unclosed(sec.base+i, blockFor, open.bracket)
		case linePyOpen:
			_, n, err := p.extractPy(sec, j)
			if err != nil {
				return nil, 0, err
			}
			j += n - 1
		case lineFor:
			depth++
		case lineEndFor:
			if depth > 0 {
				depth--
				continue
			}
			b := newBody(false)
			if err := p.parseSection(section{lines: dedent(sec.lines[i+1 : j]), base: sec.base + i + 1}, b); err != nil {
				return nil, 0, err
			}
			loop := &domain.ForLoop{Variable: variable, Collection: collection, Content: b.nodes}
			if len(b.choices) > 0 {
				loop.Choices = b.choices
			}
			return loop, j - i + 1, nil
		}
	}
	return nil, 0, p.unclosed(sec.base+i, blockFor, open.bracket)
}
