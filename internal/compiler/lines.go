package compiler

import (
	"regexp"
	"strings"
)

type lineKind int

const (
	lineBlank lineKind = iota
	lineComment
	lineStart
	lineHeader
	linePyOpen
	linePyClose
	lineIf
	lineElif
	lineElse
	lineEndIf
	lineFor
	lineEndFor
	lineRender
	lineInput
	lineJump
	lineAssign
	lineChoice
	lineInclude
	lineDirective
	lineText
)

// blockKind is the internal form of a control block. Both surface spellings
// (<<if x>> and @if x:) collapse to the same kind at classification time.
type blockKind int

const (
	blockIf blockKind = iota
	blockFor
	blockPy
)

func (k blockKind) opener() string {
	switch k {
	case blockFor:
		return "@for"
	case blockPy:
		return "@py"
	default:
		return "@if"
	}
}

func (k blockKind) closer() string {
	switch k {
	case blockFor:
		return "@endfor"
	case blockPy:
		return "@endpy"
	default:
		return "@endif"
	}
}

// line is one classified source line.
type line struct {
	kind lineKind
	raw  string
	// arg is the payload: a condition, loop header, passage header, start
	// target or assignment body depending on kind.
	arg string
	// bracket marks the <<...>> spelling.
	bracket bool
	// bad describes a malformed structural line; hint suggests a fix.
	bad  string
	hint string
}

var choiceLineRe = regexp.MustCompile(`^\{[^}]+\}\s*[+*]\s`)

const closerHint = "Only opening tags (@if, @elif, @else, @for, @py) use colons. Closing tags (@endif, @endfor, @endpy) do not."

// classify assigns a kind to raw by fixed prefix precedence.
func classify(raw string) line {
	s := strings.TrimSpace(raw)
	l := line{raw: raw}

	switch {
	case s == "":
		l.kind = lineBlank
	case strings.HasPrefix(s, "@start ") || s == "@start":
		l.kind = lineStart
		target, _ := stripInlineComment(strings.TrimPrefix(s, "@start"))
		l.arg = strings.TrimSpace(target)
		if l.arg == "" {
			l.bad = "@start needs a passage name"
			l.hint = "Write '@start PassageName'."
		}
	case strings.HasPrefix(raw, ":: "):
		l.kind = lineHeader
		l.arg = strings.TrimSpace(raw[3:])
	case strings.HasPrefix(s, "#"):
		l.kind = lineComment
	case s == "<<py" || strings.HasPrefix(s, "<<py "):
		l.kind, l.bracket = linePyOpen, true
	case s == "@py" || strings.HasPrefix(s, "@py:") || strings.HasPrefix(s, "@py "):
		l.kind = linePyOpen
		if s != "@py:" {
			l.bad = "@py statement must be exactly '@py:'"
			l.hint = "Put the code on the following lines and close the block with @endpy."
		}
	case s == "@endpy":
		l.kind = linePyClose
	case s == "@endpy:":
		l.kind, l.bad, l.hint = linePyClose, "@endpy should not have a colon", closerHint
	case strings.HasPrefix(s, "<<if "):
		l.kind, l.bracket = lineIf, true
		l.arg, l.bad = bracketArg(s, "<<if ")
	case strings.HasPrefix(s, "@if "):
		l.kind = lineIf
		l.arg, l.bad, l.hint = colonArg(s, "@if ")
	case strings.HasPrefix(s, "<<elif "):
		l.kind, l.bracket = lineElif, true
		l.arg, l.bad = bracketArg(s, "<<elif ")
	case strings.HasPrefix(s, "@elif "):
		l.kind = lineElif
		l.arg, l.bad, l.hint = colonArg(s, "@elif ")
	case s == "<<else>>":
		l.kind, l.bracket, l.arg = lineElse, true, "True"
	case strings.HasPrefix(s, "@else"):
		l.kind, l.arg = lineElse, "True"
		if body, _ := stripInlineComment(s); strings.TrimSpace(body) != "@else:" {
			l.bad = "@else must be written exactly as '@else:'"
			l.hint = "Conditions belong on @elif. Use '@else:' on its own line."
		}
	case s == "<<endif>>":
		l.kind, l.bracket = lineEndIf, true
	case s == "@endif":
		l.kind = lineEndIf
	case s == "@endif:":
		l.kind, l.bad, l.hint = lineEndIf, "@endif should not have a colon", closerHint
	case strings.HasPrefix(s, "<<for "):
		l.kind, l.bracket = lineFor, true
		l.arg, l.bad = bracketArg(s, "<<for ")
	case strings.HasPrefix(s, "@for "):
		l.kind = lineFor
		l.arg, l.bad, l.hint = colonArg(s, "@for ")
	case s == "<<endfor>>":
		l.kind, l.bracket = lineEndFor, true
	case s == "@endfor":
		l.kind = lineEndFor
	case s == "@endfor:":
		l.kind, l.bad, l.hint = lineEndFor, "@endfor should not have a colon", closerHint
	case strings.HasPrefix(s, "@render"):
		l.kind = lineRender
	case strings.HasPrefix(s, "@input"):
		l.kind = lineInput
	case strings.HasPrefix(s, "@include ") || s == "@include":
		l.kind = lineInclude
		l.arg = strings.TrimSpace(strings.TrimPrefix(s, "@include"))
	case strings.HasPrefix(s, "->"):
		l.kind = lineJump
	case strings.HasPrefix(s, "~ ") || s == "~":
		l.kind = lineAssign
		l.arg = strings.TrimSpace(s[1:])
	case strings.HasPrefix(s, "+ ") || strings.HasPrefix(s, "* ") || choiceLineRe.MatchString(s):
		l.kind = lineChoice
	case strings.HasPrefix(s, "@"):
		l.kind = lineDirective
		l.bad = "Unrecognized directive: " + strings.Fields(s)[0]
		l.hint = "Check for typos in directives. Valid directives: @if, @elif, @else, @endif, @for, @endfor, @py, @endpy, @include, @render, @input, @start, @metadata"
	default:
		l.kind = lineText
	}
	return l
}

// colonArg extracts the payload of "@if cond:" style lines.
func colonArg(s, prefix string) (arg, bad, hint string) {
	body, _ := stripInlineComment(s)
	body = strings.TrimSpace(body)
	name := strings.TrimSpace(prefix)
	if !strings.HasSuffix(body, ":") {
		return "", name + " statement missing colon", "Write '" + name + " <expression>:'."
	}
	arg = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(body, prefix), ":"))
	if arg == "" {
		return "", name + " statement missing expression", ""
	}
	return arg, "", ""
}

// bracketArg extracts the payload of "<<if cond>>" style lines.
func bracketArg(s, prefix string) (arg, bad string) {
	body, _ := stripInlineComment(s)
	body = strings.TrimSpace(body)
	end := strings.LastIndex(body, ">>")
	if end < len(prefix) {
		return "", strings.TrimSpace(prefix) + " statement missing closing '>>'"
	}
	arg = strings.TrimSpace(body[len(prefix):end])
	if arg == "" {
		return "", strings.TrimSpace(prefix) + " statement missing expression"
	}
	return arg, ""
}

var loopHeaderRe = regexp.MustCompile(`^(.+?)\s+in\s+(.+)$`)

// splitLoopHeader parses "x, y in expr".
func splitLoopHeader(arg string) (variable, collection string, ok bool) {
	m := loopHeaderRe.FindStringSubmatch(arg)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(m[2]), true
}

// dedent strips the indentation of the first non-blank line from every line
// indented at least that much. Blank lines and shallower lines pass through.
func dedent(lines []string) []string {
	base := -1
	for _, l := range lines {
		if strings.TrimSpace(l) != "" {
			base = len(l) - len(strings.TrimLeft(l, " \t"))
			break
		}
	}
	if base <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if strings.TrimSpace(l) == "" {
			out[i] = l
			continue
		}
		if len(l)-len(strings.TrimLeft(l, " \t")) >= base {
			out[i] = l[base:]
		} else {
			out[i] = l
		}
	}
	return out
}
