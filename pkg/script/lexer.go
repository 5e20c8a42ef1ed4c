package script

import (
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokInt
	tokFloat
	tokString
	tokFString
	tokOp
	tokNewline
	tokIndent
	tokDedent
)

type token struct {
	kind tokenKind
	text string
	line int
}

var operators = []string{
	"**=", "//=",
	"==", "!=", "<=", ">=", "+=", "-=", "*=", "/=", "%=", "**", "//",
	"+", "-", "*", "/", "%", "<", ">", "=", "(", ")", "[", "]", "{", "}", ",", ":", ".", ";",
}

type lexer struct {
	src    []rune
	pos    int
	line   int
	depth  int
	indent []int
	toks   []token
	bol    bool
}

func tokenize(src string) ([]token, error) {
	lx := &lexer{src: []rune(src), line: 1, indent: []int{0}, bol: true}
	if err := lx.run(); err != nil {
		return nil, err
	}
	return lx.toks, nil
}

func (lx *lexer) emit(kind tokenKind, text string) {
	lx.toks = append(lx.toks, token{kind: kind, text: text, line: lx.line})
}

func (lx *lexer) errorf(format string, args ...any) error {
	e := newError(KindSyntax, format, args...)
	e.Line = lx.line
	return e
}

func (lx *lexer) peekRune(off int) rune {
	if lx.pos+off < len(lx.src) {
		return lx.src[lx.pos+off]
	}
	return 0
}

func (lx *lexer) run() error {
	for lx.pos < len(lx.src) {
		if lx.bol && lx.depth == 0 {
			if err := lx.lineStart(); err != nil {
				return err
			}
			if lx.pos >= len(lx.src) {
				break
			}
		}
		r := lx.src[lx.pos]
		switch {
		case r == '\n':
			lx.pos++
			if lx.depth == 0 {
				lx.emit(tokNewline, "")
				lx.bol = true
			}
			lx.line++
		case r == '\\' && lx.peekRune(1) == '\n':
			lx.pos += 2
			lx.line++
		case r == ' ' || r == '\t' || r == '\r':
			lx.pos++
		case r == '#':
			for lx.pos < len(lx.src) && lx.src[lx.pos] != '\n' {
				lx.pos++
			}
		case isNameStart(r):
			if err := lx.name(); err != nil {
				return err
			}
		case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(lx.peekRune(1))):
			lx.number()
		case r == '"' || r == '\'':
			s, err := lx.str(r)
			if err != nil {
				return err
			}
			lx.emit(tokString, s)
		default:
			if err := lx.op(); err != nil {
				return err
			}
		}
	}
	if n := len(lx.toks); n > 0 && lx.toks[n-1].kind != tokNewline {
		lx.emit(tokNewline, "")
	}
	for len(lx.indent) > 1 {
		lx.indent = lx.indent[:len(lx.indent)-1]
		lx.emit(tokDedent, "")
	}
	lx.emit(tokEOF, "")
	return nil
}

// lineStart measures indentation and emits INDENT/DEDENT. Blank and
// comment-only lines are skipped entirely.
func (lx *lexer) lineStart() error {
	for {
		col := 0
		p := lx.pos
		for p < len(lx.src) && (lx.src[p] == ' ' || lx.src[p] == '\t') {
			col++
			p++
		}
		if p >= len(lx.src) {
			lx.pos = p
			return nil
		}
		if lx.src[p] == '\n' || lx.src[p] == '\r' || lx.src[p] == '#' {
			for p < len(lx.src) && lx.src[p] != '\n' {
				p++
			}
			if p < len(lx.src) {
				p++
				lx.line++
			}
			lx.pos = p
			continue
		}
		lx.pos = p
		lx.bol = false
		top := lx.indent[len(lx.indent)-1]
		switch {
		case col > top:
			lx.indent = append(lx.indent, col)
			lx.emit(tokIndent, "")
		case col < top:
			for col < lx.indent[len(lx.indent)-1] {
				lx.indent = lx.indent[:len(lx.indent)-1]
				lx.emit(tokDedent, "")
			}
			if col != lx.indent[len(lx.indent)-1] {
				return lx.errorf("unindent does not match any outer indentation level")
			}
		}
		return nil
	}
}

func isNameStart(r rune) bool { return r == '_' || unicode.IsLetter(r) }
func isNamePart(r rune) bool  { return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) }

func (lx *lexer) name() error {
	start := lx.pos
	for lx.pos < len(lx.src) && isNamePart(lx.src[lx.pos]) {
		lx.pos++
	}
	word := string(lx.src[start:lx.pos])
	if lx.pos < len(lx.src) && (lx.src[lx.pos] == '"' || lx.src[lx.pos] == '\'') {
		switch strings.ToLower(word) {
		case "f":
			s, err := lx.str(lx.src[lx.pos])
			if err != nil {
				return err
			}
			lx.emit(tokFString, s)
			return nil
		case "r", "u":
			s, err := lx.str(lx.src[lx.pos])
			if err != nil {
				return err
			}
			lx.emit(tokString, s)
			return nil
		}
	}
	lx.emit(tokName, word)
	return nil
}

func (lx *lexer) number() {
	start := lx.pos
	isFloat := false
scan:
	for lx.pos < len(lx.src) {
		r := lx.src[lx.pos]
		switch {
		case unicode.IsDigit(r) || r == '_':
			lx.pos++
		case r == '.' && !isFloat:
			isFloat = true
			lx.pos++
		case (r == 'e' || r == 'E') && (unicode.IsDigit(lx.peekRune(1)) ||
			((lx.peekRune(1) == '-' || lx.peekRune(1) == '+') && unicode.IsDigit(lx.peekRune(2)))):
			isFloat = true
			lx.pos += 2
		default:
			break scan
		}
	}
	text := strings.ReplaceAll(string(lx.src[start:lx.pos]), "_", "")
	if isFloat {
		lx.emit(tokFloat, text)
	} else {
		lx.emit(tokInt, text)
	}
}

func (lx *lexer) str(q rune) (string, error) {
	triple := lx.peekRune(1) == q && lx.peekRune(2) == q
	if triple {
		lx.pos += 3
	} else {
		lx.pos++
	}
	var b strings.Builder
	for {
		if lx.pos >= len(lx.src) {
			return "", lx.errorf("unterminated string literal")
		}
		r := lx.src[lx.pos]
		if r == q {
			if !triple {
				lx.pos++
				return b.String(), nil
			}
			if lx.peekRune(1) == q && lx.peekRune(2) == q {
				lx.pos += 3
				return b.String(), nil
			}
		}
		if r == '\n' {
			if !triple {
				return "", lx.errorf("unterminated string literal")
			}
			lx.line++
		}
		if r == '\\' && lx.pos+1 < len(lx.src) {
			lx.pos++
			switch e := lx.src[lx.pos]; e {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			case '\\', '\'', '"':
				b.WriteRune(e)
			case '\n':
				lx.line++
			default:
				b.WriteRune('\\')
				b.WriteRune(e)
			}
			lx.pos++
			continue
		}
		b.WriteRune(r)
		lx.pos++
	}
}

func (lx *lexer) op() error {
	rest := string(lx.src[lx.pos:min(lx.pos+3, len(lx.src))])
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			switch op {
			case "(", "[", "{":
				lx.depth++
			case ")", "]", "}":
				if lx.depth > 0 {
					lx.depth--
				}
			}
			lx.pos += len([]rune(op))
			lx.emit(tokOp, op)
			return nil
		}
	}
	return lx.errorf("invalid character '%c'", lx.src[lx.pos])
}
