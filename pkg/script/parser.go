package script

import (
	"strconv"
	"strings"
)

type parser struct {
	toks []token
	pos  int
}

// ParseExpr parses a single expression. Trailing newlines are ignored.
func ParseExpr(src string) (Expr, error) {
	toks, err := tokenize(strings.TrimSpace(src))
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	e, err := p.exprList()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokNewline {
		p.next()
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, p.errorf(t, "unexpected %s", describe(t))
	}
	return e, nil
}

// ParseProgram parses a statement block.
func ParseProgram(src string) (*Program, error) {
	toks, err := tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	var body []Stmt
	for p.peek().kind != tokEOF {
		if p.peek().kind == tokNewline {
			p.next()
			continue
		}
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	return &Program{Body: body}, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(off int) token {
	if p.pos+off < len(p.toks) {
		return p.toks[p.pos+off]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == text
}

func (p *parser) isKeyword(word string) bool {
	t := p.peek()
	return t.kind == tokName && t.text == word
}

func (p *parser) expectOp(text string) error {
	t := p.next()
	if t.kind != tokOp || t.text != text {
		return p.errorf(t, "expected '%s', got %s", text, describe(t))
	}
	return nil
}

func (p *parser) expectKeyword(word string) error {
	t := p.next()
	if t.kind != tokName || t.text != word {
		return p.errorf(t, "expected '%s', got %s", word, describe(t))
	}
	return nil
}

func (p *parser) errorf(t token, format string, args ...any) error {
	e := newError(KindSyntax, format, args...)
	e.Line = t.line
	return e
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of input"
	case tokNewline:
		return "end of line"
	case tokIndent:
		return "indent"
	case tokDedent:
		return "dedent"
	case tokString, tokFString:
		return "string literal"
	}
	return "'" + t.text + "'"
}

var keywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"if": true, "else": true, "elif": true, "for": true, "while": true,
	"break": true, "continue": true, "pass": true, "del": true,
	"import": true, "from": true, "as": true,
}

// Binding powers for infix operators.
const (
	bpNone    = 0
	bpOr      = 20
	bpAnd     = 30
	bpNot     = 40
	bpCompare = 50
	bpSum     = 60
	bpProduct = 70
	bpUnary   = 80
	bpPower   = 90
)

func (p *parser) lbp(t token) int {
	switch t.kind {
	case tokName:
		switch t.text {
		case "or":
			return bpOr
		case "and":
			return bpAnd
		case "in", "is":
			return bpCompare
		case "not":
			if n := p.peekAt(1); n.kind == tokName && n.text == "in" {
				return bpCompare
			}
		}
	case tokOp:
		switch t.text {
		case "==", "!=", "<", ">", "<=", ">=":
			return bpCompare
		case "+", "-":
			return bpSum
		case "*", "/", "//", "%":
			return bpProduct
		case "**":
			return bpPower
		}
	}
	return bpNone
}

// exprList parses a comma separated expression list, producing a tuple when
// more than one element (or a trailing comma) is present.
func (p *parser) exprList() (Expr, error) {
	first, err := p.test()
	if err != nil {
		return nil, err
	}
	if !p.isOp(",") {
		return first, nil
	}
	elts := []Expr{first}
	for p.isOp(",") {
		p.next()
		if p.atExprEnd() {
			break
		}
		e, err := p.test()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	return &TupleExpr{Elts: elts}, nil
}

func (p *parser) atExprEnd() bool {
	t := p.peek()
	switch t.kind {
	case tokEOF, tokNewline:
		return true
	case tokOp:
		switch t.text {
		case ")", "]", "}", "=", ":", ";":
			return true
		}
		return strings.HasSuffix(t.text, "=") && t.text != "==" && t.text != "!=" && t.text != "<=" && t.text != ">="
	}
	return false
}

// test parses a conditional expression: a if cond else b.
func (p *parser) test() (Expr, error) {
	body, err := p.expr(bpNone)
	if err != nil {
		return nil, err
	}
	if !p.isKeyword("if") {
		return body, nil
	}
	p.next()
	cond, err := p.expr(bpNone)
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("else"); err != nil {
		return nil, err
	}
	orelse, err := p.test()
	if err != nil {
		return nil, err
	}
	return &IfExp{Test: cond, Body: body, Orelse: orelse}, nil
}

func (p *parser) expr(minBP int) (Expr, error) {
	left, err := p.nud()
	if err != nil {
		return nil, err
	}
	for {
		t := p.peek()
		bp := p.lbp(t)
		if bp <= minBP {
			return left, nil
		}
		left, err = p.led(left, t, bp)
		if err != nil {
			return nil, err
		}
	}
}

func (p *parser) nud() (Expr, error) {
	t := p.peek()
	if t.kind == tokName && t.text == "not" {
		p.next()
		operand, err := p.expr(bpNot)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "not", Operand: operand}, nil
	}
	if t.kind == tokOp && (t.text == "-" || t.text == "+") {
		p.next()
		operand, err := p.expr(bpUnary)
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: t.text, Operand: operand}, nil
	}
	return p.postfix()
}

func (p *parser) led(left Expr, t token, bp int) (Expr, error) {
	if bp == bpCompare {
		return p.comparison(left)
	}
	p.next()
	switch t.text {
	case "and", "or":
		right, err := p.expr(bp)
		if err != nil {
			return nil, err
		}
		if b, ok := left.(*BoolOp); ok && b.Op == t.text {
			b.Values = append(b.Values, right)
			return b, nil
		}
		return &BoolOp{Op: t.text, Values: []Expr{left, right}}, nil
	case "**":
		// right associative, and binds tighter than a unary minus on its right
		right, err := p.expr(bp - 1)
		if err != nil {
			return nil, err
		}
		return &BinOp{Op: "**", Left: left, Right: right}, nil
	}
	right, err := p.expr(bp)
	if err != nil {
		return nil, err
	}
	return &BinOp{Op: t.text, Left: left, Right: right}, nil
}

func (p *parser) comparison(left Expr) (Expr, error) {
	cmp := &Compare{Left: left}
	for p.lbp(p.peek()) == bpCompare {
		t := p.next()
		op := t.text
		switch {
		case t.kind == tokName && t.text == "not":
			p.next()
			op = "not in"
		case t.kind == tokName && t.text == "is" && p.isKeyword("not"):
			p.next()
			op = "is not"
		}
		right, err := p.expr(bpCompare)
		if err != nil {
			return nil, err
		}
		cmp.Ops = append(cmp.Ops, op)
		cmp.Comparators = append(cmp.Comparators, right)
	}
	return cmp, nil
}

func (p *parser) postfix() (Expr, error) {
	e, err := p.atom()
	if err != nil {
		return nil, err
	}
	for {
		switch {
		case p.isOp("."):
			p.next()
			t := p.next()
			if t.kind != tokName {
				return nil, p.errorf(t, "expected attribute name, got %s", describe(t))
			}
			e = &Attribute{Value: e, Attr: t.text}
		case p.isOp("["):
			p.next()
			idx, err := p.subscript()
			if err != nil {
				return nil, err
			}
			if err := p.expectOp("]"); err != nil {
				return nil, err
			}
			e = &Subscript{Value: e, Index: idx}
		case p.isOp("("):
			p.next()
			call, err := p.callArgs(e)
			if err != nil {
				return nil, err
			}
			e = call
		default:
			return e, nil
		}
	}
}

func (p *parser) subscript() (Expr, error) {
	var parts [3]Expr
	n := 0
	isSlice := false
	for {
		if !p.isOp(":") && !p.isOp("]") {
			e, err := p.test()
			if err != nil {
				return nil, err
			}
			parts[n] = e
		}
		if !p.isOp(":") {
			break
		}
		isSlice = true
		p.next()
		n++
		if n > 2 {
			return nil, p.errorf(p.peek(), "invalid slice")
		}
	}
	if !isSlice {
		if p.isOp(",") {
			elts := []Expr{parts[0]}
			for p.isOp(",") {
				p.next()
				e, err := p.test()
				if err != nil {
					return nil, err
				}
				elts = append(elts, e)
			}
			return &TupleExpr{Elts: elts}, nil
		}
		return parts[0], nil
	}
	return &Slice{Lower: parts[0], Upper: parts[1], Step: parts[2]}, nil
}

func (p *parser) callArgs(fn Expr) (Expr, error) {
	call := &Call{Func: fn}
	for !p.isOp(")") {
		if t := p.peek(); t.kind == tokName && !keywords[t.text] {
			if n := p.peekAt(1); n.kind == tokOp && n.text == "=" {
				p.next()
				p.next()
				v, err := p.test()
				if err != nil {
					return nil, err
				}
				call.Keywords = append(call.Keywords, Keyword{Name: t.text, Value: v})
				if !p.isOp(",") {
					break
				}
				p.next()
				continue
			}
		}
		arg, err := p.test()
		if err != nil {
			return nil, err
		}
		if p.isKeyword("for") {
			comp, err := p.comprehension("list", nil, arg)
			if err != nil {
				return nil, err
			}
			arg = comp
		}
		call.Args = append(call.Args, arg)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) atom() (Expr, error) {
	t := p.next()
	switch t.kind {
	case tokInt:
		n, err := strconv.Atoi(t.text)
		if err != nil {
			return nil, p.errorf(t, "invalid integer literal %q", t.text)
		}
		return &Const{Value: n}, nil
	case tokFloat:
		f, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid float literal %q", t.text)
		}
		return &Const{Value: f}, nil
	case tokString, tokFString:
		return p.stringLit(t)
	case tokName:
		switch t.text {
		case "None":
			return &Const{Value: nil}, nil
		case "True", "true":
			return &Const{Value: true}, nil
		case "False", "false":
			return &Const{Value: false}, nil
		}
		if keywords[t.text] {
			return nil, p.errorf(t, "invalid syntax near '%s'", t.text)
		}
		return &Name{ID: t.text}, nil
	case tokOp:
		switch t.text {
		case "(":
			return p.parenthesized()
		case "[":
			return p.list()
		case "{":
			return p.dict()
		}
	}
	return nil, p.errorf(t, "invalid syntax: unexpected %s", describe(t))
}

// stringLit handles implicit concatenation of adjacent literals.
func (p *parser) stringLit(first token) (Expr, error) {
	toks := []token{first}
	for k := p.peek().kind; k == tokString || k == tokFString; k = p.peek().kind {
		toks = append(toks, p.next())
	}
	hasF := false
	for _, t := range toks {
		if t.kind == tokFString {
			hasF = true
		}
	}
	if !hasF {
		var b strings.Builder
		for _, t := range toks {
			b.WriteString(t.text)
		}
		return &Const{Value: b.String()}, nil
	}
	fs := &FString{}
	for _, t := range toks {
		if t.kind == tokString {
			fs.Parts = append(fs.Parts, &Const{Value: t.text})
			continue
		}
		parts, err := parseFString(t)
		if err != nil {
			return nil, err
		}
		fs.Parts = append(fs.Parts, parts...)
	}
	return fs, nil
}

func parseFString(t token) ([]Expr, error) {
	var parts []Expr
	var lit strings.Builder
	s := t.text
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '{' && i+1 < len(s) && s[i+1] == '{':
			lit.WriteByte('{')
			i++
		case c == '}' && i+1 < len(s) && s[i+1] == '}':
			lit.WriteByte('}')
			i++
		case c == '{':
			end := matchBrace(s, i)
			if end < 0 {
				return nil, &Error{Kind: KindSyntax, Msg: "f-string: expecting '}'", Line: t.line}
			}
			if lit.Len() > 0 {
				parts = append(parts, &Const{Value: lit.String()})
				lit.Reset()
			}
			field := s[i+1 : end]
			code, spec := SplitFormatSpec(field)
			var conv byte
			if n := len(code); n >= 2 && code[n-2] == '!' {
				conv = code[n-1]
				code = code[:n-2]
			}
			e, err := ParseExpr(code)
			if err != nil {
				return nil, err
			}
			parts = append(parts, &FormattedValue{Value: e, Spec: spec, Conv: conv})
			i = end
		case c == '}':
			return nil, &Error{Kind: KindSyntax, Msg: "f-string: single '}' is not allowed", Line: t.line}
		default:
			lit.WriteByte(c)
		}
	}
	if lit.Len() > 0 {
		parts = append(parts, &Const{Value: lit.String()})
	}
	return parts, nil
}

func matchBrace(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SplitFormatSpec separates "expr:spec" at the first single colon that sits
// outside brackets and string literals. "::" and ":=" never split. Code without
// such a colon is returned as is.
func SplitFormatSpec(code string) (string, string) {
	depth := 0
	var quote byte
	for i := 0; i < len(code); i++ {
		c := code[i]
		if quote != 0 {
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ':':
			if depth == 0 {
				if i+1 < len(code) && (code[i+1] == '=' || code[i+1] == ':') {
					i++
					continue
				}
				return code[:i], code[i+1:]
			}
		}
	}
	return code, ""
}

func (p *parser) parenthesized() (Expr, error) {
	if p.isOp(")") {
		p.next()
		return &TupleExpr{}, nil
	}
	first, err := p.test()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		comp, err := p.comprehension("list", nil, first)
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
		return comp, nil
	}
	if p.isOp(")") {
		p.next()
		return first, nil
	}
	elts := []Expr{first}
	for p.isOp(",") {
		p.next()
		if p.isOp(")") {
			break
		}
		e, err := p.test()
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
	}
	if err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return &TupleExpr{Elts: elts}, nil
}

func (p *parser) list() (Expr, error) {
	l := &ListExpr{}
	if p.isOp("]") {
		p.next()
		return l, nil
	}
	first, err := p.test()
	if err != nil {
		return nil, err
	}
	if p.isKeyword("for") {
		comp, err := p.comprehension("list", nil, first)
		if err != nil {
			return nil, err
		}
		return comp, p.expectOp("]")
	}
	l.Elts = append(l.Elts, first)
	for p.isOp(",") {
		p.next()
		if p.isOp("]") {
			break
		}
		e, err := p.test()
		if err != nil {
			return nil, err
		}
		l.Elts = append(l.Elts, e)
	}
	return l, p.expectOp("]")
}

func (p *parser) dict() (Expr, error) {
	d := &DictExpr{}
	if p.isOp("}") {
		p.next()
		return d, nil
	}
	for {
		k, err := p.test()
		if err != nil {
			return nil, err
		}
		if err := p.expectOp(":"); err != nil {
			return nil, err
		}
		v, err := p.test()
		if err != nil {
			return nil, err
		}
		if len(d.Keys) == 0 && p.isKeyword("for") {
			comp, err := p.comprehension("dict", k, v)
			if err != nil {
				return nil, err
			}
			return comp, p.expectOp("}")
		}
		d.Keys = append(d.Keys, k)
		d.Values = append(d.Values, v)
		if !p.isOp(",") {
			break
		}
		p.next()
		if p.isOp("}") {
			break
		}
	}
	return d, p.expectOp("}")
}

func (p *parser) comprehension(kind string, key, elt Expr) (Expr, error) {
	if err := p.expectKeyword("for"); err != nil {
		return nil, err
	}
	target, err := p.targetList()
	if err != nil {
		return nil, err
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	iter, err := p.expr(bpNone)
	if err != nil {
		return nil, err
	}
	comp := &Comprehension{Kind: kind, Key: key, Elt: elt, Target: target, Iter: iter}
	for p.isKeyword("if") {
		p.next()
		cond, err := p.expr(bpNone)
		if err != nil {
			return nil, err
		}
		comp.Ifs = append(comp.Ifs, cond)
	}
	return comp, nil
}

// targetList parses assignment targets for for-loops: a name, attribute,
// subscript or a comma separated group of them.
func (p *parser) targetList() (Expr, error) {
	var elts []Expr
	for {
		e, err := p.expr(bpCompare)
		if err != nil {
			return nil, err
		}
		elts = append(elts, e)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if len(elts) == 1 {
		return elts[0], nil
	}
	return &TupleExpr{Elts: elts}, nil
}

// statements

func (p *parser) statement() ([]Stmt, error) {
	t := p.peek()
	if t.kind == tokName {
		switch t.text {
		case "if":
			s, err := p.ifStmt()
			return []Stmt{s}, err
		case "for":
			s, err := p.forStmt()
			return []Stmt{s}, err
		case "while":
			s, err := p.whileStmt()
			return []Stmt{s}, err
		}
	}
	if t.kind == tokIndent {
		return nil, p.errorf(t, "unexpected indent")
	}
	return p.simpleLine()
}

// simpleLine parses one or more ';' separated simple statements.
func (p *parser) simpleLine() ([]Stmt, error) {
	var out []Stmt
	for {
		s, err := p.simpleStmt()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
		if !p.isOp(";") {
			break
		}
		p.next()
		if k := p.peek().kind; k == tokNewline || k == tokEOF {
			break
		}
	}
	t := p.next()
	if t.kind != tokNewline && t.kind != tokEOF {
		return nil, p.errorf(t, "invalid syntax: unexpected %s", describe(t))
	}
	return out, nil
}

func (p *parser) simpleStmt() (Stmt, error) {
	t := p.peek()
	if t.kind == tokName {
		switch t.text {
		case "pass":
			p.next()
			return &Pass{}, nil
		case "break":
			p.next()
			return &Break{}, nil
		case "continue":
			p.next()
			return &Continue{}, nil
		case "del":
			p.next()
			target, err := p.exprList()
			if err != nil {
				return nil, err
			}
			if tup, ok := target.(*TupleExpr); ok {
				return &Delete{Targets: tup.Elts}, nil
			}
			return &Delete{Targets: []Expr{target}}, nil
		case "import", "from":
			return p.importStmt()
		}
	}
	first, err := p.exprList()
	if err != nil {
		return nil, err
	}
	if op := p.peek(); op.kind == tokOp {
		switch op.text {
		case "=":
			targets := []Expr{first}
			var value Expr
			for p.isOp("=") {
				p.next()
				v, err := p.exprList()
				if err != nil {
					return nil, err
				}
				targets = append(targets, v)
			}
			value = targets[len(targets)-1]
			targets = targets[:len(targets)-1]
			for _, tg := range targets {
				if err := checkTarget(tg); err != nil {
					return nil, p.errorf(op, "%s", err.Error())
				}
			}
			return &Assign{Targets: targets, Value: value}, nil
		case "+=", "-=", "*=", "/=", "//=", "%=", "**=":
			p.next()
			if err := checkTarget(first); err != nil {
				return nil, p.errorf(op, "%s", err.Error())
			}
			v, err := p.exprList()
			if err != nil {
				return nil, err
			}
			return &AugAssign{Target: first, Op: strings.TrimSuffix(op.text, "="), Value: v}, nil
		}
	}
	return &ExprStmt{Value: first}, nil
}

func checkTarget(e Expr) error {
	switch x := e.(type) {
	case *Name, *Attribute, *Subscript:
		return nil
	case *TupleExpr:
		for _, elt := range x.Elts {
			if err := checkTarget(elt); err != nil {
				return err
			}
		}
		return nil
	case *ListExpr:
		for _, elt := range x.Elts {
			if err := checkTarget(elt); err != nil {
				return err
			}
		}
		return nil
	}
	return newError(KindSyntax, "cannot assign to expression")
}

func (p *parser) dottedName() (string, error) {
	t := p.next()
	if t.kind != tokName {
		return "", p.errorf(t, "expected module name, got %s", describe(t))
	}
	name := t.text
	for p.isOp(".") {
		p.next()
		part := p.next()
		if part.kind != tokName {
			return "", p.errorf(part, "expected module name, got %s", describe(part))
		}
		name += "." + part.text
	}
	return name, nil
}

func (p *parser) alias() (string, error) {
	if !p.isKeyword("as") {
		return "", nil
	}
	p.next()
	t := p.next()
	if t.kind != tokName {
		return "", p.errorf(t, "expected alias name, got %s", describe(t))
	}
	return t.text, nil
}

func (p *parser) importStmt() (Stmt, error) {
	kw := p.next()
	module, err := p.dottedName()
	if err != nil {
		return nil, err
	}
	if kw.text == "import" {
		alias, err := p.alias()
		if err != nil {
			return nil, err
		}
		return &Import{Module: module, Alias: alias}, nil
	}
	if err := p.expectKeyword("import"); err != nil {
		return nil, err
	}
	imp := &Import{Module: module}
	paren := p.isOp("(")
	if paren {
		p.next()
	}
	for {
		t := p.next()
		if t.kind != tokName && !(t.kind == tokOp && t.text == "*") {
			return nil, p.errorf(t, "expected imported name, got %s", describe(t))
		}
		alias, err := p.alias()
		if err != nil {
			return nil, err
		}
		imp.Names = append(imp.Names, ImportName{Name: t.text, Alias: alias})
		if !p.isOp(",") {
			break
		}
		p.next()
		if paren && p.isOp(")") {
			break
		}
	}
	if paren {
		if err := p.expectOp(")"); err != nil {
			return nil, err
		}
	}
	return imp, nil
}

func (p *parser) suite() ([]Stmt, error) {
	if err := p.expectOp(":"); err != nil {
		return nil, err
	}
	if p.peek().kind != tokNewline {
		return p.simpleLine()
	}
	p.next()
	if t := p.next(); t.kind != tokIndent {
		return nil, p.errorf(t, "expected an indented block")
	}
	var body []Stmt
	for {
		t := p.peek()
		if t.kind == tokDedent {
			p.next()
			break
		}
		if t.kind == tokEOF {
			break
		}
		if t.kind == tokNewline {
			p.next()
			continue
		}
		stmts, err := p.statement()
		if err != nil {
			return nil, err
		}
		body = append(body, stmts...)
	}
	return body, nil
}

func (p *parser) ifStmt() (Stmt, error) {
	p.next()
	cond, err := p.test()
	if err != nil {
		return nil, err
	}
	body, err := p.suite()
	if err != nil {
		return nil, err
	}
	s := &If{Test: cond, Body: body}
	switch {
	case p.isKeyword("elif"):
		elif, err := p.ifStmt()
		if err != nil {
			return nil, err
		}
		s.Orelse = []Stmt{elif}
	case p.isKeyword("else"):
		p.next()
		s.Orelse, err = p.suite()
		if err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *parser) forStmt() (Stmt, error) {
	p.next()
	target, err := p.targetList()
	if err != nil {
		return nil, err
	}
	if err := checkTarget(target); err != nil {
		return nil, p.errorf(p.peek(), "%s", err.Error())
	}
	if err := p.expectKeyword("in"); err != nil {
		return nil, err
	}
	iter, err := p.exprList()
	if err != nil {
		return nil, err
	}
	body, err := p.suite()
	if err != nil {
		return nil, err
	}
	s := &For{Target: target, Iter: iter, Body: body}
	if p.isKeyword("else") {
		p.next()
		if s.Orelse, err = p.suite(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (p *parser) whileStmt() (Stmt, error) {
	p.next()
	cond, err := p.test()
	if err != nil {
		return nil, err
	}
	body, err := p.suite()
	if err != nil {
		return nil, err
	}
	s := &While{Test: cond, Body: body}
	if p.isKeyword("else") {
		p.next()
		if s.Orelse, err = p.suite(); err != nil {
			return nil, err
		}
	}
	return s, nil
}
