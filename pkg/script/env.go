package script

import (
	"strings"
	"sync"
)

// DefaultMaxIterations caps every while loop.
const DefaultMaxIterations = 100000

// Env is the namespace an expression or block runs against.
//
// Names resolve in order: Vars, Imports, Context, builtins. Assignment always
// targets Vars, so host bindings in Context are never overwritten.
type Env struct {
	Vars    map[string]Value
	Context map[string]Value
	Imports map[string]Value
	// Modules is the table "import" statements resolve against.
	Modules map[string]Value
	// Print receives print() output. Nil discards it.
	Print func(string)

	MaxIterations int
}

// NewEnv creates an environment writing into vars.
func NewEnv(vars, context map[string]Value) *Env {
	if vars == nil {
		vars = make(map[string]Value)
	}
	return &Env{Vars: vars, Context: context, Imports: make(map[string]Value)}
}

// Lookup resolves a name.
func (env *Env) Lookup(name string) (Value, bool) {
	if v, ok := env.Vars[name]; ok {
		return v, true
	}
	if v, ok := env.Imports[name]; ok {
		return v, true
	}
	if v, ok := env.Context[name]; ok {
		return v, true
	}
	if b, ok := builtins[name]; ok {
		return b, true
	}
	return nil, false
}

var (
	cacheMu   sync.RWMutex
	exprCache = make(map[string]Expr)
	progCache = make(map[string]*Program)
)

func compileExpr(code string) (Expr, error) {
	cacheMu.RLock()
	e, ok := exprCache[code]
	cacheMu.RUnlock()
	if ok {
		return e, nil
	}
	e, err := ParseExpr(code)
	if err != nil {
		return nil, err
	}
	cacheMu.Lock()
	exprCache[code] = e
	cacheMu.Unlock()
	return e, nil
}

func compileProgram(code string) (*Program, error) {
	cacheMu.RLock()
	p, ok := progCache[code]
	cacheMu.RUnlock()
	if ok {
		return p, nil
	}
	p, err := ParseProgram(code)
	if err != nil {
		return nil, err
	}
	cacheMu.Lock()
	progCache[code] = p
	cacheMu.Unlock()
	return p, nil
}

// Eval evaluates a single expression.
func (env *Env) Eval(code string) (Value, error) {
	e, err := compileExpr(code)
	if err != nil {
		return nil, err
	}
	return env.eval(e)
}

// Exec runs a statement block.
func (env *Env) Exec(code string) error {
	p, err := compileProgram(code)
	if err != nil {
		return err
	}
	err = env.execBlock(p.Body)
	switch err.(type) {
	case breakSignal, continueSignal:
		return newError(KindSyntax, "%s", err.Error())
	}
	return err
}

// Check parses code as an expression without evaluating it.
func Check(code string) error {
	_, err := compileExpr(code)
	return err
}

// CheckProgram parses code as a statement block without running it.
func CheckProgram(code string) error {
	_, err := compileProgram(code)
	return err
}

// Iterate returns the elements a for loop over v would visit.
func Iterate(v Value) ([]Value, error) { return iterate(v) }

// EvalCallArgs evaluates args as the argument list of a call, returning the
// positional values and the keyword values.
func (env *Env) EvalCallArgs(args string) ([]Value, map[string]Value, error) {
	if strings.TrimSpace(args) == "" {
		return nil, nil, nil
	}
	e, err := compileExpr("_(" + args + ")")
	if err != nil {
		return nil, nil, err
	}
	call, ok := e.(*Call)
	if !ok {
		return nil, nil, newError(KindSyntax, "invalid argument list")
	}
	pos, err := env.evalAll(call.Args)
	if err != nil {
		return nil, nil, err
	}
	kwargs := make(map[string]Value, len(call.Keywords))
	for _, kw := range call.Keywords {
		v, err := env.eval(kw.Value)
		if err != nil {
			return nil, nil, err
		}
		kwargs[kw.Name] = v
	}
	return pos, kwargs, nil
}
