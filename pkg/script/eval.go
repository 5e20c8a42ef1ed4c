package script

import "strings"

func (env *Env) eval(e Expr) (Value, error) {
	switch n := e.(type) {
	case *Const:
		return n.Value, nil
	case *Name:
		v, ok := env.Lookup(n.ID)
		if !ok {
			return nil, undefinedName(n.ID)
		}
		return v, nil
	case *FString:
		var b strings.Builder
		for _, part := range n.Parts {
			v, err := env.eval(part)
			if err != nil {
				return nil, err
			}
			b.WriteString(Str(v))
		}
		return b.String(), nil
	case *FormattedValue:
		v, err := env.eval(n.Value)
		if err != nil {
			return nil, err
		}
		if n.Conv == 'r' {
			v = Repr(v)
		} else if n.Conv == 's' {
			v = Str(v)
		}
		return Format(v, n.Spec)
	case *UnaryOp:
		v, err := env.eval(n.Operand)
		if err != nil {
			return nil, err
		}
		return unaryOp(n.Op, v)
	case *BinOp:
		l, err := env.eval(n.Left)
		if err != nil {
			return nil, err
		}
		r, err := env.eval(n.Right)
		if err != nil {
			return nil, err
		}
		return binaryOp(n.Op, l, r)
	case *BoolOp:
		var v Value
		for _, operand := range n.Values {
			var err error
			v, err = env.eval(operand)
			if err != nil {
				return nil, err
			}
			if (n.Op == "and") != Truthy(v) {
				return v, nil
			}
		}
		return v, nil
	case *Compare:
		left, err := env.eval(n.Left)
		if err != nil {
			return nil, err
		}
		for i, op := range n.Ops {
			right, err := env.eval(n.Comparators[i])
			if err != nil {
				return nil, err
			}
			ok, err := compareOp(op, left, right)
			if err != nil {
				return nil, err
			}
			if !ok {
				return false, nil
			}
			left = right
		}
		return true, nil
	case *IfExp:
		cond, err := env.eval(n.Test)
		if err != nil {
			return nil, err
		}
		if Truthy(cond) {
			return env.eval(n.Body)
		}
		return env.eval(n.Orelse)
	case *Attribute:
		obj, err := env.eval(n.Value)
		if err != nil {
			return nil, err
		}
		return getAttr(obj, n.Attr)
	case *Subscript:
		obj, err := env.eval(n.Value)
		if err != nil {
			return nil, err
		}
		key, err := env.evalIndex(n.Index)
		if err != nil {
			return nil, err
		}
		return getItem(obj, key)
	case *Call:
		return env.call(n)
	case *ListExpr:
		items, err := env.evalAll(n.Elts)
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	case *TupleExpr:
		items, err := env.evalAll(n.Elts)
		if err != nil {
			return nil, err
		}
		return Tuple(items), nil
	case *DictExpr:
		d := NewDict()
		for i := range n.Keys {
			k, err := env.eval(n.Keys[i])
			if err != nil {
				return nil, err
			}
			v, err := env.eval(n.Values[i])
			if err != nil {
				return nil, err
			}
			if err := d.Set(k, v); err != nil {
				return nil, err
			}
		}
		return d, nil
	case *Comprehension:
		return env.comprehension(n)
	case *Slice:
		return env.evalIndex(n)
	}
	return nil, newError(KindSyntax, "unsupported expression %T", e)
}

func (env *Env) evalAll(exprs []Expr) ([]Value, error) {
	out := make([]Value, len(exprs))
	for i, e := range exprs {
		v, err := env.eval(e)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (env *Env) evalIndex(e Expr) (Value, error) {
	sl, ok := e.(*Slice)
	if !ok {
		return env.eval(e)
	}
	out := &sliceValue{}
	var err error
	if sl.Lower != nil {
		if out.lower, err = env.eval(sl.Lower); err != nil {
			return nil, err
		}
	}
	if sl.Upper != nil {
		if out.upper, err = env.eval(sl.Upper); err != nil {
			return nil, err
		}
	}
	if sl.Step != nil {
		if out.step, err = env.eval(sl.Step); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (env *Env) call(n *Call) (Value, error) {
	fn, err := env.eval(n.Func)
	if err != nil {
		return nil, err
	}
	args, err := env.evalAll(n.Args)
	if err != nil {
		return nil, err
	}
	var kwargs map[string]Value
	if len(n.Keywords) > 0 {
		kwargs = make(map[string]Value, len(n.Keywords))
		for _, kw := range n.Keywords {
			v, err := env.eval(kw.Value)
			if err != nil {
				return nil, err
			}
			kwargs[kw.Name] = v
		}
	}
	if b, ok := fn.(*builtin); ok && b.withEnv != nil {
		return b.withEnv(env, args, kwargs)
	}
	c, ok := fn.(Callable)
	if !ok {
		return nil, newError(KindType, "'%s' object is not callable", TypeName(fn))
	}
	return c.Call(args, kwargs)
}

// comprehension runs in a child scope so the loop variable does not leak.
func (env *Env) comprehension(n *Comprehension) (Value, error) {
	iterable, err := env.eval(n.Iter)
	if err != nil {
		return nil, err
	}
	items, err := iterate(iterable)
	if err != nil {
		return nil, err
	}
	scope := &Env{
		Vars:          make(map[string]Value),
		Imports:       env.Imports,
		Context:       env.chainedContext(),
		Modules:       env.Modules,
		Print:         env.Print,
		MaxIterations: env.MaxIterations,
	}
	var list []Value
	dict := NewDict()
next:
	for _, item := range items {
		if err := scope.assign(n.Target, item); err != nil {
			return nil, err
		}
		for _, cond := range n.Ifs {
			c, err := scope.eval(cond)
			if err != nil {
				return nil, err
			}
			if !Truthy(c) {
				continue next
			}
		}
		if n.Kind == "dict" {
			k, err := scope.eval(n.Key)
			if err != nil {
				return nil, err
			}
			v, err := scope.eval(n.Elt)
			if err != nil {
				return nil, err
			}
			if err := dict.Set(k, v); err != nil {
				return nil, err
			}
			continue
		}
		v, err := scope.eval(n.Elt)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	if n.Kind == "dict" {
		return dict, nil
	}
	return NewList(list...), nil
}

// chainedContext merges Vars over Context for read-only child scopes.
func (env *Env) chainedContext() map[string]Value {
	out := make(map[string]Value, len(env.Context)+len(env.Vars))
	for k, v := range env.Context {
		out[k] = v
	}
	for k, v := range env.Vars {
		out[k] = v
	}
	return out
}

func getAttr(obj Value, name string) (Value, error) {
	if m, ok := method(obj, name); ok {
		return m, nil
	}
	if o, ok := obj.(Object); ok {
		if v, found := o.GetAttr(name); found {
			return v, nil
		}
	}
	if v, ok := getAttrReflect(obj, name); ok {
		return v, nil
	}
	return nil, newError(KindAttribute, "'%s' object has no attribute '%s'", TypeName(obj), name)
}
