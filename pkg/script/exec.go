package script

func (env *Env) execBlock(stmts []Stmt) error {
	for _, s := range stmts {
		if err := env.exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (env *Env) exec(s Stmt) error {
	switch n := s.(type) {
	case *ExprStmt:
		_, err := env.eval(n.Value)
		return err
	case *Assign:
		v, err := env.eval(n.Value)
		if err != nil {
			return err
		}
		for _, t := range n.Targets {
			if err := env.assign(t, v); err != nil {
				return err
			}
		}
		return nil
	case *AugAssign:
		return env.augAssign(n)
	case *If:
		cond, err := env.eval(n.Test)
		if err != nil {
			return err
		}
		if Truthy(cond) {
			return env.execBlock(n.Body)
		}
		return env.execBlock(n.Orelse)
	case *For:
		iterable, err := env.eval(n.Iter)
		if err != nil {
			return err
		}
		items, err := iterate(iterable)
		if err != nil {
			return err
		}
		for _, item := range items {
			if err := env.assign(n.Target, item); err != nil {
				return err
			}
			if err := env.execBlock(n.Body); err != nil {
				if _, ok := err.(breakSignal); ok {
					return nil
				}
				if _, ok := err.(continueSignal); ok {
					continue
				}
				return err
			}
		}
		return env.execBlock(n.Orelse)
	case *While:
		limit := env.MaxIterations
		if limit <= 0 {
			limit = DefaultMaxIterations
		}
		for i := 0; ; i++ {
			if i >= limit {
				return newError(KindRuntime, "while loop exceeded %d iterations", limit)
			}
			cond, err := env.eval(n.Test)
			if err != nil {
				return err
			}
			if !Truthy(cond) {
				break
			}
			if err := env.execBlock(n.Body); err != nil {
				if _, ok := err.(breakSignal); ok {
					return nil
				}
				if _, ok := err.(continueSignal); ok {
					continue
				}
				return err
			}
		}
		return env.execBlock(n.Orelse)
	case *Delete:
		for _, t := range n.Targets {
			if err := env.delete(t); err != nil {
				return err
			}
		}
		return nil
	case *Import:
		return env.importModule(n)
	case *Pass:
		return nil
	case *Break:
		return breakSignal{}
	case *Continue:
		return continueSignal{}
	}
	return newError(KindSyntax, "unsupported statement %T", s)
}

func (env *Env) assign(target Expr, v Value) error {
	switch t := target.(type) {
	case *Name:
		env.Vars[t.ID] = v
		return nil
	case *Attribute:
		obj, err := env.eval(t.Value)
		if err != nil {
			return err
		}
		if s, ok := obj.(AttrSetter); ok {
			return s.SetAttr(t.Attr, v)
		}
		return setAttrReflect(obj, t.Attr, v)
	case *Subscript:
		obj, err := env.eval(t.Value)
		if err != nil {
			return err
		}
		key, err := env.evalIndex(t.Index)
		if err != nil {
			return err
		}
		return setItem(obj, key, v)
	case *TupleExpr:
		return env.unpack(t.Elts, v)
	case *ListExpr:
		return env.unpack(t.Elts, v)
	}
	return newError(KindSyntax, "cannot assign to expression")
}

func (env *Env) unpack(targets []Expr, v Value) error {
	items, err := iterate(v)
	if err != nil {
		return newError(KindType, "cannot unpack non-iterable %s object", TypeName(v))
	}
	if len(items) != len(targets) {
		if len(items) > len(targets) {
			return newError(KindValue, "too many values to unpack (expected %d)", len(targets))
		}
		return newError(KindValue, "not enough values to unpack (expected %d, got %d)", len(targets), len(items))
	}
	for i, t := range targets {
		if err := env.assign(t, items[i]); err != nil {
			return err
		}
	}
	return nil
}

func (env *Env) augAssign(n *AugAssign) error {
	cur, err := env.eval(n.Target)
	if err != nil {
		return err
	}
	rhs, err := env.eval(n.Value)
	if err != nil {
		return err
	}
	// list += iterable extends in place
	if l, ok := cur.(*List); ok && n.Op == "+" {
		items, err := iterate(rhs)
		if err != nil {
			return err
		}
		l.Items = append(l.Items, items...)
		return env.assign(n.Target, l)
	}
	v, err := binaryOp(n.Op, cur, rhs)
	if err != nil {
		return err
	}
	return env.assign(n.Target, v)
}

func (env *Env) delete(target Expr) error {
	switch t := target.(type) {
	case *Name:
		if _, ok := env.Vars[t.ID]; !ok {
			return undefinedName(t.ID)
		}
		delete(env.Vars, t.ID)
		return nil
	case *Subscript:
		obj, err := env.eval(t.Value)
		if err != nil {
			return err
		}
		key, err := env.eval(t.Index)
		if err != nil {
			return err
		}
		return delItem(obj, key)
	}
	return newError(KindSyntax, "cannot delete expression")
}

func (env *Env) importModule(n *Import) error {
	mod, ok := env.Modules[n.Module]
	if !ok {
		return &Error{Kind: KindImport, Msg: "No module named '" + n.Module + "'"}
	}
	if len(n.Names) == 0 {
		name := n.Alias
		if name == "" {
			name = n.Module
		}
		env.Imports[name] = mod
		return nil
	}
	for _, in := range n.Names {
		if in.Name == "*" {
			d, ok := mod.(*Dict)
			if !ok {
				return &Error{Kind: KindImport, Msg: "cannot star-import from '" + n.Module + "'"}
			}
			for i, k := range d.keys {
				if s, isStr := k.(string); isStr {
					env.Imports[s] = d.vals[i]
				}
			}
			continue
		}
		v, err := moduleAttr(mod, in.Name)
		if err != nil {
			return &Error{Kind: KindImport, Msg: "cannot import name '" + in.Name + "' from '" + n.Module + "'"}
		}
		name := in.Alias
		if name == "" {
			name = in.Name
		}
		env.Imports[name] = v
	}
	return nil
}

func moduleAttr(mod Value, name string) (Value, error) {
	if d, ok := mod.(*Dict); ok {
		if v, found := d.Get(name); found {
			return v, nil
		}
	}
	return getAttr(mod, name)
}
