package script

import (
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
)

type builtin struct {
	name    string
	fn      func(args []Value, kwargs map[string]Value) (Value, error)
	withEnv func(env *Env, args []Value, kwargs map[string]Value) (Value, error)
}

func (b *builtin) Call(args []Value, kwargs map[string]Value) (Value, error) {
	if b.fn == nil {
		return b.withEnv(&Env{}, args, kwargs)
	}
	return b.fn(args, kwargs)
}

// Module is a named attribute table exposed through "import".
type Module map[string]Value

// GetAttr implements Object.
func (m Module) GetAttr(name string) (Value, bool) {
	v, ok := m[name]
	return v, ok
}

var builtins map[string]Value

func init() {
	builtins = map[string]Value{}
	def := func(name string, fn func(args []Value, kwargs map[string]Value) (Value, error)) {
		builtins[name] = &builtin{name: name, fn: fn}
	}
	def("len", biLen)
	def("str", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) == 0 {
			return "", nil
		}
		return Str(args[0]), nil
	})
	def("repr", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("repr", args, 1, 1); err != nil {
			return nil, err
		}
		return Repr(args[0]), nil
	})
	def("int", biInt)
	def("float", biFloat)
	def("bool", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) == 0 {
			return false, nil
		}
		return Truthy(args[0]), nil
	})
	def("abs", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("abs", args, 1, 1); err != nil {
			return nil, err
		}
		switch x := args[0].(type) {
		case int:
			if x < 0 {
				return negInt(x)
			}
			return x, nil
		case float64:
			return math.Abs(x), nil
		case bool:
			if x {
				return 1, nil
			}
			return 0, nil
		}
		return nil, newError(KindType, "bad operand type for abs(): '%s'", TypeName(args[0]))
	})
	def("min", func(args []Value, kwargs map[string]Value) (Value, error) { return extreme("min", args, kwargs, -1) })
	def("max", func(args []Value, kwargs map[string]Value) (Value, error) { return extreme("max", args, kwargs, 1) })
	def("round", biRound)
	def("sum", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("sum", args, 1, 2); err != nil {
			return nil, err
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, err
		}
		var total Value = 0
		if len(args) == 2 {
			total = args[1]
		}
		for _, item := range items {
			if total, err = binaryOp("+", total, item); err != nil {
				return nil, err
			}
		}
		return total, nil
	})
	def("range", biRange)
	def("sorted", func(args []Value, kwargs map[string]Value) (Value, error) {
		if err := arity("sorted", args, 1, 1); err != nil {
			return nil, err
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, err
		}
		l := NewList(items...)
		if err := sortList(l, kwargs); err != nil {
			return nil, err
		}
		return l, nil
	})
	def("reversed", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("reversed", args, 1, 1); err != nil {
			return nil, err
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(items))
		for i, item := range items {
			out[len(items)-1-i] = item
		}
		return NewList(out...), nil
	})
	def("list", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) == 0 {
			return NewList(), nil
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, err
		}
		return NewList(items...), nil
	})
	def("tuple", func(args []Value, _ map[string]Value) (Value, error) {
		if len(args) == 0 {
			return Tuple{}, nil
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, err
		}
		return Tuple(items), nil
	})
	def("dict", biDict)
	def("enumerate", func(args []Value, kwargs map[string]Value) (Value, error) {
		if err := arity("enumerate", args, 1, 2); err != nil {
			return nil, err
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, err
		}
		start := 0
		if len(args) == 2 {
			start, _ = args[1].(int)
		}
		if s, ok := kwargs["start"].(int); ok {
			start = s
		}
		out := make([]Value, len(items))
		for i, item := range items {
			out[i] = Tuple{start + i, item}
		}
		return NewList(out...), nil
	})
	def("zip", func(args []Value, _ map[string]Value) (Value, error) {
		seqs := make([][]Value, len(args))
		shortest := -1
		for i, a := range args {
			items, err := iterate(a)
			if err != nil {
				return nil, err
			}
			seqs[i] = items
			if shortest < 0 || len(items) < shortest {
				shortest = len(items)
			}
		}
		out := make([]Value, 0, max(shortest, 0))
		for i := 0; i < shortest; i++ {
			row := make(Tuple, len(seqs))
			for j := range seqs {
				row[j] = seqs[j][i]
			}
			out = append(out, row)
		}
		return NewList(out...), nil
	})
	def("any", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("any", args, 1, 1); err != nil {
			return nil, err
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if Truthy(item) {
				return true, nil
			}
		}
		return false, nil
	})
	def("all", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("all", args, 1, 1); err != nil {
			return nil, err
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if !Truthy(item) {
				return false, nil
			}
		}
		return true, nil
	})
	def("format", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("format", args, 1, 2); err != nil {
			return nil, err
		}
		spec := ""
		if len(args) == 2 {
			spec = Str(args[1])
		}
		return Format(args[0], spec)
	})
	def("type", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("type", args, 1, 1); err != nil {
			return nil, err
		}
		return TypeName(args[0]), nil
	})
	def("callable", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("callable", args, 1, 1); err != nil {
			return nil, err
		}
		_, ok := args[0].(Callable)
		return ok, nil
	})
	def("hasattr", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("hasattr", args, 2, 2); err != nil {
			return nil, err
		}
		_, err := getAttr(args[0], Str(args[1]))
		return err == nil, nil
	})
	def("getattr", func(args []Value, _ map[string]Value) (Value, error) {
		if err := arity("getattr", args, 2, 3); err != nil {
			return nil, err
		}
		v, err := getAttr(args[0], Str(args[1]))
		if err != nil && len(args) == 3 {
			return args[2], nil
		}
		return v, err
	})
	builtins["print"] = &builtin{name: "print", withEnv: func(env *Env, args []Value, kwargs map[string]Value) (Value, error) {
		if env.Print == nil {
			return nil, nil
		}
		sep := " "
		if s, ok := kwargs["sep"].(string); ok {
			sep = s
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Str(a)
		}
		env.Print(strings.Join(parts, sep))
		return nil, nil
	}}
}

func arity(name string, args []Value, lo, hi int) error {
	if len(args) < lo || len(args) > hi {
		if lo == hi {
			return newError(KindType, "%s() takes exactly %d argument(s) (%d given)", name, lo, len(args))
		}
		return newError(KindType, "%s() takes %d to %d arguments (%d given)", name, lo, hi, len(args))
	}
	return nil
}

func biLen(args []Value, _ map[string]Value) (Value, error) {
	if err := arity("len", args, 1, 1); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case string:
		return len([]rune(x)), nil
	case *List:
		return len(x.Items), nil
	case Tuple:
		return len(x), nil
	case *Dict:
		return x.Len(), nil
	}
	if n, ok := lenReflect(args[0]); ok {
		return n, nil
	}
	return nil, newError(KindType, "object of type '%s' has no len()", TypeName(args[0]))
}

func biInt(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return 0, nil
	}
	if err := arity("int", args, 1, 2); err != nil {
		return nil, err
	}
	switch x := args[0].(type) {
	case int:
		return x, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case float64:
		return floatToInt(x)
	case string:
		base := 10
		if len(args) == 2 {
			b, ok := args[1].(int)
			if !ok {
				return nil, newError(KindType, "int() base must be an integer")
			}
			base = b
		}
		n, err := strconv.ParseInt(strings.ReplaceAll(strings.TrimSpace(x), "_", ""), base, 64)
		if err != nil {
			return nil, newError(KindValue, "invalid literal for int() with base %d: %s", base, Repr(x))
		}
		return int(n), nil
	}
	return nil, newError(KindType, "int() argument must be a string or a number, not '%s'", TypeName(args[0]))
}

func biFloat(args []Value, _ map[string]Value) (Value, error) {
	if len(args) == 0 {
		return 0.0, nil
	}
	if err := arity("float", args, 1, 1); err != nil {
		return nil, err
	}
	if _, f, _, ok := asNumber(args[0]); ok {
		return f, nil
	}
	if s, ok := args[0].(string); ok {
		t := strings.ToLower(strings.TrimSpace(s))
		switch t {
		case "inf", "+inf", "infinity":
			return math.Inf(1), nil
		case "-inf", "-infinity":
			return math.Inf(-1), nil
		case "nan":
			return math.NaN(), nil
		}
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, newError(KindValue, "could not convert string to float: %s", Repr(s))
		}
		return f, nil
	}
	return nil, newError(KindType, "float() argument must be a string or a number, not '%s'", TypeName(args[0]))
}

// roundHalfEven matches banker's rounding used by round().
func roundHalfEven(f float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.RoundToEven(f*pow) / pow
}

func biRound(args []Value, _ map[string]Value) (Value, error) {
	if err := arity("round", args, 1, 2); err != nil {
		return nil, err
	}
	i, f, isFloat, ok := asNumber(args[0])
	if !ok {
		return nil, newError(KindType, "type %s doesn't define __round__ method", TypeName(args[0]))
	}
	if len(args) == 1 || args[1] == nil {
		if !isFloat {
			return i, nil
		}
		return floatToInt(math.RoundToEven(f))
	}
	digits, ok := args[1].(int)
	if !ok {
		return nil, newError(KindType, "'%s' object cannot be interpreted as an integer", TypeName(args[1]))
	}
	if !isFloat {
		if digits >= 0 {
			return i, nil
		}
		return floatToInt(roundHalfEven(float64(i), digits))
	}
	return roundHalfEven(f, digits), nil
}

func biRange(args []Value, _ map[string]Value) (Value, error) {
	if err := arity("range", args, 1, 3); err != nil {
		return nil, err
	}
	ints := make([]int, len(args))
	for i, a := range args {
		n, ok := a.(int)
		if !ok {
			return nil, newError(KindType, "'%s' object cannot be interpreted as an integer", TypeName(a))
		}
		ints[i] = n
	}
	start, stop, step := 0, 0, 1
	switch len(ints) {
	case 1:
		stop = ints[0]
	case 2:
		start, stop = ints[0], ints[1]
	case 3:
		start, stop, step = ints[0], ints[1], ints[2]
	}
	if step == 0 {
		return nil, newError(KindValue, "range() arg 3 must not be zero")
	}
	var out []Value
	if step > 0 {
		for i := start; i < stop; i += step {
			out = append(out, i)
		}
	} else {
		for i := start; i > stop; i += step {
			out = append(out, i)
		}
	}
	if len(out) > DefaultMaxIterations*10 {
		return nil, newError(KindRuntime, "range too large")
	}
	return NewList(out...), nil
}

func biDict(args []Value, kwargs map[string]Value) (Value, error) {
	if err := arity("dict", args, 0, 1); err != nil {
		return nil, err
	}
	d := NewDict()
	if len(args) == 1 {
		switch src := args[0].(type) {
		case *Dict:
			d = src.Copy()
		default:
			items, err := iterate(src)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				pair, err := iterate(item)
				if err != nil || len(pair) != 2 {
					return nil, newError(KindValue, "dictionary update sequence element has wrong length")
				}
				if err := d.Set(pair[0], pair[1]); err != nil {
					return nil, err
				}
			}
		}
	}
	keys := make([]string, 0, len(kwargs))
	for k := range kwargs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_ = d.Set(k, kwargs[k])
	}
	return d, nil
}

func extreme(name string, args []Value, kwargs map[string]Value, sign int) (Value, error) {
	items := args
	if len(args) == 1 {
		var err error
		if items, err = iterate(args[0]); err != nil {
			return nil, err
		}
	}
	if len(items) == 0 {
		if d, ok := kwargs["default"]; ok {
			return d, nil
		}
		return nil, newError(KindValue, "%s() arg is an empty sequence", name)
	}
	key, _ := kwargs["key"].(Callable)
	best := items[0]
	bestKey, err := applyKey(key, best)
	if err != nil {
		return nil, err
	}
	for _, item := range items[1:] {
		k, err := applyKey(key, item)
		if err != nil {
			return nil, err
		}
		c, err := compare(k, bestKey)
		if err != nil {
			return nil, err
		}
		if c*sign > 0 {
			best, bestKey = item, k
		}
	}
	return best, nil
}

func applyKey(key Callable, v Value) (Value, error) {
	if key == nil {
		return v, nil
	}
	return key.Call([]Value{v}, nil)
}

func sortList(l *List, kwargs map[string]Value) error {
	key, _ := kwargs["key"].(Callable)
	reverse := Truthy(kwargs["reverse"])
	keys := make([]Value, len(l.Items))
	for i, item := range l.Items {
		k, err := applyKey(key, item)
		if err != nil {
			return err
		}
		keys[i] = k
	}
	idx := make([]int, len(l.Items))
	for i := range idx {
		idx[i] = i
	}
	var sortErr error
	sort.SliceStable(idx, func(a, b int) bool {
		c, err := compare(keys[idx[a]], keys[idx[b]])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		if reverse {
			return c > 0
		}
		return c < 0
	})
	if sortErr != nil {
		return sortErr
	}
	items := make([]Value, len(idx))
	for i, j := range idx {
		items[i] = l.Items[j]
	}
	l.Items = items
	return nil
}

// StdModules returns the modules available to "import" by default.
func StdModules() map[string]Value {
	return map[string]Value{
		"math": Module{
			"pi":    math.Pi,
			"e":     math.E,
			"floor": WrapFunc("floor", func(f float64) (int, error) { return floatToInt(math.Floor(f)) }),
			"ceil":  WrapFunc("ceil", func(f float64) (int, error) { return floatToInt(math.Ceil(f)) }),
			"sqrt":  WrapFunc("sqrt", math.Sqrt),
			"pow":   WrapFunc("pow", math.Pow),
		},
		"random": Module{
			"random": WrapFunc("random", rand.Float64),
			"randint": WrapFunc("randint", func(a, b int) (int, error) {
				if b < a {
					return 0, newError(KindValue, "empty range for randint(%d, %d)", a, b)
				}
				return a + rand.IntN(b-a+1), nil
			}),
			"choice": Func(func(args []Value, _ map[string]Value) (Value, error) {
				if err := arity("choice", args, 1, 1); err != nil {
					return nil, err
				}
				items, err := iterate(args[0])
				if err != nil {
					return nil, err
				}
				if len(items) == 0 {
					return nil, newError(KindIndex, "cannot choose from an empty sequence")
				}
				return items[rand.IntN(len(items))], nil
			}),
			"shuffle": Func(func(args []Value, _ map[string]Value) (Value, error) {
				if err := arity("shuffle", args, 1, 1); err != nil {
					return nil, err
				}
				l, ok := args[0].(*List)
				if !ok {
					return nil, newError(KindType, "shuffle() argument must be a list")
				}
				rand.Shuffle(len(l.Items), func(i, j int) { l.Items[i], l.Items[j] = l.Items[j], l.Items[i] })
				return nil, nil
			}),
		},
	}
}
