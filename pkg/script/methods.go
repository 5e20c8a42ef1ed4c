package script

import (
	"strings"
	"unicode"
)

type methodFunc func(recv Value, args []Value, kwargs map[string]Value) (Value, error)

var (
	strMethods   map[string]methodFunc
	listMethods  map[string]methodFunc
	dictMethods  map[string]methodFunc
	tupleMethods map[string]methodFunc
)

func method(obj Value, name string) (Value, bool) {
	var table map[string]methodFunc
	switch obj.(type) {
	case string:
		table = strMethods
	case *List:
		table = listMethods
	case *Dict:
		table = dictMethods
	case Tuple:
		table = tupleMethods
	default:
		return nil, false
	}
	fn, ok := table[name]
	if !ok {
		return nil, false
	}
	return &boundMethod{name: name, recv: obj, fn: func(args []Value, kwargs map[string]Value) (Value, error) {
		return fn(obj, args, kwargs)
	}}, true
}

func argString(name string, args []Value, i int) (string, error) {
	if i >= len(args) {
		return "", newError(KindType, "%s() missing required argument", name)
	}
	s, ok := args[i].(string)
	if !ok {
		return "", newError(KindType, "%s() argument must be str, not %s", name, TypeName(args[i]))
	}
	return s, nil
}

func seqIndexOf(name string, items []Value, args []Value) (Value, error) {
	if err := arity(name, args, 1, 1); err != nil {
		return nil, err
	}
	for i, item := range items {
		if Equal(item, args[0]) {
			return i, nil
		}
	}
	return nil, newError(KindValue, "%s is not in list", Repr(args[0]))
}

func seqCount(items []Value, args []Value) (Value, error) {
	if err := arity("count", args, 1, 1); err != nil {
		return nil, err
	}
	n := 0
	for _, item := range items {
		if Equal(item, args[0]) {
			n++
		}
	}
	return n, nil
}

func stripArg(args []Value) (string, bool) {
	if len(args) == 0 || args[0] == nil {
		return "", false
	}
	s, ok := args[0].(string)
	return s, ok
}

func init() {
	strMethods = map[string]methodFunc{
		"upper": func(r Value, _ []Value, _ map[string]Value) (Value, error) { return strings.ToUpper(r.(string)), nil },
		"lower": func(r Value, _ []Value, _ map[string]Value) (Value, error) { return strings.ToLower(r.(string)), nil },
		"title": func(r Value, _ []Value, _ map[string]Value) (Value, error) { return titleCase(r.(string)), nil },
		"capitalize": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			s := []rune(strings.ToLower(r.(string)))
			if len(s) > 0 {
				s[0] = unicode.ToUpper(s[0])
			}
			return string(s), nil
		},
		"strip": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if cut, ok := stripArg(args); ok {
				return strings.Trim(r.(string), cut), nil
			}
			return strings.TrimSpace(r.(string)), nil
		},
		"lstrip": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if cut, ok := stripArg(args); ok {
				return strings.TrimLeft(r.(string), cut), nil
			}
			return strings.TrimLeftFunc(r.(string), unicode.IsSpace), nil
		},
		"rstrip": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if cut, ok := stripArg(args); ok {
				return strings.TrimRight(r.(string), cut), nil
			}
			return strings.TrimRightFunc(r.(string), unicode.IsSpace), nil
		},
		"split": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			var parts []string
			if sep, ok := stripArg(args); ok {
				limit := -1
				if len(args) > 1 {
					if n, isInt := args[1].(int); isInt && n >= 0 {
						limit = n + 1
					}
				}
				parts = strings.SplitN(r.(string), sep, limit)
			} else {
				parts = strings.Fields(r.(string))
			}
			out := make([]Value, len(parts))
			for i, p := range parts {
				out[i] = p
			}
			return NewList(out...), nil
		},
		"join": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if err := arity("join", args, 1, 1); err != nil {
				return nil, err
			}
			items, err := iterate(args[0])
			if err != nil {
				return nil, err
			}
			parts := make([]string, len(items))
			for i, item := range items {
				s, ok := item.(string)
				if !ok {
					return nil, newError(KindType, "sequence item %d: expected str instance, %s found", i, TypeName(item))
				}
				parts[i] = s
			}
			return strings.Join(parts, r.(string)), nil
		},
		"replace": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			old, err := argString("replace", args, 0)
			if err != nil {
				return nil, err
			}
			repl, err := argString("replace", args, 1)
			if err != nil {
				return nil, err
			}
			n := -1
			if len(args) > 2 {
				if c, ok := args[2].(int); ok {
					n = c
				}
			}
			return strings.Replace(r.(string), old, repl, n), nil
		},
		"startswith": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if t, ok := firstArg(args).(Tuple); ok {
				for _, p := range t {
					if s, isStr := p.(string); isStr && strings.HasPrefix(r.(string), s) {
						return true, nil
					}
				}
				return false, nil
			}
			p, err := argString("startswith", args, 0)
			if err != nil {
				return nil, err
			}
			return strings.HasPrefix(r.(string), p), nil
		},
		"endswith": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if t, ok := firstArg(args).(Tuple); ok {
				for _, p := range t {
					if s, isStr := p.(string); isStr && strings.HasSuffix(r.(string), s) {
						return true, nil
					}
				}
				return false, nil
			}
			p, err := argString("endswith", args, 0)
			if err != nil {
				return nil, err
			}
			return strings.HasSuffix(r.(string), p), nil
		},
		"find": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			sub, err := argString("find", args, 0)
			if err != nil {
				return nil, err
			}
			i := strings.Index(r.(string), sub)
			if i < 0 {
				return -1, nil
			}
			return len([]rune(r.(string)[:i])), nil
		},
		"count": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			sub, err := argString("count", args, 0)
			if err != nil {
				return nil, err
			}
			return strings.Count(r.(string), sub), nil
		},
		"isdigit": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			return allRunes(r.(string), unicode.IsDigit), nil
		},
		"isalpha": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			return allRunes(r.(string), unicode.IsLetter), nil
		},
		"isspace": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			return allRunes(r.(string), unicode.IsSpace), nil
		},
		"zfill": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			width, _ := firstArg(args).(int)
			s := r.(string)
			sign := ""
			if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
				sign, s = s[:1], s[1:]
			}
			if pad := width - len([]rune(s)) - len(sign); pad > 0 {
				s = strings.Repeat("0", pad) + s
			}
			return sign + s, nil
		},
		"center": func(r Value, args []Value, _ map[string]Value) (Value, error) { return padStr(r.(string), args, '^') },
		"ljust":  func(r Value, args []Value, _ map[string]Value) (Value, error) { return padStr(r.(string), args, '<') },
		"rjust":  func(r Value, args []Value, _ map[string]Value) (Value, error) { return padStr(r.(string), args, '>') },
		"format": func(r Value, args []Value, kwargs map[string]Value) (Value, error) {
			return strFormat(r.(string), args, kwargs)
		},
	}

	listMethods = map[string]methodFunc{
		"append": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if err := arity("append", args, 1, 1); err != nil {
				return nil, err
			}
			l := r.(*List)
			l.Items = append(l.Items, args[0])
			return nil, nil
		},
		"extend": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if err := arity("extend", args, 1, 1); err != nil {
				return nil, err
			}
			items, err := iterate(args[0])
			if err != nil {
				return nil, err
			}
			l := r.(*List)
			l.Items = append(l.Items, items...)
			return nil, nil
		},
		"insert": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if err := arity("insert", args, 2, 2); err != nil {
				return nil, err
			}
			l := r.(*List)
			i, ok := args[0].(int)
			if !ok {
				return nil, newError(KindType, "'%s' object cannot be interpreted as an integer", TypeName(args[0]))
			}
			if i < 0 {
				i = max(0, i+len(l.Items))
			}
			i = min(i, len(l.Items))
			l.Items = append(l.Items, nil)
			copy(l.Items[i+1:], l.Items[i:])
			l.Items[i] = args[1]
			return nil, nil
		},
		"pop": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			l := r.(*List)
			if len(l.Items) == 0 {
				return nil, newError(KindIndex, "pop from empty list")
			}
			i := len(l.Items) - 1
			if len(args) > 0 {
				n, ok := args[0].(int)
				if !ok {
					return nil, newError(KindType, "'%s' object cannot be interpreted as an integer", TypeName(args[0]))
				}
				var inRange bool
				if i, inRange = normalizeIndex(n, len(l.Items)); !inRange {
					return nil, newError(KindIndex, "pop index out of range")
				}
			}
			v := l.Items[i]
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return v, nil
		},
		"remove": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if err := arity("remove", args, 1, 1); err != nil {
				return nil, err
			}
			l := r.(*List)
			for i, item := range l.Items {
				if Equal(item, args[0]) {
					l.Items = append(l.Items[:i], l.Items[i+1:]...)
					return nil, nil
				}
			}
			return nil, newError(KindValue, "list.remove(x): x not in list")
		},
		"index": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			return seqIndexOf("index", r.(*List).Items, args)
		},
		"count": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			return seqCount(r.(*List).Items, args)
		},
		"sort": func(r Value, _ []Value, kwargs map[string]Value) (Value, error) {
			return nil, sortList(r.(*List), kwargs)
		},
		"reverse": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			l := r.(*List)
			for i, j := 0, len(l.Items)-1; i < j; i, j = i+1, j-1 {
				l.Items[i], l.Items[j] = l.Items[j], l.Items[i]
			}
			return nil, nil
		},
		"copy": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			items := make([]Value, len(r.(*List).Items))
			copy(items, r.(*List).Items)
			return NewList(items...), nil
		},
		"clear": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			r.(*List).Items = []Value{}
			return nil, nil
		},
	}

	dictMethods = map[string]methodFunc{
		"get": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if err := arity("get", args, 1, 2); err != nil {
				return nil, err
			}
			if v, ok := r.(*Dict).Get(args[0]); ok {
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, nil
		},
		"keys": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			return NewList(r.(*Dict).Keys()...), nil
		},
		"values": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			d := r.(*Dict)
			vals := make([]Value, len(d.vals))
			copy(vals, d.vals)
			return NewList(vals...), nil
		},
		"items": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			d := r.(*Dict)
			out := make([]Value, len(d.keys))
			for i, k := range d.keys {
				out[i] = Tuple{k, d.vals[i]}
			}
			return NewList(out...), nil
		},
		"pop": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if err := arity("pop", args, 1, 2); err != nil {
				return nil, err
			}
			d := r.(*Dict)
			if v, ok := d.Get(args[0]); ok {
				d.Delete(args[0])
				return v, nil
			}
			if len(args) == 2 {
				return args[1], nil
			}
			return nil, newError(KindKey, "%s", Repr(args[0]))
		},
		"setdefault": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			if err := arity("setdefault", args, 1, 2); err != nil {
				return nil, err
			}
			d := r.(*Dict)
			if v, ok := d.Get(args[0]); ok {
				return v, nil
			}
			var def Value
			if len(args) == 2 {
				def = args[1]
			}
			return def, d.Set(args[0], def)
		},
		"update": func(r Value, args []Value, kwargs map[string]Value) (Value, error) {
			src, err := biDict(args, kwargs)
			if err != nil {
				return nil, err
			}
			d := r.(*Dict)
			s := src.(*Dict)
			for i, k := range s.keys {
				if err := d.Set(k, s.vals[i]); err != nil {
					return nil, err
				}
			}
			return nil, nil
		},
		"copy": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			return r.(*Dict).Copy(), nil
		},
		"clear": func(r Value, _ []Value, _ map[string]Value) (Value, error) {
			d := r.(*Dict)
			*d = *NewDict()
			return nil, nil
		},
	}

	tupleMethods = map[string]methodFunc{
		"index": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			return seqIndexOf("index", r.(Tuple), args)
		},
		"count": func(r Value, args []Value, _ map[string]Value) (Value, error) {
			return seqCount(r.(Tuple), args)
		},
	}
}

func firstArg(args []Value) Value {
	if len(args) == 0 {
		return nil
	}
	return args[0]
}

func allRunes(s string, pred func(rune) bool) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !pred(r) {
			return false
		}
	}
	return true
}

func titleCase(s string) string {
	out := []rune(s)
	prevLetter := false
	for i, r := range out {
		if unicode.IsLetter(r) {
			if prevLetter {
				out[i] = unicode.ToLower(r)
			} else {
				out[i] = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(out)
}

// TitleCase capitalizes each word like str.title().
func TitleCase(s string) string { return titleCase(s) }

func padStr(s string, args []Value, align byte) (Value, error) {
	width, ok := firstArg(args).(int)
	if !ok {
		return nil, newError(KindType, "width must be an integer")
	}
	fill := " "
	if len(args) > 1 {
		f, isStr := args[1].(string)
		if !isStr || len([]rune(f)) != 1 {
			return nil, newError(KindType, "The fill character must be exactly one character long")
		}
		fill = f
	}
	return pad(s, width, align, fill), nil
}
