package script

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Value is any runtime value handled by the interpreter.
//
// Scalars are represented natively: nil (None), bool, int, float64 and string.
// Containers use the reference types below so that in-place mutation
// (append, item assignment) is visible through every binding.
type Value = any

// List is a mutable ordered sequence.
type List struct {
	Items []Value
}

// NewList creates a list holding items.
func NewList(items ...Value) *List {
	if items == nil {
		items = []Value{}
	}
	return &List{Items: items}
}

// Tuple is an immutable ordered sequence.
type Tuple []Value

// Dict is an insertion-ordered mapping with scalar keys.
type Dict struct {
	keys  []Value
	index map[any]int
	vals  []Value
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{index: make(map[any]int)}
}

// DictFromMap builds a dict from a Go map, ordering keys alphabetically.
func DictFromMap(m map[string]Value) *Dict {
	d := NewDict()
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_ = d.Set(k, m[k])
	}
	return d
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []Value {
	out := make([]Value, len(d.keys))
	copy(out, d.keys)
	return out
}

// Get looks up key.
func (d *Dict) Get(key Value) (Value, bool) {
	hk, err := hashKey(key)
	if err != nil {
		return nil, false
	}
	i, ok := d.index[hk]
	if !ok {
		return nil, false
	}
	return d.vals[i], true
}

// Set inserts or replaces key.
func (d *Dict) Set(key, val Value) error {
	hk, err := hashKey(key)
	if err != nil {
		return err
	}
	if i, ok := d.index[hk]; ok {
		d.vals[i] = val
		return nil
	}
	d.index[hk] = len(d.keys)
	d.keys = append(d.keys, key)
	d.vals = append(d.vals, val)
	return nil
}

// Delete removes key, reporting whether it was present.
func (d *Dict) Delete(key Value) bool {
	hk, err := hashKey(key)
	if err != nil {
		return false
	}
	i, ok := d.index[hk]
	if !ok {
		return false
	}
	d.keys = append(d.keys[:i], d.keys[i+1:]...)
	d.vals = append(d.vals[:i], d.vals[i+1:]...)
	delete(d.index, hk)
	for k, j := range d.index {
		if j > i {
			d.index[k] = j - 1
		}
	}
	return true
}

// Copy returns a shallow copy.
func (d *Dict) Copy() *Dict {
	out := NewDict()
	for i, k := range d.keys {
		_ = out.Set(k, d.vals[i])
	}
	return out
}

// ToMap converts a dict with string keys into a Go map. Non-string keys are
// stringified.
func (d *Dict) ToMap() map[string]Value {
	out := make(map[string]Value, len(d.keys))
	for i, k := range d.keys {
		if s, ok := k.(string); ok {
			out[s] = d.vals[i]
		} else {
			out[Str(k)] = d.vals[i]
		}
	}
	return out
}

type floatKey float64

func hashKey(v Value) (any, error) {
	switch x := v.(type) {
	case nil, string, bool:
		return x, nil
	case int:
		return floatKey(float64(x)), nil
	case float64:
		return floatKey(x), nil
	case Tuple:
		parts := make([]string, len(x))
		for i, item := range x {
			hk, err := hashKey(item)
			if err != nil {
				return nil, err
			}
			parts[i] = fmt.Sprintf("%T:%v", hk, hk)
		}
		return "tuple:" + strings.Join(parts, "\x00"), nil
	}
	return nil, newError(KindType, "unhashable type: '%s'", TypeName(v))
}

// Callable is a host or builtin function exposed to scripts.
type Callable interface {
	Call(args []Value, kwargs map[string]Value) (Value, error)
}

// Func adapts a plain Go function to Callable.
type Func func(args []Value, kwargs map[string]Value) (Value, error)

// Call implements Callable.
func (f Func) Call(args []Value, kwargs map[string]Value) (Value, error) {
	return f(args, kwargs)
}

// Object is implemented by host values that expose attributes to scripts.
type Object interface {
	GetAttr(name string) (Value, bool)
}

// AttrSetter is implemented by host objects that accept attribute assignment.
type AttrSetter interface {
	SetAttr(name string, val Value) error
}

type boundMethod struct {
	name string
	recv Value
	fn   func(args []Value, kwargs map[string]Value) (Value, error)
}

func (m *boundMethod) Call(args []Value, kwargs map[string]Value) (Value, error) {
	return m.fn(args, kwargs)
}

// TypeName returns the script-level type name of v.
func TypeName(v Value) string {
	switch x := v.(type) {
	case nil:
		return "NoneType"
	case bool:
		return "bool"
	case int:
		return "int"
	case float64:
		return "float"
	case string:
		return "str"
	case *List:
		return "list"
	case Tuple:
		return "tuple"
	case *Dict:
		return "dict"
	case *boundMethod:
		return "method"
	case *builtin:
		return "builtin_function_or_method"
	case Callable:
		return "function"
	default:
		t := reflect.TypeOf(x)
		for t.Kind() == reflect.Ptr {
			t = t.Elem()
		}
		if t.Name() != "" {
			return t.Name()
		}
		return t.String()
	}
}

// Truthy reports the truth value of v.
func Truthy(v Value) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case int:
		return x != 0
	case float64:
		return x != 0
	case string:
		return x != ""
	case *List:
		return len(x.Items) > 0
	case Tuple:
		return len(x) > 0
	case *Dict:
		return x.Len() > 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// Str renders v the way str() does.
func Str(v Value) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		if _, isCallable := v.(Callable); !isCallable {
			return x.String()
		}
	}
	return Repr(v)
}

// Repr renders v the way repr() does.
func Repr(v Value) string {
	switch x := v.(type) {
	case nil:
		return "None"
	case bool:
		if x {
			return "True"
		}
		return "False"
	case int:
		return strconv.Itoa(x)
	case float64:
		return formatFloat(x)
	case string:
		return quoteString(x)
	case *List:
		parts := make([]string, len(x.Items))
		for i, item := range x.Items {
			parts[i] = Repr(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Tuple:
		parts := make([]string, len(x))
		for i, item := range x {
			parts[i] = Repr(item)
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *Dict:
		parts := make([]string, len(x.keys))
		for i, k := range x.keys {
			parts[i] = Repr(k) + ": " + Repr(x.vals[i])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *boundMethod:
		return fmt.Sprintf("<method %s of %s>", x.name, TypeName(x.recv))
	case *builtin:
		return fmt.Sprintf("<built-in function %s>", x.name)
	case Callable:
		return "<function>"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eEn") {
		s += ".0"
	}
	return s
}

func quoteString(s string) string {
	quote := "'"
	if strings.Contains(s, "'") && !strings.Contains(s, "\"") {
		quote = "\""
	}
	var b strings.Builder
	b.WriteString(quote)
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			if string(r) == quote {
				b.WriteString(`\` + quote)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteString(quote)
	return b.String()
}

// FromGo converts host Go values into script values. Slices become lists,
// string-keyed maps become dicts and sized numeric types are widened.
// Anything else is passed through and accessed by reflection.
func FromGo(v any) Value {
	switch x := v.(type) {
	case nil, bool, int, float64, string, *List, *Dict, Tuple, Callable:
		return x
	case int8:
		return int(x)
	case int16:
		return int(x)
	case int32:
		return int(x)
	case int64:
		return int(x)
	case uint:
		return int(x)
	case uint8:
		return int(x)
	case uint16:
		return int(x)
	case uint32:
		return int(x)
	case uint64:
		return int(x)
	case float32:
		return float64(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = FromGo(item)
		}
		return NewList(items...)
	case []string:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = item
		}
		return NewList(items...)
	case []int:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = item
		}
		return NewList(items...)
	case map[string]any:
		d := DictFromMap(nil)
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_ = d.Set(k, FromGo(x[k]))
		}
		return d
	case map[string]string:
		d := NewDict()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_ = d.Set(k, x[k])
		}
		return d
	}
	return v
}

// ToGo converts script containers back to plain Go values
// ([]any, map[string]any). Host objects are returned unchanged.
func ToGo(v Value) any {
	switch x := v.(type) {
	case *List:
		out := make([]any, len(x.Items))
		for i, item := range x.Items {
			out[i] = ToGo(item)
		}
		return out
	case Tuple:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = ToGo(item)
		}
		return out
	case *Dict:
		out := make(map[string]any, x.Len())
		for i, k := range x.keys {
			key, ok := k.(string)
			if !ok {
				key = Str(k)
			}
			out[key] = ToGo(x.vals[i])
		}
		return out
	}
	return v
}
