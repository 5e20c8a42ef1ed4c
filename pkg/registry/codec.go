package registry

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/script"
	"github.com/mitchellh/mapstructure"
)

const (
	// TypeRepr tags values that could only be saved as their printed form.
	TypeRepr = "repr"
	// TypeDict tags dicts whose insertion order is not sorted key order.
	TypeDict = "dict"
)

// Encode converts a script value into a tree of JSON-safe Go values.
//
// Lists and tuples become slices, dicts become maps. A dict whose insertion
// order differs from sorted key order is wrapped in a {"_type": "dict",
// "order", "state"} record so loading restores the order. Saveable objects and
// structs become {"_type", "_module", "state"} records; anything else is
// saved as a repr record. Integral floats are written as json.Number
// ("2.0") so they decode back as floats.
func (r *Registry) Encode(v script.Value) (any, error) {
	switch x := v.(type) {
	case nil, bool, int, string:
		return x, nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return reprRecord(x), nil
		}
		if x == math.Trunc(x) && math.Abs(x) < 1e15 {
			return json.Number(strconv.FormatFloat(x, 'f', 1, 64)), nil
		}
		return x, nil
	case *script.List:
		return r.encodeSeq(x.Items)
	case script.Tuple:
		return r.encodeSeq(x)
	case *script.Dict:
		return r.encodeDict(x)
	case Saveable:
		fields, err := r.encodeFields(x.SaveFields())
		if err != nil {
			return nil, err
		}
		return typedRecord(x, fields), nil
	}

	if isStruct(v) {
		var fields map[string]any
		if err := mapstructure.Decode(v, &fields); err != nil {
			return nil, fmt.Errorf("save %s: %w", script.TypeName(v), err)
		}
		enc, err := r.encodeFields(fields)
		if err != nil {
			return nil, err
		}
		return typedRecord(v, enc), nil
	}
	return reprRecord(v), nil
}

func (r *Registry) encodeDict(d *script.Dict) (any, error) {
	out := make(map[string]any, d.Len())
	order := make([]any, 0, d.Len())
	sorted := true
	for _, k := range d.Keys() {
		val, _ := d.Get(k)
		enc, err := r.Encode(val)
		if err != nil {
			return nil, err
		}
		key, ok := k.(string)
		if !ok {
			key = script.Str(k)
		}
		if _, dup := out[key]; !dup {
			if n := len(order); n > 0 && order[n-1].(string) > key {
				sorted = false
			}
			order = append(order, key)
		}
		out[key] = enc
	}
	if sorted {
		return out, nil
	}
	return map[string]any{
		domain.KeyType:  TypeDict,
		domain.KeyOrder: order,
		domain.KeyState: out,
	}, nil
}

func (r *Registry) encodeSeq(items []script.Value) ([]any, error) {
	out := make([]any, len(items))
	for i, item := range items {
		enc, err := r.Encode(item)
		if err != nil {
			return nil, err
		}
		out[i] = enc
	}
	return out, nil
}

func (r *Registry) encodeFields(fields map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, val := range fields {
		enc, err := r.Encode(script.FromGo(val))
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", k, err)
		}
		out[k] = enc
	}
	return out, nil
}

func isStruct(v any) bool {
	t := reflect.TypeOf(v)
	if t == nil {
		return false
	}
	if t.Kind() == reflect.Ptr {
		if reflect.ValueOf(v).IsNil() {
			return false
		}
		t = t.Elem()
	}
	return t.Kind() == reflect.Struct
}

func typedRecord(v any, state map[string]any) map[string]any {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return map[string]any{
		domain.KeyType:   t.Name(),
		domain.KeyModule: t.PkgPath(),
		domain.KeyState:  state,
	}
}

func reprRecord(v any) map[string]any {
	return map[string]any{
		domain.KeyType:  TypeRepr,
		domain.KeyState: script.Repr(v),
	}
}

// Decode mirrors Encode. Typed records whose type has a registered factory
// are rebuilt by it; unregistered records decode to a dict of their state
// and repr records decode to their string. Numbers may arrive as
// json.Number (decoders using UseNumber) or float64.
func (r *Registry) Decode(v any) (script.Value, error) {
	switch x := v.(type) {
	case json.Number:
		s := x.String()
		if !strings.ContainsAny(s, ".eE") {
			if i, err := strconv.Atoi(s); err == nil {
				return i, nil
			}
		}
		f, err := x.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", s, err)
		}
		return f, nil
	case []any:
		items := make([]script.Value, len(x))
		for i, item := range x {
			dec, err := r.Decode(item)
			if err != nil {
				return nil, err
			}
			items[i] = dec
		}
		return script.NewList(items...), nil
	case map[string]any:
		return r.decodeObject(x)
	}
	return script.FromGo(v), nil
}

func (r *Registry) decodeObject(m map[string]any) (script.Value, error) {
	typeName, tagged := m[domain.KeyType].(string)
	if !tagged {
		return r.decodeDict(m)
	}
	if typeName == TypeRepr {
		if s, ok := m[domain.KeyState].(string); ok {
			return s, nil
		}
	}
	state, _ := m[domain.KeyState].(map[string]any)
	if typeName == TypeDict {
		return r.decodeOrderedDict(state, m[domain.KeyOrder])
	}
	fn, ok := r.Lookup(typeName)
	if !ok {
		return r.decodeDict(state)
	}
	fields := make(map[string]any, len(state))
	for k, val := range state {
		dec, err := r.Decode(val)
		if err != nil {
			return nil, err
		}
		fields[k] = script.ToGo(dec)
	}
	obj, err := fn(fields)
	if err != nil {
		return nil, fmt.Errorf("restore %s: %w", typeName, err)
	}
	return script.FromGo(obj), nil
}

func (r *Registry) decodeDict(m map[string]any) (script.Value, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return r.dictFrom(m, keys)
}

// decodeOrderedDict restores keys listed in order first. Keys missing from
// order follow in sorted order.
func (r *Registry) decodeOrderedDict(m map[string]any, order any) (script.Value, error) {
	listed, _ := order.([]any)
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range listed {
		key, ok := k.(string)
		if !ok || seen[key] {
			continue
		}
		if _, ok := m[key]; ok {
			keys = append(keys, key)
			seen[key] = true
		}
	}
	rest := make([]string, 0, len(m)-len(keys))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return r.dictFrom(m, append(keys, rest...))
}

func (r *Registry) dictFrom(m map[string]any, keys []string) (script.Value, error) {
	d := script.NewDict()
	for _, k := range keys {
		dec, err := r.Decode(m[k])
		if err != nil {
			return nil, err
		}
		if err := d.Set(k, dec); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// EncodeVars encodes a variable table. Functions and modules are not story
// state and are left out.
func (r *Registry) EncodeVars(vars map[string]script.Value) (map[string]any, error) {
	out := make(map[string]any, len(vars))
	for name, v := range vars {
		switch v.(type) {
		case script.Callable, script.Module:
			continue
		}
		enc, err := r.Encode(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		out[name] = enc
	}
	return out, nil
}

// DecodeVars decodes a saved variable table.
func (r *Registry) DecodeVars(state map[string]any) (map[string]script.Value, error) {
	out := make(map[string]script.Value, len(state))
	for name, v := range state {
		dec, err := r.Decode(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		out[name] = dec
	}
	return out, nil
}
