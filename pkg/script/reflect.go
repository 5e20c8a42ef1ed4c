package script

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// fieldName maps a script attribute (snake_case or exact) to a struct field.
func findField(t reflect.Type, name string) (reflect.StructField, bool) {
	if f, ok := t.FieldByName(name); ok && f.IsExported() {
		return f, true
	}
	flat := strings.ReplaceAll(name, "_", "")
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		if tag := strings.Split(f.Tag.Get("json"), ",")[0]; tag == name {
			return f, true
		}
		if strings.EqualFold(f.Name, flat) {
			return f, true
		}
	}
	return reflect.StructField{}, false
}

func findMethod(v reflect.Value, name string) (reflect.Value, bool) {
	if m := v.MethodByName(name); m.IsValid() {
		return m, true
	}
	flat := strings.ReplaceAll(name, "_", "")
	t := v.Type()
	for i := 0; i < t.NumMethod(); i++ {
		if strings.EqualFold(t.Method(i).Name, flat) {
			return v.Method(i), true
		}
	}
	return reflect.Value{}, false
}

func getAttrReflect(obj Value, name string) (Value, bool) {
	if obj == nil {
		return nil, false
	}
	rv := reflect.ValueOf(obj)
	if m, ok := findMethod(rv, name); ok {
		return reflectFunc{name: name, fn: m}, true
	}
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Struct:
		f, ok := findField(rv.Type(), name)
		if !ok {
			return nil, false
		}
		return FromGo(rv.FieldByIndex(f.Index).Interface()), true
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(name).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		return FromGo(v.Interface()), true
	}
	return nil, false
}

func setAttrReflect(obj Value, name string, val Value) error {
	rv := reflect.ValueOf(obj)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		return setIndexValue(rv, reflect.ValueOf(name).Convert(rv.Type().Key()), val)
	}
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return newError(KindAttribute, "'%s' object attribute '%s' is read-only", TypeName(obj), name)
	}
	rv = rv.Elem()
	f, ok := findField(rv.Type(), name)
	if !ok {
		return newError(KindAttribute, "'%s' object has no attribute '%s'", TypeName(obj), name)
	}
	field := rv.FieldByIndex(f.Index)
	conv, err := convertArg(val, field.Type())
	if err != nil {
		return err
	}
	field.Set(conv)
	return nil
}

func indexReflect(container, key Value) (Value, bool, error) {
	rv := reflect.ValueOf(container)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false, nil
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		i, ok := key.(int)
		if !ok {
			return nil, true, newError(KindType, "indices must be integers, not %s", TypeName(key))
		}
		idx, ok := normalizeIndex(i, rv.Len())
		if !ok {
			return nil, true, newError(KindIndex, "index out of range")
		}
		return FromGo(rv.Index(idx).Interface()), true, nil
	case reflect.Map:
		k, err := convertArg(key, rv.Type().Key())
		if err != nil {
			return nil, true, err
		}
		v := rv.MapIndex(k)
		if !v.IsValid() {
			return nil, true, newError(KindKey, "%s", Repr(key))
		}
		return FromGo(v.Interface()), true, nil
	}
	return nil, false, nil
}

func setIndexReflect(container, key, val Value) (bool, error) {
	rv := reflect.ValueOf(container)
	switch rv.Kind() {
	case reflect.Map:
		k, err := convertArg(key, rv.Type().Key())
		if err != nil {
			return true, err
		}
		return true, setIndexValue(rv, k, val)
	case reflect.Slice:
		i, ok := key.(int)
		if !ok {
			return true, newError(KindType, "indices must be integers, not %s", TypeName(key))
		}
		idx, ok := normalizeIndex(i, rv.Len())
		if !ok {
			return true, newError(KindIndex, "assignment index out of range")
		}
		conv, err := convertArg(val, rv.Type().Elem())
		if err != nil {
			return true, err
		}
		rv.Index(idx).Set(conv)
		return true, nil
	}
	return false, nil
}

func setIndexValue(m reflect.Value, k reflect.Value, val Value) error {
	if m.IsNil() {
		return newError(KindType, "assignment to nil map")
	}
	conv, err := convertArg(val, m.Type().Elem())
	if err != nil {
		return err
	}
	m.SetMapIndex(k, conv)
	return nil
}

func iterReflect(v Value) ([]Value, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr || rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]Value, rv.Len())
		for i := range out {
			out[i] = FromGo(rv.Index(i).Interface())
		}
		return out, true
	case reflect.Map:
		keys := rv.MapKeys()
		out := make([]Value, len(keys))
		for i, k := range keys {
			out[i] = FromGo(k.Interface())
		}
		sort.Slice(out, func(i, j int) bool { return Str(out[i]) < Str(out[j]) })
		return out, true
	}
	return nil, false
}

func lenReflect(v Value) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return 0, false
		}
		rv = rv.Elem()
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len(), true
	}
	if m, ok := findMethod(reflect.ValueOf(v), "Len"); ok && m.Type().NumIn() == 0 && m.Type().NumOut() == 1 {
		out := m.Call(nil)[0]
		if out.CanInt() {
			return int(out.Int()), true
		}
	}
	return 0, false
}

// reflectFunc exposes an arbitrary Go function or method to scripts.
type reflectFunc struct {
	name string
	fn   reflect.Value
}

// WrapFunc exposes a Go function to scripts. Arguments are converted to the
// function's parameter types; a trailing error result is raised.
func WrapFunc(name string, fn any) Callable {
	if c, ok := fn.(Callable); ok {
		return c
	}
	return reflectFunc{name: name, fn: reflect.ValueOf(fn)}
}

func (f reflectFunc) String() string { return fmt.Sprintf("<function %s>", f.name) }

func (f reflectFunc) Call(args []Value, kwargs map[string]Value) (Value, error) {
	if len(kwargs) > 0 {
		return nil, newError(KindType, "%s() does not accept keyword arguments", f.name)
	}
	t := f.fn.Type()
	nin := t.NumIn()
	if t.IsVariadic() {
		if len(args) < nin-1 {
			return nil, newError(KindType, "%s() takes at least %d arguments (%d given)", f.name, nin-1, len(args))
		}
	} else if len(args) != nin {
		return nil, newError(KindType, "%s() takes %d arguments (%d given)", f.name, nin, len(args))
	}
	in := make([]reflect.Value, len(args))
	for i, a := range args {
		var pt reflect.Type
		if t.IsVariadic() && i >= nin-1 {
			pt = t.In(nin - 1).Elem()
		} else {
			pt = t.In(i)
		}
		v, err := convertArg(a, pt)
		if err != nil {
			return nil, err
		}
		in[i] = v
	}
	out := f.fn.Call(in)
	if n := len(out); n > 0 && t.Out(n-1).Implements(errorType) {
		if errV := out[n-1]; !errV.IsNil() {
			err := errV.Interface().(error)
			return nil, &Error{Kind: KindRuntime, Msg: err.Error()}
		}
		out = out[:n-1]
	}
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		return FromGo(out[0].Interface()), nil
	}
	tup := make(Tuple, len(out))
	for i, o := range out {
		tup[i] = FromGo(o.Interface())
	}
	return tup, nil
}

func convertArg(v Value, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
			return reflect.Zero(t), nil
		}
		return reflect.Value{}, newError(KindType, "cannot use None as %s", t)
	}
	if t.Kind() == reflect.Interface && t.NumMethod() == 0 {
		return reflect.ValueOf(ToGo(v)), nil
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	plain := reflect.ValueOf(ToGo(v))
	if plain.Type().AssignableTo(t) {
		return plain, nil
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		if _, _, _, ok := asNumber(v); ok && plain.Type().ConvertibleTo(t) {
			return plain.Convert(t), nil
		}
	case reflect.String:
		if s, ok := v.(string); ok {
			return reflect.ValueOf(s).Convert(t), nil
		}
	case reflect.Slice:
		items, err := iterate(v)
		if err != nil {
			break
		}
		out := reflect.MakeSlice(t, len(items), len(items))
		for i, item := range items {
			e, err := convertArg(item, t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.Index(i).Set(e)
		}
		return out, nil
	case reflect.Map:
		d, ok := v.(*Dict)
		if !ok {
			break
		}
		out := reflect.MakeMapWithSize(t, d.Len())
		for i, k := range d.keys {
			kv, err := convertArg(k, t.Key())
			if err != nil {
				return reflect.Value{}, err
			}
			vv, err := convertArg(d.vals[i], t.Elem())
			if err != nil {
				return reflect.Value{}, err
			}
			out.SetMapIndex(kv, vv)
		}
		return out, nil
	}
	return reflect.Value{}, newError(KindType, "cannot use %s as %s", TypeName(v), t)
}
