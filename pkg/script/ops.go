package script

import (
	"math"
	"reflect"
	"strings"
)

func asNumber(v Value) (int, float64, bool, bool) {
	switch x := v.(type) {
	case bool:
		if x {
			return 1, 1, false, true
		}
		return 0, 0, false, true
	case int:
		return x, float64(x), false, true
	case float64:
		return 0, x, true, true
	}
	return 0, 0, false, false
}

func binaryOp(op string, a, b Value) (Value, error) {
	ai, af, aFloat, aNum := asNumber(a)
	bi, bf, bFloat, bNum := asNumber(b)
	if aNum && bNum {
		if aFloat || bFloat || op == "/" {
			return floatOp(op, af, bf)
		}
		return intOp(op, ai, bi)
	}
	switch op {
	case "+":
		switch x := a.(type) {
		case string:
			if y, ok := b.(string); ok {
				return x + y, nil
			}
		case *List:
			if y, ok := b.(*List); ok {
				items := make([]Value, 0, len(x.Items)+len(y.Items))
				items = append(items, x.Items...)
				return NewList(append(items, y.Items...)...), nil
			}
		case Tuple:
			if y, ok := b.(Tuple); ok {
				out := make(Tuple, 0, len(x)+len(y))
				return append(append(out, x...), y...), nil
			}
		}
	case "*":
		if n, ok := b.(int); ok {
			return repeat(a, n, op, b)
		}
		if n, ok := a.(int); ok {
			return repeat(b, n, op, a)
		}
	case "%":
		if s, ok := a.(string); ok {
			return percentFormat(s, b)
		}
	}
	return nil, newError(KindType, "unsupported operand type(s) for %s: '%s' and '%s'", op, TypeName(a), TypeName(b))
}

func repeat(seq Value, n int, op string, other Value) (Value, error) {
	if n < 0 {
		n = 0
	}
	switch x := seq.(type) {
	case string:
		return strings.Repeat(x, n), nil
	case *List:
		items := make([]Value, 0, len(x.Items)*n)
		for i := 0; i < n; i++ {
			items = append(items, x.Items...)
		}
		return NewList(items...), nil
	case Tuple:
		out := make(Tuple, 0, len(x)*n)
		for i := 0; i < n; i++ {
			out = append(out, x...)
		}
		return out, nil
	}
	return nil, newError(KindType, "unsupported operand type(s) for %s: '%s' and '%s'", op, TypeName(seq), TypeName(other))
}

func intOp(op string, a, b int) (Value, error) {
	switch op {
	case "+":
		return addInt(a, b)
	case "-":
		return subInt(a, b)
	case "*":
		return mulInt(a, b)
	case "//":
		if b == 0 {
			return nil, newError(KindZeroDiv, "integer division or modulo by zero")
		}
		if a == math.MinInt && b == -1 {
			return nil, errIntOverflow
		}
		q := a / b
		if (a%b != 0) && ((a < 0) != (b < 0)) {
			q--
		}
		return q, nil
	case "%":
		if b == 0 {
			return nil, newError(KindZeroDiv, "integer division or modulo by zero")
		}
		m := a % b
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return m, nil
	case "**":
		if b < 0 {
			return math.Pow(float64(a), float64(b)), nil
		}
		return powInt(a, b)
	}
	return nil, newError(KindType, "unsupported operator %s", op)
}

// Integers are 64-bit; results outside that range raise OverflowError
// instead of wrapping.
var errIntOverflow = newError(KindOverflow, "integer result too large")

func addInt(a, b int) (Value, error) {
	c := a + b
	if (c > a) != (b > 0) {
		return nil, errIntOverflow
	}
	return c, nil
}

func subInt(a, b int) (Value, error) {
	c := a - b
	if (c < a) != (b > 0) {
		return nil, errIntOverflow
	}
	return c, nil
}

func mulInt(a, b int) (Value, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	c := a * b
	if (a == -1 && b == math.MinInt) || (b == -1 && a == math.MinInt) || c/b != a {
		return nil, errIntOverflow
	}
	return c, nil
}

func negInt(a int) (Value, error) {
	if a == math.MinInt {
		return nil, errIntOverflow
	}
	return -a, nil
}

// powInt squares and multiplies so large exponents of 0, 1 and -1 stay cheap.
func powInt(base, exp int) (Value, error) {
	result := 1
	for exp > 0 {
		if exp&1 == 1 {
			r, err := mulInt(result, base)
			if err != nil {
				return nil, err
			}
			result = r.(int)
		}
		exp >>= 1
		if exp > 0 {
			b, err := mulInt(base, base)
			if err != nil {
				return nil, err
			}
			base = b.(int)
		}
	}
	return result, nil
}

// floatToInt truncates f toward zero, rejecting values with no int form.
func floatToInt(f float64) (int, error) {
	switch {
	case math.IsNaN(f):
		return 0, newError(KindValue, "cannot convert float NaN to integer")
	case math.IsInf(f, 0):
		return 0, newError(KindOverflow, "cannot convert float infinity to integer")
	}
	t := math.Trunc(f)
	if t < float64(math.MinInt) || t >= -float64(math.MinInt) {
		return 0, newError(KindOverflow, "float %s too large to convert to integer", Repr(f))
	}
	return int(t), nil
}

func floatOp(op string, a, b float64) (Value, error) {
	switch op {
	case "+":
		return a + b, nil
	case "-":
		return a - b, nil
	case "*":
		return a * b, nil
	case "/":
		if b == 0 {
			return nil, newError(KindZeroDiv, "division by zero")
		}
		return a / b, nil
	case "//":
		if b == 0 {
			return nil, newError(KindZeroDiv, "float floor division by zero")
		}
		return math.Floor(a / b), nil
	case "%":
		if b == 0 {
			return nil, newError(KindZeroDiv, "float modulo")
		}
		m := math.Mod(a, b)
		if m != 0 && ((m < 0) != (b < 0)) {
			m += b
		}
		return m, nil
	case "**":
		return math.Pow(a, b), nil
	}
	return nil, newError(KindType, "unsupported operator %s", op)
}

func unaryOp(op string, v Value) (Value, error) {
	switch op {
	case "not":
		return !Truthy(v), nil
	case "-":
		i, f, isFloat, ok := asNumber(v)
		if !ok {
			break
		}
		if isFloat {
			return -f, nil
		}
		return negInt(i)
	case "+":
		i, f, isFloat, ok := asNumber(v)
		if !ok {
			break
		}
		if isFloat {
			return f, nil
		}
		return i, nil
	}
	return nil, newError(KindType, "bad operand type for unary %s: '%s'", op, TypeName(v))
}

// Equal reports script-level equality.
func Equal(a, b Value) bool {
	_, af, _, aNum := asNumber(a)
	_, bf, _, bNum := asNumber(b)
	if aNum && bNum {
		return af == bf
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case *List:
		y, ok := b.(*List)
		return ok && seqEqual(x.Items, y.Items)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && seqEqual(x, y)
	case *Dict:
		y, ok := b.(*Dict)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			v, found := y.Get(k)
			if !found || !Equal(x.vals[i], v) {
				return false
			}
		}
		return true
	}
	if b == nil {
		return false
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	if ta.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func seqEqual(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// compare returns -1, 0 or 1 for orderable operands.
func compare(a, b Value) (int, error) {
	_, af, _, aNum := asNumber(a)
	_, bf, _, bNum := asNumber(b)
	if aNum && bNum {
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		}
		return 0, nil
	}
	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return strings.Compare(x, y), nil
		}
	case *List:
		if y, ok := b.(*List); ok {
			return seqCompare(x.Items, y.Items)
		}
	case Tuple:
		if y, ok := b.(Tuple); ok {
			return seqCompare(x, y)
		}
	}
	return 0, newError(KindType, "'<' not supported between instances of '%s' and '%s'", TypeName(a), TypeName(b))
}

func seqCompare(a, b []Value) (int, error) {
	for i := 0; i < len(a) && i < len(b); i++ {
		if Equal(a[i], b[i]) {
			continue
		}
		return compare(a[i], b[i])
	}
	switch {
	case len(a) < len(b):
		return -1, nil
	case len(a) > len(b):
		return 1, nil
	}
	return 0, nil
}

func compareOp(op string, a, b Value) (bool, error) {
	switch op {
	case "==":
		return Equal(a, b), nil
	case "!=":
		return !Equal(a, b), nil
	case "is":
		return identical(a, b), nil
	case "is not":
		return !identical(a, b), nil
	case "in":
		return contains(b, a)
	case "not in":
		ok, err := contains(b, a)
		return !ok, err
	}
	c, err := compare(a, b)
	if err != nil {
		return false, err
	}
	switch op {
	case "<":
		return c < 0, nil
	case "<=":
		return c <= 0, nil
	case ">":
		return c > 0, nil
	case ">=":
		return c >= 0, nil
	}
	return false, newError(KindSyntax, "unknown comparison %s", op)
}

func identical(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch a.(type) {
	case bool, int, float64, string:
		return Equal(a, b) && TypeName(a) == TypeName(b)
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.Ptr && rb.Kind() == reflect.Ptr {
		return ra.Pointer() == rb.Pointer()
	}
	return Equal(a, b)
}

func contains(container, item Value) (bool, error) {
	switch c := container.(type) {
	case string:
		s, ok := item.(string)
		if !ok {
			return false, newError(KindType, "'in <string>' requires string as left operand, not %s", TypeName(item))
		}
		return strings.Contains(c, s), nil
	case *List:
		for _, v := range c.Items {
			if Equal(v, item) {
				return true, nil
			}
		}
		return false, nil
	case Tuple:
		for _, v := range c {
			if Equal(v, item) {
				return true, nil
			}
		}
		return false, nil
	case *Dict:
		_, ok := c.Get(item)
		return ok, nil
	}
	items, err := iterate(container)
	if err != nil {
		return false, newError(KindType, "argument of type '%s' is not iterable", TypeName(container))
	}
	for _, v := range items {
		if Equal(v, item) {
			return true, nil
		}
	}
	return false, nil
}

// iterate snapshots the elements of an iterable.
func iterate(v Value) ([]Value, error) {
	switch x := v.(type) {
	case *List:
		out := make([]Value, len(x.Items))
		copy(out, x.Items)
		return out, nil
	case Tuple:
		return []Value(x), nil
	case string:
		out := make([]Value, 0, len(x))
		for _, r := range x {
			out = append(out, string(r))
		}
		return out, nil
	case *Dict:
		return x.Keys(), nil
	}
	if items, ok := iterReflect(v); ok {
		return items, nil
	}
	return nil, newError(KindType, "'%s' object is not iterable", TypeName(v))
}

func normalizeIndex(i, n int) (int, bool) {
	if i < 0 {
		i += n
	}
	return i, i >= 0 && i < n
}

func getItem(container, key Value) (Value, error) {
	if sl, ok := key.(*sliceValue); ok {
		return sliceItems(container, sl)
	}
	switch c := container.(type) {
	case *List:
		return seqIndex(c.Items, key, "list")
	case Tuple:
		return seqIndex(c, key, "tuple")
	case string:
		runes := []rune(c)
		i, ok := key.(int)
		if !ok {
			return nil, newError(KindType, "string indices must be integers")
		}
		idx, ok := normalizeIndex(i, len(runes))
		if !ok {
			return nil, newError(KindIndex, "string index out of range")
		}
		return string(runes[idx]), nil
	case *Dict:
		v, ok := c.Get(key)
		if !ok {
			return nil, newError(KindKey, "%s", Repr(key))
		}
		return v, nil
	}
	if v, ok, err := indexReflect(container, key); ok || err != nil {
		return v, err
	}
	return nil, newError(KindType, "'%s' object is not subscriptable", TypeName(container))
}

func seqIndex(items []Value, key Value, kind string) (Value, error) {
	i, ok := key.(int)
	if !ok {
		if b, isBool := key.(bool); isBool {
			i = 0
			if b {
				i = 1
			}
		} else {
			return nil, newError(KindType, "%s indices must be integers, not %s", kind, TypeName(key))
		}
	}
	idx, ok := normalizeIndex(i, len(items))
	if !ok {
		return nil, newError(KindIndex, "%s index out of range", kind)
	}
	return items[idx], nil
}

func setItem(container, key, val Value) error {
	switch c := container.(type) {
	case *List:
		i, ok := key.(int)
		if !ok {
			return newError(KindType, "list indices must be integers, not %s", TypeName(key))
		}
		idx, ok := normalizeIndex(i, len(c.Items))
		if !ok {
			return newError(KindIndex, "list assignment index out of range")
		}
		c.Items[idx] = val
		return nil
	case *Dict:
		return c.Set(key, val)
	}
	if ok, err := setIndexReflect(container, key, val); ok || err != nil {
		return err
	}
	return newError(KindType, "'%s' object does not support item assignment", TypeName(container))
}

func delItem(container, key Value) error {
	switch c := container.(type) {
	case *List:
		i, ok := key.(int)
		if !ok {
			return newError(KindType, "list indices must be integers, not %s", TypeName(key))
		}
		idx, ok := normalizeIndex(i, len(c.Items))
		if !ok {
			return newError(KindIndex, "list assignment index out of range")
		}
		c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
		return nil
	case *Dict:
		if !c.Delete(key) {
			return newError(KindKey, "%s", Repr(key))
		}
		return nil
	}
	return newError(KindType, "'%s' object does not support item deletion", TypeName(container))
}

type sliceValue struct {
	lower, upper, step Value
}

func sliceBounds(sl *sliceValue, n int) (start, stop, step int, err error) {
	step = 1
	if sl.step != nil {
		s, ok := sl.step.(int)
		if !ok {
			return 0, 0, 0, newError(KindType, "slice indices must be integers or None")
		}
		if s == 0 {
			return 0, 0, 0, newError(KindValue, "slice step cannot be zero")
		}
		step = s
	}
	clamp := func(v Value, def int) (int, error) {
		if v == nil {
			return def, nil
		}
		i, ok := v.(int)
		if !ok {
			return 0, newError(KindType, "slice indices must be integers or None")
		}
		if i < 0 {
			i += n
		}
		if step > 0 {
			return max(0, min(i, n)), nil
		}
		return max(-1, min(i, n-1)), nil
	}
	if step > 0 {
		start, err = clamp(sl.lower, 0)
		if err == nil {
			stop, err = clamp(sl.upper, n)
		}
	} else {
		start, err = clamp(sl.lower, n-1)
		if err == nil {
			stop, err = clamp(sl.upper, -1)
		}
	}
	return start, stop, step, err
}

func sliceIndices(sl *sliceValue, n int) ([]int, error) {
	start, stop, step, err := sliceBounds(sl, n)
	if err != nil {
		return nil, err
	}
	var idx []int
	if step > 0 {
		for i := start; i < stop; i += step {
			idx = append(idx, i)
		}
	} else {
		for i := start; i > stop; i += step {
			idx = append(idx, i)
		}
	}
	return idx, nil
}

func sliceItems(container Value, sl *sliceValue) (Value, error) {
	switch c := container.(type) {
	case *List:
		idx, err := sliceIndices(sl, len(c.Items))
		if err != nil {
			return nil, err
		}
		out := make([]Value, len(idx))
		for i, j := range idx {
			out[i] = c.Items[j]
		}
		return NewList(out...), nil
	case Tuple:
		idx, err := sliceIndices(sl, len(c))
		if err != nil {
			return nil, err
		}
		out := make(Tuple, len(idx))
		for i, j := range idx {
			out[i] = c[j]
		}
		return out, nil
	case string:
		runes := []rune(c)
		idx, err := sliceIndices(sl, len(runes))
		if err != nil {
			return nil, err
		}
		out := make([]rune, len(idx))
		for i, j := range idx {
			out[i] = runes[j]
		}
		return string(out), nil
	}
	return nil, newError(KindType, "'%s' object is not subscriptable", TypeName(container))
}
