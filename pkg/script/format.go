package script

import (
	"math"
	"strconv"
	"strings"
)

// formatSpec is the parsed form of [[fill]align][sign][#][0][width][,][.precision][type].
type formatSpec struct {
	fill      string
	align     byte
	sign      byte
	zero      bool
	width     int
	comma     bool
	precision int
	kind      byte
}

func parseSpec(spec string) (*formatSpec, error) {
	fs := &formatSpec{fill: " ", precision: -1}
	r := []rune(spec)
	i := 0
	isAlign := func(c rune) bool { return c == '<' || c == '>' || c == '^' || c == '=' }
	if len(r) >= 2 && isAlign(r[1]) {
		fs.fill = string(r[0])
		fs.align = byte(r[1])
		i = 2
	} else if len(r) >= 1 && isAlign(r[0]) {
		fs.align = byte(r[0])
		i = 1
	}
	if i < len(r) && (r[i] == '+' || r[i] == '-' || r[i] == ' ') {
		fs.sign = byte(r[i])
		i++
	}
	if i < len(r) && r[i] == '#' {
		i++
	}
	if i < len(r) && r[i] == '0' {
		fs.zero = true
		i++
	}
	start := i
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	if i > start {
		fs.width, _ = strconv.Atoi(string(r[start:i]))
	}
	if i < len(r) && (r[i] == ',' || r[i] == '_') {
		fs.comma = true
		i++
	}
	if i < len(r) && r[i] == '.' {
		i++
		start = i
		for i < len(r) && r[i] >= '0' && r[i] <= '9' {
			i++
		}
		if i == start {
			return nil, newError(KindValue, "Format specifier missing precision")
		}
		fs.precision, _ = strconv.Atoi(string(r[start:i]))
	}
	if i < len(r) {
		fs.kind = byte(r[i])
		i++
	}
	if i != len(r) {
		return nil, newError(KindValue, "Invalid format specifier '%s'", spec)
	}
	return fs, nil
}

// Format applies a format specification to v the way format() does.
func Format(v Value, spec string) (Value, error) {
	if spec == "" {
		return Str(v), nil
	}
	fs, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}
	var body string
	numeric := false
	switch fs.kind {
	case 0, 's':
		if fs.kind == 0 {
			if _, _, _, ok := asNumber(v); ok {
				if _, isBool := v.(bool); !isBool {
					numeric = true
					body, err = formatNumber(v, fs)
					break
				}
			}
		}
		if fs.kind == 's' {
			if _, ok := v.(string); !ok {
				if _, _, _, isNum := asNumber(v); isNum {
					return nil, newError(KindValue, "Unknown format code 's' for object of type '%s'", TypeName(v))
				}
			}
		}
		body = Str(v)
		if fs.precision >= 0 {
			if r := []rune(body); len(r) > fs.precision {
				body = string(r[:fs.precision])
			}
		}
	case 'd', 'f', 'F', 'e', 'E', 'g', 'G', '%', 'x', 'X', 'o', 'b':
		numeric = true
		body, err = formatNumber(v, fs)
	default:
		return nil, newError(KindValue, "Unknown format code '%c' for object of type '%s'", fs.kind, TypeName(v))
	}
	if err != nil {
		return nil, err
	}
	align := fs.align
	if align == 0 {
		align = '<'
		if numeric {
			align = '>'
		}
	}
	if fs.zero && align == '>' && numeric && fs.align == 0 {
		return zeroPad(body, fs.width), nil
	}
	if align == '=' {
		return zeroPadWith(body, fs.width, fs.fill), nil
	}
	return pad(body, fs.width, align, fs.fill), nil
}

func formatNumber(v Value, fs *formatSpec) (string, error) {
	i, f, isFloat, ok := asNumber(v)
	if !ok {
		return "", newError(KindValue, "Unknown format code '%c' for object of type '%s'", fs.kind, TypeName(v))
	}
	var body string
	neg := false
	switch fs.kind {
	case 'd':
		if isFloat {
			return "", newError(KindValue, "Unknown format code 'd' for object of type 'float'")
		}
		neg = i < 0
		body = strconv.Itoa(absInt(i))
	case 'x', 'X', 'o', 'b':
		if isFloat {
			return "", newError(KindValue, "Unknown format code '%c' for object of type 'float'", fs.kind)
		}
		base := map[byte]int{'x': 16, 'X': 16, 'o': 8, 'b': 2}[fs.kind]
		neg = i < 0
		body = strconv.FormatInt(int64(absInt(i)), base)
		if fs.kind == 'X' {
			body = strings.ToUpper(body)
		}
	case 'f', 'F':
		p := fs.precision
		if p < 0 {
			p = 6
		}
		neg = math.Signbit(f) && f != 0
		body = strconv.FormatFloat(math.Abs(f), 'f', p, 64)
	case 'e', 'E':
		p := fs.precision
		if p < 0 {
			p = 6
		}
		neg = f < 0
		body = strconv.FormatFloat(math.Abs(f), 'e', p, 64)
		if fs.kind == 'E' {
			body = strings.ToUpper(body)
		}
	case 'g', 'G':
		p := fs.precision
		if p < 0 {
			p = 6
		}
		if p == 0 {
			p = 1
		}
		neg = f < 0
		body = strconv.FormatFloat(math.Abs(f), 'g', p, 64)
	case '%':
		p := fs.precision
		if p < 0 {
			p = 6
		}
		neg = f < 0
		body = strconv.FormatFloat(math.Abs(f*100), 'f', p, 64) + "%"
	default:
		if isFloat {
			neg = f < 0
			if fs.precision >= 0 {
				body = strconv.FormatFloat(math.Abs(f), 'g', max(fs.precision, 1), 64)
			} else {
				body = formatFloat(math.Abs(f))
			}
		} else {
			neg = i < 0
			body = strconv.Itoa(absInt(i))
		}
	}
	if fs.comma {
		body = groupThousands(body)
	}
	switch {
	case neg:
		body = "-" + body
	case fs.sign == '+':
		body = "+" + body
	case fs.sign == ' ':
		body = " " + body
	}
	return body, nil
}

func absInt(i int) int {
	if i < 0 {
		return -i
	}
	return i
}

func groupThousands(s string) string {
	intPart, rest := s, ""
	if i := strings.IndexAny(s, ".e%"); i >= 0 {
		intPart, rest = s[:i], s[i:]
	}
	if len(intPart) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return b.String() + rest
}

func pad(s string, width int, align byte, fill string) string {
	n := len([]rune(s))
	if width <= n {
		return s
	}
	gap := width - n
	switch align {
	case '>':
		return strings.Repeat(fill, gap) + s
	case '^':
		left := gap / 2
		return strings.Repeat(fill, left) + s + strings.Repeat(fill, gap-left)
	}
	return s + strings.Repeat(fill, gap)
}

func zeroPad(s string, width int) string {
	return zeroPadWith(s, width, "0")
}

func zeroPadWith(s string, width int, fill string) string {
	sign := ""
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") || strings.HasPrefix(s, " ") {
		sign, s = s[:1], s[1:]
	}
	if gap := width - len([]rune(s)) - len(sign); gap > 0 {
		s = strings.Repeat(fill, gap) + s
	}
	return sign + s
}

// strFormat implements str.format with positional and keyword fields.
func strFormat(tmpl string, args []Value, kwargs map[string]Value) (Value, error) {
	var b strings.Builder
	auto := 0
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c == '{' && i+1 < len(tmpl) && tmpl[i+1] == '{' {
			b.WriteByte('{')
			i++
			continue
		}
		if c == '}' && i+1 < len(tmpl) && tmpl[i+1] == '}' {
			b.WriteByte('}')
			i++
			continue
		}
		if c != '{' {
			b.WriteByte(c)
			continue
		}
		end := strings.IndexByte(tmpl[i:], '}')
		if end < 0 {
			return nil, newError(KindValue, "Single '{' encountered in format string")
		}
		field := tmpl[i+1 : i+end]
		i += end
		name, spec, _ := strings.Cut(field, ":")
		var v Value
		switch {
		case name == "":
			if auto >= len(args) {
				return nil, newError(KindIndex, "Replacement index %d out of range for positional args tuple", auto)
			}
			v = args[auto]
			auto++
		case name[0] >= '0' && name[0] <= '9':
			idx, err := strconv.Atoi(name)
			if err != nil || idx >= len(args) {
				return nil, newError(KindIndex, "Replacement index %s out of range for positional args tuple", name)
			}
			v = args[idx]
		default:
			var ok bool
			if v, ok = kwargs[name]; !ok {
				return nil, newError(KindKey, "'%s'", name)
			}
		}
		out, err := Format(v, spec)
		if err != nil {
			return nil, err
		}
		b.WriteString(Str(out))
	}
	return b.String(), nil
}

// percentFormat implements the "%" operator for %s, %d, %r, %f, %% directives.
func percentFormat(tmpl string, arg Value) (Value, error) {
	var args []Value
	if t, ok := arg.(Tuple); ok {
		args = t
	} else {
		args = []Value{arg}
	}
	var b strings.Builder
	n := 0
	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' {
			b.WriteByte(c)
			continue
		}
		j := i + 1
		for j < len(tmpl) && strings.IndexByte("0123456789.-+ ", tmpl[j]) >= 0 {
			j++
		}
		if j >= len(tmpl) {
			return nil, newError(KindValue, "incomplete format")
		}
		verb := tmpl[j]
		if verb == '%' {
			b.WriteByte('%')
			i = j
			continue
		}
		if n >= len(args) {
			return nil, newError(KindType, "not enough arguments for format string")
		}
		flags := tmpl[i+1 : j]
		var out Value
		var err error
		switch verb {
		case 's':
			out, err = Format(Str(args[n]), percentSpec(flags, "s", false))
		case 'r':
			out, err = Format(Repr(args[n]), percentSpec(flags, "s", false))
		case 'd', 'i':
			v := args[n]
			if f, ok := v.(float64); ok {
				if v, err = floatToInt(f); err != nil {
					return nil, err
				}
			}
			out, err = Format(v, percentSpec(flags, "d", true))
		case 'f', 'e', 'g', 'x', 'X', 'o':
			out, err = Format(args[n], percentSpec(flags, string(verb), true))
		default:
			return nil, newError(KindValue, "unsupported format character '%c'", verb)
		}
		if err != nil {
			return nil, err
		}
		b.WriteString(Str(out))
		n++
		i = j
	}
	if n < len(args) {
		return nil, newError(KindType, "not all arguments converted during string formatting")
	}
	return b.String(), nil
}

func percentSpec(flags, kind string, numeric bool) string {
	align := ""
	if strings.HasPrefix(flags, "-") {
		align = "<"
		flags = flags[1:]
	} else if !numeric && flags != "" {
		align = ">"
	}
	return align + flags + kind
}
