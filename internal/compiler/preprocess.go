package compiler

import (
	"regexp"
	"strings"
)

var importRe = regexp.MustCompile(`^(?:import\s+[\w.]+(?:\s+as\s+\w+)?(?:\s*,\s*[\w.]+(?:\s+as\s+\w+)?)*|from\s+[\w.]+\s+import\s+.+)$`)

// stripInlineComment removes a trailing "// comment". An escaped "\//" yields
// a literal "//" and "//=" is an operator, never a comment.
func stripInlineComment(s string) (content, comment string) {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		rest := s[i:]
		switch {
		case strings.HasPrefix(rest, `\//`):
			b.WriteString("//")
			i += 2
		case strings.HasPrefix(rest, "//="):
			b.WriteString("//=")
			i += 2
		case strings.HasPrefix(rest, "//"):
			return b.String(), rest
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), ""
}

// extractImports collects the import statements at the top of the unit and
// blanks their lines. Blank and comment lines may be interleaved; the first
// other line closes the import section, and any import after that point is an
// error. Lines inside script blocks are not inspected.
func (p *parser) extractImports() ([]string, error) {
	var imports []string
	inSection := true
	inPy, pyBracket := false, false

	for i, raw := range p.lines {
		s := strings.TrimSpace(raw)
		if inPy {
			if (pyBracket && s == ">>") || (!pyBracket && s == "@endpy") {
				inPy = false
			}
			continue
		}
		switch {
		case s == "" || (strings.HasPrefix(s, "#") && inSection):
			continue
		case importRe.MatchString(s):
			if !inSection {
				return nil, p.errorAt(i, KindImport, "Import statements must appear at the top of the file",
					"Move '"+s+"' above all passages and content.")
			}
			imports = append(imports, s)
			p.lines[i] = ""
		default:
			inSection = false
			if c := classify(raw); c.kind == linePyOpen {
				inPy, pyBracket = true, c.bracket
			}
		}
	}
	return imports, nil
}

// extractMetadata consumes "@metadata" blocks of indented "key: value" pairs
// and blanks their lines.
func (p *parser) extractMetadata() map[string]string {
	meta := map[string]string{}
	inBlock := false
	for i, raw := range p.lines {
		s := strings.TrimSpace(raw)
		if s == "@metadata" {
			inBlock = true
			p.lines[i] = ""
			continue
		}
		if !inBlock {
			continue
		}
		if s == "" {
			continue
		}
		if (strings.HasPrefix(raw, " ") || strings.HasPrefix(raw, "\t")) && strings.Contains(s, ":") {
			key, value, _ := strings.Cut(s, ":")
			meta[strings.TrimSpace(key)] = strings.TrimSpace(value)
			p.lines[i] = ""
			continue
		}
		inBlock = false
	}
	return meta
}
