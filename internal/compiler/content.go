package compiler

import (
	"regexp"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
)

var (
	tagRe         = regexp.MustCompile(`\^\w+(?::[\w-]+)?`)
	passageNameRe = regexp.MustCompile(`^[\w.]+$`)
	choiceRe      = regexp.MustCompile(`^(?:\{([^}]+)\}\s*)?([+*])\s+(?:\{([^}]+)\}\s*)?\[(.*?)\]\s*->\s*([\w.]+)\s*$`)
	jumpRe        = regexp.MustCompile(`^->\s*([\w.]+)\s*$`)
)

// parseTags removes "^TAG" and "^TAG:param" tokens from s. A tag must start
// the line or follow whitespace, and is never taken from inside {...}.
func parseTags(s string) (string, []string) {
	matches := tagRe.FindAllStringIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}
	spans := braceSpans(s)
	var (
		tags []string
		b    strings.Builder
		last int
	)
	for _, m := range matches {
		if m[0] > 0 && s[m[0]-1] != ' ' && s[m[0]-1] != '\t' {
			continue
		}
		if inSpan(spans, m[0]) {
			continue
		}
		b.WriteString(s[last:m[0]])
		tags = append(tags, s[m[0]+1:m[1]])
		last = m[1]
	}
	if tags == nil {
		return s, nil
	}
	b.WriteString(s[last:])
	return strings.TrimRight(b.String(), " \t"), tags
}

// braceSpans finds balanced {...} interpolation spans, skipping braces inside
// quoted strings. Unbalanced braces are left as text.
func braceSpans(s string) [][2]int {
	var spans [][2]int
	for i := 0; i < len(s); i++ {
		if s[i] != '{' {
			continue
		}
		if end := matchBrace(s, i); end > i+1 {
			spans = append(spans, [2]int{i, end})
			i = end
		}
	}
	return spans
}

// matchBrace returns the index of the brace closing s[open], or -1.
func matchBrace(s string, open int) int {
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func inSpan(spans [][2]int, pos int) bool {
	for _, sp := range spans {
		if pos > sp[0] && pos < sp[1] {
			return true
		}
	}
	return false
}

// ParseContent tokenizes one line of prose the way passage bodies are
// tokenized, splitting out "{expr}" interpolations and trailing tags.
func ParseContent(s string) domain.Nodes {
	return parseContentLine(s)
}

// parseContentLine tokenizes a line into Text and Expression nodes. Trailing
// tags attach to the last node.
func parseContentLine(s string) domain.Nodes {
	s, _ = stripInlineComment(s)
	s, tags := parseTags(s)

	var nodes domain.Nodes
	last := 0
	for _, sp := range braceSpans(s) {
		if sp[0] > last {
			nodes = append(nodes, &domain.Text{Value: s[last:sp[0]]})
		}
		nodes = append(nodes, &domain.Expression{Code: s[sp[0]+1 : sp[1]]})
		last = sp[1] + 1
	}
	if last < len(s) {
		nodes = append(nodes, &domain.Text{Value: s[last:]})
	}

	if len(tags) > 0 && len(nodes) > 0 {
		switch n := nodes[len(nodes)-1].(type) {
		case *domain.Text:
			n.Tags = tags
		case *domain.Expression:
			n.Tags = tags
		}
	}
	return nodes
}

// parseChoiceLine parses "{cond} + [Text] -> Target ^TAG". The condition may
// also follow the marker.
func parseChoiceLine(s string) (domain.Choice, bool) {
	s, _ = stripInlineComment(strings.TrimSpace(s))
	s, tags := parseTags(s)

	m := choiceRe.FindStringSubmatch(s)
	if m == nil {
		return domain.Choice{}, false
	}
	cond := m[1]
	if cond == "" {
		cond = m[3]
	}
	return domain.Choice{
		Text:      parseContentLine(m[4]),
		Target:    m[5],
		Condition: strings.TrimSpace(cond),
		Sticky:    m[2] == "+",
		Tags:      tags,
	}, true
}

// parseHeader splits ":: Name ^TAG" into the name and its tags.
func parseHeader(arg string) (string, []string) {
	arg, _ = stripInlineComment(arg)
	name, tags := parseTags(arg)
	return strings.TrimSpace(name), tags
}
