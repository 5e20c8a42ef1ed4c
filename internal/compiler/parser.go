package compiler

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
)

// parser turns the lines of one compilation unit (after include expansion)
// into a Document.
type parser struct {
	file   string
	lines  []string
	source []string
	locs   []Location
	logger *slog.Logger
}

func newParser(file string, lines []string, locs []Location, logger *slog.Logger) *parser {
	source := make([]string, len(lines))
	copy(source, lines)
	return &parser{file: file, lines: lines, source: source, locs: locs, logger: logger}
}

func (p *parser) loc(i int) Location {
	if i >= 0 && i < len(p.locs) {
		return p.locs[i]
	}
	return Location{File: p.file, Line: i + 1}
}

func (p *parser) errorAt(i int, kind, msg, hint string) *Error {
	l := p.loc(i)
	return &Error{
		Kind:    kind,
		File:    l.File,
		Line:    l.Line,
		Message: msg,
		Hint:    hint,
		Context: contextAround(p.source, i, p.locs),
	}
}

func (p *parser) unclosed(i int, kind blockKind, bracket bool) *Error {
	closer := kind.closer()
	if bracket {
		closer = "<<" + strings.TrimPrefix(closer, "@") + ">>"
		if kind == blockPy {
			closer = ">>"
		}
	}
	return p.errorAt(i, KindUnclosed,
		fmt.Sprintf("%s block opened here is never closed", kind.opener()),
		fmt.Sprintf("Add '%s' before the next passage header or the end of the file.", closer))
}

func (p *parser) warn(i int, msg string) {
	p.logger.Warn("ignoring directive", "at", p.loc(i).String(), "reason", msg)
}

// parse runs the whole pipeline: preprocessing, passage scanning, the
// whitespace post-pass, duplicate detection and start resolution.
func (p *parser) parse() (*domain.Document, error) {
	imports, err := p.extractImports()
	if err != nil {
		return nil, err
	}
	metadata := p.extractMetadata()

	doc := &domain.Document{
		Version:  domain.FormatVersion,
		Metadata: metadata,
		Imports:  imports,
		Passages: map[string]*domain.Passage{},
	}

	var (
		order     []string
		defs      = map[string][]Location{}
		current   *domain.Passage
		cur       *body
		start     string
		startLine = -1
		top       = section{lines: p.lines}
	)
	finish := func() {
		if current == nil {
			return
		}
		current.Content = trimTrailingNewlines(cleanupWhitespace(cur.nodes))
		current.Choices = cur.choices
		current.Execute = cur.execute
	}

	for i := 0; i < len(p.lines); {
		c := classify(p.lines[i])
		switch c.kind {
		case lineStart:
			if c.bad != "" {
				return nil, p.errorAt(i, KindSyntax, c.bad, c.hint)
			}
			start, startLine = c.arg, i
			i++
			continue
		case lineHeader:
			finish()
			name, tags := parseHeader(c.arg)
			if !passageNameRe.MatchString(name) {
				return nil, p.errorAt(i, KindSyntax, fmt.Sprintf("Invalid passage name '%s'", name),
					"Passage names may only contain letters, digits, underscores and dots so choices and jumps can target them.")
			}
			defs[name] = append(defs[name], p.loc(i))
			current = &domain.Passage{ID: name, Tags: tags, Line: p.loc(i).Line}
			cur = newBody(true)
			if len(defs[name]) == 1 {
				order = append(order, name)
				doc.Passages[name] = current
			}
			i++
			continue
		}

		if current == nil {
			i++
			continue
		}
		n, err := p.parseLine(top, i, cur)
		if err != nil {
			return nil, err
		}
		i += n
	}
	finish()

	if err := newDuplicateError(order, defs); err != nil {
		return nil, err
	}

	initial, err := p.initialPassage(doc, order, start, startLine)
	if err != nil {
		return nil, err
	}
	doc.InitialPassage = initial
	return doc, nil
}

// initialPassage resolves the start: an explicit @start, then a passage
// named Start, then the first passage defined.
func (p *parser) initialPassage(doc *domain.Document, order []string, start string, startLine int) (string, error) {
	if len(order) == 0 {
		return "", &Error{Kind: KindStory, File: p.file, Message: "Story has no passages",
			Hint: "Start a passage with ':: Start'.", Err: ErrNoPassages}
	}
	if start != "" {
		if _, ok := doc.Passages[start]; !ok {
			names := append([]string(nil), order...)
			sort.Strings(names)
			return "", p.errorAt(startLine, KindStart,
				fmt.Sprintf("Start passage '%s' specified by @start directive not found", start),
				"Available passages: "+strings.Join(names, ", "))
		}
		return start, nil
	}
	if _, ok := doc.Passages["Start"]; ok {
		return "Start", nil
	}
	p.logger.Warn("no 'Start' passage and no @start directive, defaulting to first passage",
		"passage", order[0], "file", p.file)
	return order[0], nil
}
