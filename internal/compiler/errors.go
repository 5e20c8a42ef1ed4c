package compiler

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds shown in the report header.
const (
	KindSyntax     = "Syntax Error"
	KindUnclosed   = "Unclosed Block"
	KindMismatched = "Mismatched Block"
	KindDuplicate  = "Duplicate Passage"
	KindInclude    = "Include Error"
	KindImport     = "Import Error"
	KindStart      = "Start Passage Error"
	KindStory      = "Story Error"
)

var (
	ErrIncludeCycle     = errors.New("circular include")
	ErrIncludeNotFound  = errors.New("include file not found")
	ErrDuplicatePassage = errors.New("duplicate passage")
	ErrNoPassages       = errors.New("story has no passages")
)

// Location points at a line of an original source file.
type Location struct {
	File string
	Line int // 1-based
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line %d", l.Line)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// Error is a fatal compile error. Its message is a multi-line report with
// the offending line, two lines of context on each side and an optional hint.
type Error struct {
	Kind    string
	File    string
	Line    int // 1-based, 0 when the error is not tied to a line
	Message string
	Hint    string
	Err     error

	// Context holds the numbered source lines around Line.
	Context []ContextLine
	// Col and Width place the caret under the offending span of Line.
	Col   int
	Width int
}

// ContextLine is one numbered line of an error report.
type ContextLine struct {
	Number int
	Text   string
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("✗ ")
	b.WriteString(e.Kind)
	if e.File != "" {
		fmt.Fprintf(&b, " in %s", e.File)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " on line %d", e.Line)
	}
	b.WriteString(":\n  ")
	b.WriteString(e.Message)
	b.WriteString("\n")

	if len(e.Context) > 0 {
		b.WriteString("\n")
		for _, cl := range e.Context {
			marker := fmt.Sprintf("  %4d | ", cl.Number)
			b.WriteString(marker)
			b.WriteString(cl.Text)
			b.WriteString("\n")
			if cl.Number != e.Line {
				continue
			}
			indent := len(cl.Text) - len(strings.TrimLeft(cl.Text, " \t"))
			width := e.Width
			if width <= 0 {
				width = len(strings.TrimSpace(cl.Text)) - e.Col
			}
			b.WriteString(strings.Repeat(" ", len(marker)+indent+e.Col))
			b.WriteString(strings.Repeat("^", max(1, width)))
			b.WriteString("\n")
		}
	}

	if e.Hint != "" {
		b.WriteString("\n  Hint: ")
		b.WriteString(e.Hint)
		b.WriteString("\n")
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// DuplicatePassage lists every definition site of one passage name.
type DuplicatePassage struct {
	Name      string
	Locations []Location
}

// DuplicatePassageError aggregates all duplicate passage names of a story
// into a single report.
type DuplicatePassageError struct {
	Duplicates []DuplicatePassage
}

func (e *DuplicatePassageError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "✗ %s:\n", KindDuplicate)
	for _, d := range e.Duplicates {
		locs := make([]string, len(d.Locations))
		for i, l := range d.Locations {
			locs[i] = l.String()
		}
		fmt.Fprintf(&b, "  Passage '%s' is defined %d times: %s\n", d.Name, len(d.Locations), strings.Join(locs, ", "))
	}
	b.WriteString("\n  Hint: Passage names must be unique. Rename or remove the extra definitions.\n")
	return b.String()
}

func (e *DuplicatePassageError) Unwrap() error { return ErrDuplicatePassage }

// newDuplicateError reports names defined more than once, in order of first
// definition. It returns nil when every name is unique.
func newDuplicateError(order []string, defs map[string][]Location) error {
	var dups []DuplicatePassage
	for _, name := range order {
		if locs := defs[name]; len(locs) > 1 {
			dups = append(dups, DuplicatePassage{Name: name, Locations: locs})
		}
	}
	if len(dups) == 0 {
		return nil
	}
	return &DuplicatePassageError{Duplicates: dups}
}
