// Package validator checks the link structure of a compiled story.
package validator

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
)

// Severity levels.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Issue is one finding about a story.
type Issue struct {
	Severity string `json:"severity"`
	Passage  string `json:"passage,omitempty"`
	Line     int    `json:"line,omitempty"`
	Message  string `json:"message"`
}

func (i Issue) String() string {
	loc := i.Passage
	if i.Line > 0 {
		loc = fmt.Sprintf("%s (line %d)", i.Passage, i.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", i.Severity, i.Message)
	}
	return fmt.Sprintf("%s: %s: %s", i.Severity, loc, i.Message)
}

// Report collects the issues found in a story.
type Report struct {
	Issues []Issue `json:"issues"`
	// Reachable lists passages reachable from the initial passage, sorted.
	Reachable []string `json:"reachable"`
	// Endings lists reachable passages with no outgoing links, sorted.
	Endings []string `json:"endings"`
}

// Errors returns only error-level issues.
func (r *Report) Errors() []Issue {
	var out []Issue
	for _, i := range r.Issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}

// Err returns a combined error for error-level issues, or nil.
func (r *Report) Err() error {
	errs := r.Errors()
	if len(errs) == 0 {
		return nil
	}
	lines := make([]string, len(errs))
	for i, e := range errs {
		lines[i] = e.String()
	}
	return fmt.Errorf("found %d errors:\n- %s", len(errs), strings.Join(lines, "\n- "))
}

// ErrNoDocument is returned by Validate for a nil document.
var ErrNoDocument = errors.New("no document")

// ValidateGraph checks for broken links and unreachable passages starting
// from the initial passage.
func ValidateGraph(doc *domain.Document) (*Report, error) {
	if doc == nil {
		return nil, ErrNoDocument
	}
	r := &Report{}

	if _, ok := doc.Passages[doc.InitialPassage]; !ok {
		r.Issues = append(r.Issues, Issue{
			Severity: SeverityError,
			Message:  fmt.Sprintf("initial passage '%s' does not exist", doc.InitialPassage),
		})
	}

	// Broken links are reported for every passage, reachable or not.
	for _, id := range doc.PassageIDs() {
		p := doc.Passages[id]
		for _, l := range p.Links() {
			if _, ok := doc.Passages[l.Target]; ok {
				continue
			}
			what := "jump"
			if l.Kind == domain.LinkChoice {
				what = fmt.Sprintf("choice '%s'", l.Label)
			}
			r.Issues = append(r.Issues, Issue{
				Severity: SeverityError,
				Passage:  id,
				Line:     p.Line,
				Message:  fmt.Sprintf("%s targets missing passage '%s'", what, l.Target),
			})
		}
	}

	visited := make(map[string]bool)
	queue := []string{doc.InitialPassage}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		p, ok := doc.Passages[id]
		if visited[id] || !ok {
			continue
		}
		visited[id] = true
		r.Reachable = append(r.Reachable, id)

		links := p.Links()
		if len(links) == 0 {
			r.Endings = append(r.Endings, id)
		}
		for _, l := range links {
			if !visited[l.Target] {
				queue = append(queue, l.Target)
			}
		}
	}
	sort.Strings(r.Reachable)
	sort.Strings(r.Endings)

	for _, id := range doc.PassageIDs() {
		if !visited[id] {
			r.Issues = append(r.Issues, Issue{
				Severity: SeverityWarning,
				Passage:  id,
				Line:     doc.Passages[id].Line,
				Message:  "passage is unreachable from the initial passage",
			})
		}
	}
	if len(r.Endings) == 0 && len(r.Reachable) > 0 {
		r.Issues = append(r.Issues, Issue{
			Severity: SeverityWarning,
			Message:  "story has no reachable ending",
		})
	}
	return r, nil
}
