package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/bardic/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	VisitedPassages []string
	CurrentPassage  string
}

// GenerateMermaid produces a Mermaid flowchart of a story.
// It applies semantic styling:
// - Initial passage: ((Circle))
// - Ending (no outgoing links): ([Stadium])
// - Passage with input directives: [/Parallelogram/]
// - Default: [Rectangle]
// Choices are solid arrows labelled with their text, jumps are dotted.
// It also applies overlay styles (Visited/Current) if provided.
func GenerateMermaid(doc *domain.Document, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for _, id := range doc.PassageIDs() {
		p := doc.Passages[id]
		safeID := sanitizeMermaidID(id)
		links := p.Links()

		opener, closer := "[", "]"
		switch {
		case id == doc.InitialPassage:
			opener, closer = "((", "))"
		case len(links) == 0:
			opener, closer = "([", "])"
		case hasInput(p.Content):
			opener, closer = "[/", "/]"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, escapeLabel(id), closer)

		for _, l := range links {
			safeTo := sanitizeMermaidID(l.Target)
			label := l.Label
			if l.Condition != "" {
				if label != "" {
					label += " "
				}
				label += "[" + l.Condition + "]"
			}

			var arrow string
			switch {
			case l.Kind == domain.LinkJump && label == "":
				arrow = "-.->"
			case l.Kind == domain.LinkJump:
				arrow = fmt.Sprintf("-. \"%s\" .->", escapeLabel(label))
			case label == "":
				arrow = "-->"
			default:
				arrow = fmt.Sprintf("-- \"%s\" -->", escapeLabel(label))
			}
			fmt.Fprintf(&sb, "    %s %s %s\n", safeID, arrow, safeTo)
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		visitedSet := make(map[string]bool)
		for _, id := range overlay.VisitedPassages {
			safeID := sanitizeMermaidID(id)
			if !visitedSet[safeID] && safeID != "" {
				visitedSet[safeID] = true
				fmt.Fprintf(&sb, "    class %s visited;\n", safeID)
			}
		}

		if overlay.CurrentPassage != "" {
			fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentPassage))
		}
	}

	return sb.String()
}

func hasInput(nodes domain.Nodes) bool {
	for _, n := range nodes {
		switch n := n.(type) {
		case *domain.InputDirective:
			return true
		case *domain.Conditional:
			for _, b := range n.Branches {
				if hasInput(b.Content) {
					return true
				}
			}
		case *domain.ForLoop:
			if hasInput(n.Content) {
				return true
			}
		}
	}
	return false
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
