package compiler

import "github.com/aretw0/bardic/pkg/domain"

func isNewline(n domain.ContentNode) bool {
	t, ok := n.(*domain.Text)
	return ok && t.Value == "\n" && len(t.Tags) == 0
}

func isConditional(n domain.ContentNode) bool {
	_, ok := n.(*domain.Conditional)
	return ok
}

// cleanupWhitespace drops a newline that would double the separation around
// a conditional: one preceding a conditional when a newline already precedes
// it, and one following a conditional when another newline comes next.
func cleanupWhitespace(nodes domain.Nodes) domain.Nodes {
	out := make(domain.Nodes, 0, len(nodes))
	for i, n := range nodes {
		if isNewline(n) {
			next := i+1 < len(nodes)
			if next && isConditional(nodes[i+1]) && len(out) > 0 && isNewline(out[len(out)-1]) {
				continue
			}
			if len(out) > 0 && isConditional(out[len(out)-1]) && next && isNewline(nodes[i+1]) {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}

// trimTrailingNewlines keeps at most one trailing newline node.
func trimTrailingNewlines(nodes domain.Nodes) domain.Nodes {
	end := len(nodes)
	for end > 0 && isNewline(nodes[end-1]) {
		end--
	}
	if end < len(nodes) {
		end++
	}
	return nodes[:end]
}
