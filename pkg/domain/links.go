package domain

// Link kinds.
const (
	LinkChoice = "choice"
	LinkJump   = "jump"
)

// Link is one outgoing edge of a passage.
type Link struct {
	Target string
	Kind   string
	// Label is the authored choice text. Empty for jumps.
	Label string
	// Condition is the innermost guard on the edge, if any.
	Condition string
	Sticky    bool
}

// Links returns every edge a passage can take: jumps and choices found in its
// body, including those nested in conditionals and loops, followed by its
// top-level choices.
func (p *Passage) Links() []Link {
	var links []Link
	collectLinks(p.Content, "", &links)
	links = appendChoiceLinks(links, p.Choices, "")
	return links
}

func collectLinks(nodes Nodes, cond string, links *[]Link) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *Jump:
			*links = append(*links, Link{Target: n.Target, Kind: LinkJump, Condition: cond})
		case *Conditional:
			for _, b := range n.Branches {
				guard := b.Condition
				if guard == "True" {
					guard = "else"
				}
				collectLinks(b.Content, guard, links)
				*links = appendChoiceLinks(*links, b.Choices, guard)
			}
		case *ForLoop:
			guard := "for " + n.Variable + " in " + n.Collection
			collectLinks(n.Content, guard, links)
			*links = appendChoiceLinks(*links, n.Choices, guard)
		}
	}
}

func appendChoiceLinks(links []Link, choices []Choice, cond string) []Link {
	for _, c := range choices {
		guard := cond
		if c.Condition != "" {
			guard = c.Condition
		}
		links = append(links, Link{
			Target:    c.Target,
			Kind:      LinkChoice,
			Label:     c.Source(),
			Condition: guard,
			Sticky:    c.Sticky,
		})
	}
	return links
}
