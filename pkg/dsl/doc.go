/*
Package dsl builds story documents in Go instead of .bard source.

It is useful for generated stories and for tests that want a document
without going through the compiler's file handling.

	b := dsl.New().Meta("title", "Mine")
	b.Passage("Start").
		Set("gold", "0").
		Line("You have {gold} gold.").
		Choice("Dig", "Dig").
		OneTime("Leave", "Exit")
	b.Passage("Dig").Set("gold", "gold + 1").Jump("Start")
	b.Passage("Exit").Line("Goodbye.")

	doc, err := b.Build()

Build validates the graph, so a choice or jump to a missing passage is an
error rather than a runtime surprise.
*/
package dsl
