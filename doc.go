/*
Package bardic compiles and runs interactive fiction written in the .bard
format.

A story is a set of passages. Each passage mixes prose with {expressions},
variable assignments, @if and @for blocks, jumps and choices. The compiler
turns source into a JSON document; the engine walks that document, rendering
one passage at a time and following the choices the player takes.

# Usage

	doc, err := bardic.CompileFile("story.bard")
	if err != nil {
		log.Fatal(err)
	}
	engine, err := bardic.New(ctx, doc)
	if err != nil {
		log.Fatal(err)
	}
	out, _ := engine.Current()
	fmt.Println(out.Content)
	out, err = engine.Choose(ctx, 0)

# Persistence

Engine.SaveState returns a domain.SaveData snapshot that any ports.SaveStore
(memory, file, Redis or SQLite, see pkg/adapters) can persist. LoadState
restores it.

# Hosting

pkg/session multiplexes engines for many players and pkg/adapters/http
exposes them as a JSON API. The bardic command wraps all of this: compile,
play, validate, graph and serve.
*/
package bardic
