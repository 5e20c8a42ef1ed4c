package runner_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/internal/runtime"
	"github.com/aretw0/bardic/pkg/adapters/memory"
	"github.com/aretw0/bardic/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mineStory = `:: Start
~ gold = 0
-> Hub

:: Hub
Gold: {gold}
+ [Dig] -> Dig
* [Leave] -> Exit

:: Dig
~ gold = gold + 1
-> Hub

:: Exit
Bye.`

func newEngine(t *testing.T, src string) *runtime.Engine {
	t.Helper()
	doc, err := compiler.Compile(src)
	require.NoError(t, err)
	engine, err := runtime.NewEngine(doc)
	require.NoError(t, err)
	return engine
}

func run(t *testing.T, src, input string, opts ...runner.Option) string {
	t.Helper()
	var out bytes.Buffer
	opts = append([]runner.Option{
		runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(input), &out)),
	}, opts...)
	r := runner.NewRunner(opts...)
	require.NoError(t, r.Run(context.Background(), newEngine(t, src)))
	return out.String()
}

func TestRunner_PlaysToTheEnd(t *testing.T) {
	out := run(t, mineStory, "1\n1\n2\n")

	assert.Contains(t, out, "Gold: 0")
	assert.Contains(t, out, "Gold: 2")
	assert.Contains(t, out, "1) Dig")
	assert.Contains(t, out, "2) Leave")
	assert.Contains(t, out, "Bye.")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "THE END"), "output should end with THE END:\n%s", out)
}

func TestRunner_StopsOnEOFAndQuit(t *testing.T) {
	out := run(t, mineStory, "1\n")
	assert.Contains(t, out, "Gold: 1")
	assert.NotContains(t, out, "THE END")

	out = run(t, mineStory, ":quit\n1\n")
	assert.NotContains(t, out, "Gold: 1")
}

func TestRunner_InvalidChoices(t *testing.T) {
	out := run(t, mineStory, "7\nabc\n:nope\n1\n")

	assert.Contains(t, out, "No choice numbered 7.")
	assert.Contains(t, out, `Unknown input "abc"`)
	assert.Contains(t, out, "Unknown command :nope")
	assert.Contains(t, out, "Gold: 1")
}

func TestRunner_SaveAndLoad(t *testing.T) {
	store := memory.NewStore()
	out := run(t, mineStory, "1\n:save slot\n1\n:load slot\n:saves\n:quit\n", runner.WithStore(store))

	assert.Contains(t, out, "[System] Saved to slot.")
	assert.Contains(t, out, "[System] Loaded slot.")
	assert.Contains(t, out, "[System] slot  Hub")

	loaded := strings.LastIndex(out, "Loaded slot.")
	assert.Contains(t, out[loaded:], "Gold: 1", "load should restore the saved gold")

	save, err := store.Load(context.Background(), "slot")
	require.NoError(t, err)
	assert.Equal(t, "Hub", save.CurrentPassageID)
	assert.Equal(t, "slot", save.SaveName)
}

func TestRunner_DefaultSaveSlot(t *testing.T) {
	store := memory.NewStore()
	run(t, mineStory, ":save\n:quit\n", runner.WithStore(store), runner.WithSaveID("auto"))

	_, err := store.Load(context.Background(), "auto")
	assert.NoError(t, err)
}

func TestRunner_SavesWithoutStore(t *testing.T) {
	out := run(t, mineStory, ":save\n:quit\n")
	assert.Contains(t, out, "Saving is not available.")
}

func TestRunner_ResetRestoresOneTimeChoices(t *testing.T) {
	src := `:: Start
Hall
* [Open door] -> Start
+ [Wait] -> Start`
	out := run(t, src, "1\n:reset\n:quit\n")

	assert.Equal(t, 2, strings.Count(out, "Open door"), "the one-time choice should come back after :reset:\n%s", out)
}

func TestRunner_PromptsForInputs(t *testing.T) {
	src := `:: Start
@input name="hero" placeholder="Your name"
+ [Go] -> Greet

:: Greet
Hello {hero}`
	out := run(t, src, "Zed\n1\n")

	assert.Contains(t, out, "Hero (Your name): ")
	assert.Contains(t, out, "Hello Zed")
}

func TestRunner_JSONHandler(t *testing.T) {
	var out bytes.Buffer
	in := strings.NewReader(`{"choice": 0}` + "\n" + `{"command": ":quit"}` + "\n")
	r := runner.NewRunner(runner.WithInputHandler(runner.NewJSONHandler(in, &out)))
	require.NoError(t, r.Run(context.Background(), newEngine(t, mineStory)))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"content":"Gold: 0"`)
	assert.Contains(t, lines[1], `"content":"Gold: 1"`)
	assert.Contains(t, lines[1], `"is_end":false`)
}

func TestRunner_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := runner.NewRunner(runner.WithInputHandler(runner.NewTextHandler(strings.NewReader(""), &bytes.Buffer{})))
	err := r.Run(ctx, newEngine(t, mineStory))
	assert.ErrorIs(t, err, runner.ErrInterrupted)
}
