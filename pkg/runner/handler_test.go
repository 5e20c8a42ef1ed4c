package runner_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTextHandler_Output(t *testing.T) {
	var buf bytes.Buffer
	h := runner.NewTextHandler(strings.NewReader(""), &buf,
		runner.WithTextHandlerRenderer(func(s string) (string, error) { return strings.ToUpper(s), nil }),
		runner.WithChoiceFormatter(func(n int, text string) string { return "#" + string(rune('0'+n)) + " " + text }),
	)

	err := h.Output(context.Background(), &domain.Output{
		Content: "a dark room",
		Choices: []domain.ChoiceView{{Text: "Light"}},
		RenderDirectives: []domain.RenderedDirective{
			{Name: "chart", Mode: domain.RenderModeRaw, RawArgs: "x"},
			{Name: "broken", Error: "boom"},
		},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "A DARK ROOM")
	assert.Contains(t, out, "#1 Light")
	assert.Contains(t, out, "[chart(x)]")
	assert.Contains(t, out, "[broken: boom]")
	assert.NotContains(t, out, "THE END")
}

func TestTextHandler_InputRejectsBadText(t *testing.T) {
	var buf bytes.Buffer
	h := runner.NewTextHandler(strings.NewReader("\xff\xfe\nok\n"), &buf)

	got, err := h.Input(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Contains(t, buf.String(), "Please try again.")

	_, err = h.Input(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_Input(t *testing.T) {
	lines := strings.Join([]string{
		`{"choice": 2}`,
		`{"command": ":save a"}`,
		`{"value": "Zed"}`,
		`"plain"`,
		`raw text`,
	}, "\n")
	h := runner.NewJSONHandler(strings.NewReader(lines), &bytes.Buffer{})
	ctx := context.Background()

	for _, want := range []string{"3", ":save a", "Zed", "plain", "raw text"} {
		got, err := h.Input(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := h.Input(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestJSONHandler_Prompt(t *testing.T) {
	var buf bytes.Buffer
	h := runner.NewJSONHandler(strings.NewReader(`{"value": "Ana"}`+"\n"), &buf)

	got, err := h.Prompt(context.Background(), domain.InputRequest{Name: "hero", Label: "Hero"})
	require.NoError(t, err)
	assert.Equal(t, "Ana", got)
	assert.Contains(t, buf.String(), `"prompt":{`)
	assert.Contains(t, buf.String(), `"name":"hero"`)

	require.NoError(t, h.SystemOutput(context.Background(), "saved"))
	assert.Contains(t, buf.String(), `{"system":"saved"}`)
}
