package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/bardic/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderer(t *testing.T) {
	render, err := tui.NewRenderer("notty", 40)
	require.NoError(t, err)

	out, err := render("# Cave\n\nIt is **dark**.")
	require.NoError(t, err)
	assert.Contains(t, out, "Cave")
	assert.Contains(t, out, "dark")
	assert.False(t, strings.HasSuffix(out, "\n"))
}

func TestBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf, "The Cave")
	assert.Contains(t, buf.String(), "The Cave")

	format := tui.ChoiceFormatter(&buf)
	assert.Contains(t, format(2, "Leave"), "Leave")
	assert.Contains(t, format(2, "Leave"), "2)")
}
