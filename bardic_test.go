package bardic_test

import (
	"context"
	"testing"

	"github.com/aretw0/bardic"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Options(t *testing.T) {
	doc, err := bardic.Compile(":: Start\n~ seen = True\n@render:vue card(1)\nHello.")
	require.NoError(t, err)

	vue := func(d *domain.RenderedDirective, passageID string, index int) {
		d.Framework = map[string]any{"vue": passageID}
	}
	ctx := context.Background()
	engine, err := bardic.New(ctx, doc,
		bardic.WithStoryIdentity("demo", "Demo"),
		bardic.WithDirectiveEvaluation(true),
		bardic.WithPostProcessor("vue", vue),
	)
	require.NoError(t, err)

	out, err := engine.Current()
	require.NoError(t, err)
	require.Len(t, out.RenderDirectives, 1)
	assert.Equal(t, map[string]any{"vue": "Start"}, out.RenderDirectives[0].Framework)

	save, err := engine.SaveState()
	require.NoError(t, err)
	assert.Equal(t, "demo", save.StoryID)
	assert.Equal(t, "Demo", save.StoryName)
}

func TestMarshal_RoundTrip(t *testing.T) {
	doc, err := bardic.Compile(":: Start\nHi.\n+ [Go] -> End\n\n:: End\nBye.")
	require.NoError(t, err)

	data, err := bardic.Marshal(doc)
	require.NoError(t, err)
	loaded, err := bardic.LoadDocument(data)
	require.NoError(t, err)
	assert.Equal(t, doc.InitialPassage, loaded.InitialPassage)
	assert.Len(t, loaded.Passages, 2)
}
