package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/bardic/internal/runtime"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/dsl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mine() *dsl.Builder {
	b := dsl.New().Meta("title", "Mine").Meta("story_id", "mine")
	b.Passage("Start").
		Set("gold", "0").
		Line("You have {gold} gold. ^STATUS").
		Choice("Dig", "Dig").
		OneTime("Leave", "Exit")
	b.Passage("Dig").Run("len('dig')").Set("gold", "gold + 1").Jump("Hub")
	b.Passage("Hub").
		Line("Gold: {gold}").
		ChoiceIf("gold > 1", "Buy {gold} lamps ^SHOP", "Exit").
		Choice("Dig again", "Dig")
	b.Passage("Exit").Line("Goodbye.")
	return b
}

func TestBuilder_Document(t *testing.T) {
	doc, err := mine().Build()
	require.NoError(t, err)

	assert.Equal(t, domain.FormatVersion, doc.Version)
	assert.Equal(t, "Start", doc.InitialPassage)
	assert.Equal(t, "mine", doc.StoryID())
	assert.Len(t, doc.Passages, 4)

	start := doc.Passages["Start"]
	assert.Equal(t, domain.Commands{&domain.SetVar{Var: "gold", Expression: "0"}}, start.Execute)
	assert.Equal(t, domain.Nodes{
		&domain.Text{Value: "You have "},
		&domain.Expression{Code: "gold"},
		&domain.Text{Value: " gold.", Tags: []string{"STATUS"}},
	}, start.Content)
	require.Len(t, start.Choices, 2)
	assert.True(t, start.Choices[0].Sticky)
	assert.False(t, start.Choices[1].Sticky)

	buy := doc.Passages["Hub"].Choices[0]
	assert.Equal(t, "gold > 1", buy.Condition)
	assert.Equal(t, []string{"SHOP"}, buy.Tags)
	assert.Equal(t, "Buy {gold} lamps", buy.Source())
}

func TestBuilder_Plays(t *testing.T) {
	doc, err := mine().Build()
	require.NoError(t, err)
	ctx := context.Background()

	engine, err := runtime.NewEngine(doc)
	require.NoError(t, err)
	out, err := engine.Start(ctx)
	require.NoError(t, err)
	require.Len(t, out.Choices, 2)

	out, err = engine.Choose(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "Hub", out.PassageID)
	assert.Equal(t, "Gold: 1", out.Content)
	require.Len(t, out.Choices, 1, "the lamp choice needs more gold")

	out, err = engine.Choose(ctx, 0)
	require.NoError(t, err)
	require.Len(t, out.Choices, 2)
	assert.Equal(t, "Buy 2 lamps", out.Choices[0].Text)
}

func TestBuilder_StartResolution(t *testing.T) {
	b := dsl.New()
	b.Passage("Intro").Line("First.").Choice("On", "Later")
	b.Passage("Later").Line("Second.")
	doc, err := b.Build()
	require.NoError(t, err)
	assert.Equal(t, "Intro", doc.InitialPassage)

	doc, err = b.Start("Later").Build()
	require.NoError(t, err)
	assert.Equal(t, "Later", doc.InitialPassage)
}

func TestBuilder_RejectsBrokenGraphs(t *testing.T) {
	_, err := dsl.New().Build()
	assert.Error(t, err)

	b := dsl.New()
	b.Passage("Start").Choice("Go", "Nowhere")
	_, err = b.Build()
	assert.ErrorContains(t, err, "Nowhere")

	b = dsl.New()
	b.Passage("Start").Jump("Void")
	_, err = b.BuildLoader("broken")
	assert.ErrorContains(t, err, "Void")
}

func TestBuilder_Inputs(t *testing.T) {
	b := dsl.New()
	b.Passage("Start").Input("player_name", "", "Your name").Render("portrait", `size="big"`).Choice("Go", "End")
	b.Passage("End").Line("Hi {player_name}.")

	loader, err := b.BuildLoader("hello")
	require.NoError(t, err)
	doc, err := loader.Load(context.Background(), "hello")
	require.NoError(t, err)

	in := doc.Passages["Start"].Content[0].(*domain.InputDirective)
	assert.Equal(t, "Player Name", in.Label)
	assert.Equal(t, "Your name", in.Placeholder)
	assert.Equal(t, &domain.RenderDirective{Name: "portrait", Args: `size="big"`}, doc.Passages["Start"].Content[1])
}
