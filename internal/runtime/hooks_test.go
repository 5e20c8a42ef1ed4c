package runtime_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/aretw0/bardic/internal/runtime"
	"github.com/aretw0/bardic/pkg/domain"
)

func TestEngine_LifecycleHooks(t *testing.T) {
	src := ":: Start\n+ [Go] -> Hall\n\n:: Hall\n-> Room\n\n:: Room\nEnd"

	var entered, jumped []string
	var chosen []string
	hooks := domain.LifecycleHooks{
		OnPassageEnter: func(ctx context.Context, e *domain.PassageEvent) {
			entered = append(entered, e.PassageID)
		},
		OnJump: func(ctx context.Context, e *domain.PassageEvent) {
			jumped = append(jumped, e.From+">"+e.PassageID)
		},
		OnChoice: func(ctx context.Context, e *domain.ChoiceEvent) {
			chosen = append(chosen, e.Text)
		},
	}

	engine, _ := start(t, src, runtime.WithLifecycleHooks(hooks))
	if _, err := engine.Choose(context.Background(), 0); err != nil {
		t.Fatalf("Choose failed: %v", err)
	}

	if !reflect.DeepEqual(entered, []string{"Start", "Hall"}) {
		t.Errorf("Unexpected enter events %v", entered)
	}
	if !reflect.DeepEqual(jumped, []string{"Hall>Room"}) {
		t.Errorf("Unexpected jump events %v", jumped)
	}
	if !reflect.DeepEqual(chosen, []string{"Go"}) {
		t.Errorf("Unexpected choice events %v", chosen)
	}
}

func TestEngine_RenderDirectives(t *testing.T) {
	src := `:: Start
~ hero = "Ana"
@render:react stat_card(hero, size=3)
@render banner("hi")
Text`
	_, out := start(t, src)

	if out.Content != "Text" {
		t.Errorf("Directives must not produce text, got %q", out.Content)
	}
	if len(out.RenderDirectives) != 2 {
		t.Fatalf("Expected 2 directives, got %d", len(out.RenderDirectives))
	}

	card := out.RenderDirectives[0]
	if card.Name != "stat_card" || card.Mode != domain.RenderModeEvaluated {
		t.Errorf("Unexpected directive %+v", card)
	}
	wantData := map[string]any{"arg_0": "Ana", "size": 3}
	if !reflect.DeepEqual(card.Data, wantData) {
		t.Errorf("Unexpected data %v", card.Data)
	}
	react, ok := card.Framework["react"].(map[string]any)
	if !ok {
		t.Fatalf("Expected react payload, got %v", card.Framework)
	}
	if react["componentName"] != "StatCard" || react["key"] != "stat_card_Start_0" {
		t.Errorf("Unexpected react payload %v", react)
	}

	banner := out.RenderDirectives[1]
	if banner.Framework != nil || banner.Data["arg_0"] != "hi" {
		t.Errorf("Unexpected plain directive %+v", banner)
	}
}

func TestEngine_RawDirectives(t *testing.T) {
	src := ":: Start\n@render chart(data, kind=\"bar\")"
	_, out := start(t, src, runtime.WithDirectiveEvaluation(false))

	d := out.RenderDirectives[0]
	if d.Mode != domain.RenderModeRaw || d.RawArgs != `data, kind="bar"` || d.Data != nil {
		t.Errorf("Unexpected raw directive %+v", d)
	}
}

func TestEngine_DirectiveErrorsAreReported(t *testing.T) {
	_, out := start(t, ":: Start\n@render chart(missing)")

	d := out.RenderDirectives[0]
	if d.Error == "" || d.RawArgs != "missing" {
		t.Errorf("Expected an error on the directive, got %+v", d)
	}
}

func TestEngine_CustomPostProcessor(t *testing.T) {
	src := ":: Start\n@render:vue card(1)"
	pp := func(d *domain.RenderedDirective, passageID string, index int) {
		d.Framework = map[string]any{"vue": passageID}
	}
	_, out := start(t, src, runtime.WithPostProcessor("vue", pp))

	if got := out.RenderDirectives[0].Framework["vue"]; got != "Start" {
		t.Errorf("Expected vue payload, got %v", got)
	}
}

func TestEngine_DirectivesAcrossJumps(t *testing.T) {
	src := ":: Start\n@render a()\n-> Next\n\n:: Next\n@render b()\nDone"
	_, out := start(t, src)

	if len(out.RenderDirectives) != 2 || out.RenderDirectives[0].Name != "a" || out.RenderDirectives[1].Name != "b" {
		t.Errorf("Expected directives from the whole chain, got %+v", out.RenderDirectives)
	}
}
