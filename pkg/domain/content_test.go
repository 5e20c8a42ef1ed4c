package domain

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestPassage_JSONTaggedNodes(t *testing.T) {
	p := &Passage{
		ID: "Start",
		Content: Nodes{
			&Text{Value: "Hello "},
			&Expression{Code: "1+1", Tags: []string{"loud"}},
			&Conditional{Branches: []Branch{
				{Condition: "x > 1", Content: Nodes{&Text{Value: "big"}}},
				{Condition: "True", Content: Nodes{&Jump{Target: "End"}}},
			}},
			&ForLoop{Variable: "i", Collection: "items", Content: Nodes{&Expression{Code: "i"}}},
			&RenderDirective{Name: "card", Args: "hp=3", FrameworkHint: "react"},
			&InputDirective{Name: "who", Label: "Who", Placeholder: ""},
		},
		Choices: []Choice{
			{Text: Nodes{&Text{Value: "Go "}, &Expression{Code: "name"}}, Target: "End", Sticky: true},
		},
		Execute: Commands{&SetVar{Var: "x", Expression: "1"}, &PythonBlock{Code: "y = 2"}},
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, want := range []string{`"type":"text"`, `"type":"conditional"`, `"type":"for_loop"`, `"type":"set_var"`, `"type":"input"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("expected %s in %s", want, data)
		}
	}

	var back Passage
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(p, &back) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", back, *p)
	}
}

func TestNodes_UnknownType(t *testing.T) {
	var ns Nodes
	err := json.Unmarshal([]byte(`[{"type":"teleport"}]`), &ns)
	if !errors.Is(err, ErrUnknownNodeType) {
		t.Fatalf("expected ErrUnknownNodeType, got %v", err)
	}
}

func TestCommands_RejectsContentNodes(t *testing.T) {
	var cs Commands
	err := json.Unmarshal([]byte(`[{"type":"text","value":"x"}]`), &cs)
	if !errors.Is(err, ErrUnknownNodeType) {
		t.Fatalf("expected ErrUnknownNodeType, got %v", err)
	}
}

func TestChoice_Source(t *testing.T) {
	c := Choice{Text: Nodes{&Text{Value: "Pay "}, &Expression{Code: "price"}, &Text{Value: " gold"}}}
	if got := c.Source(); got != "Pay {price} gold" {
		t.Errorf("Source() = %q", got)
	}
}

func TestRenderedDirective_FrameworkFlattened(t *testing.T) {
	d := RenderedDirective{
		Name:      "card",
		Mode:      RenderModeEvaluated,
		Data:      map[string]any{"hp": 3},
		Framework: map[string]any{"react": map[string]any{"componentName": "Card"}},
	}
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if m["type"] != NodeRenderDirective {
		t.Errorf("type = %v", m["type"])
	}
	react, ok := m["react"].(map[string]any)
	if !ok || react["componentName"] != "Card" {
		t.Errorf("react payload missing: %s", data)
	}
}
