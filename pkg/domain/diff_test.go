package domain

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name     string
		old      *SaveData
		new      *SaveData
		wantDiff *StateDiff
	}{
		{
			name: "Initial Load (Old is Nil)",
			old:  nil,
			new: &SaveData{
				CurrentPassageID: "Start",
				State:            map[string]any{"gold": 1},
			},
			wantDiff: &StateDiff{
				CurrentPassageID: &[]string{"Start"}[0],
				Variables:        map[string]any{"gold": 1},
			},
		},
		{
			name: "No Changes",
			old: &SaveData{
				CurrentPassageID: "Start",
				State:            map[string]any{"gold": 1},
				UsedChoices:      []ChoiceKey{{Passage: "Start", Text: "Go", Target: "Cave"}},
			},
			new: &SaveData{
				CurrentPassageID: "Start",
				State:            map[string]any{"gold": 1},
				UsedChoices:      []ChoiceKey{{Passage: "Start", Text: "Go", Target: "Cave"}},
			},
			wantDiff: nil,
		},
		{
			name: "Variables Added, Modified and Deleted",
			old: &SaveData{
				CurrentPassageID: "Cave",
				State:            map[string]any{"gold": 1, "torch": true},
			},
			new: &SaveData{
				CurrentPassageID: "Cave",
				State:            map[string]any{"gold": 2, "key": "brass"},
			},
			wantDiff: &StateDiff{
				Variables: map[string]any{"gold": 2, "key": "brass", "torch": nil},
			},
		},
		{
			name: "Choice Consumed",
			old: &SaveData{
				CurrentPassageID: "Start",
			},
			new: &SaveData{
				CurrentPassageID: "Cave",
				UsedChoices:      []ChoiceKey{{Passage: "Start", Text: "Enter", Target: "Cave"}},
			},
			wantDiff: &StateDiff{
				CurrentPassageID: &[]string{"Cave"}[0],
				UsedChoices:      []ChoiceKey{{Passage: "Start", Text: "Enter", Target: "Cave"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Diff(tt.old, tt.new)
			if !reflect.DeepEqual(got, tt.wantDiff) {
				gotJSON, _ := json.Marshal(got)
				wantJSON, _ := json.Marshal(tt.wantDiff)
				t.Errorf("Diff() = %s, want %s", gotJSON, wantJSON)
			}
		})
	}
}

func TestDiff_JSONOmitsUnchanged(t *testing.T) {
	diff := Diff(&SaveData{CurrentPassageID: "A"}, &SaveData{CurrentPassageID: "A", State: map[string]any{"x": 1}})
	if diff == nil {
		t.Fatal("expected a diff")
	}
	data, err := json.Marshal(diff)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "current_passage_id") {
		t.Errorf("unchanged passage should be omitted: %s", data)
	}
	if !strings.Contains(string(data), `"x":1`) {
		t.Errorf("expected variable delta in %s", data)
	}
}
