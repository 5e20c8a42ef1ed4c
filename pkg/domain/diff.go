package domain

import (
	"reflect"
)

// StateDiff represents the changes between two save snapshots.
// It is serialized to JSON for partial updates on the client.
type StateDiff struct {
	// CurrentPassageID is set when the passage changed.
	CurrentPassageID *string `json:"current_passage_id,omitempty"`

	// Variables contains only changed, added or deleted keys.
	// For deletions, the key is present with a nil value.
	Variables map[string]any `json:"variables,omitempty"`

	// UsedChoices contains choices consumed since the old snapshot.
	UsedChoices []ChoiceKey `json:"used_choices,omitempty"`
}

// Diff calculates the difference between oldSave and newSave.
// If oldSave is nil, it returns a diff representing the entire newSave.
// It returns nil when nothing changed.
func Diff(oldSave, newSave *SaveData) *StateDiff {
	if newSave == nil {
		return nil
	}

	diff := &StateDiff{}
	if oldSave == nil || oldSave.CurrentPassageID != newSave.CurrentPassageID {
		id := newSave.CurrentPassageID
		diff.CurrentPassageID = &id
	}
	diff.Variables = diffVariables(oldSave, newSave)
	diff.UsedChoices = diffChoices(oldSave, newSave)

	if diff.IsEmpty() {
		return nil
	}
	return diff
}

func diffVariables(old *SaveData, new *SaveData) map[string]any {
	delta := make(map[string]any)

	if old == nil {
		for k, v := range new.State {
			delta[k] = v
		}
	} else {
		for k, newVal := range new.State {
			oldVal, exists := old.State[k]
			if !exists || !reflect.DeepEqual(oldVal, newVal) {
				delta[k] = newVal
			}
		}
		for k := range old.State {
			if _, exists := new.State[k]; !exists {
				delta[k] = nil
			}
		}
	}

	if len(delta) == 0 {
		return nil
	}
	return delta
}

func diffChoices(old *SaveData, new *SaveData) []ChoiceKey {
	seen := make(map[ChoiceKey]bool)
	if old != nil {
		for _, k := range old.UsedChoices {
			seen[k] = true
		}
	}
	var added []ChoiceKey
	for _, k := range new.UsedChoices {
		if !seen[k] {
			added = append(added, k)
		}
	}
	return added
}

// IsEmpty checks if the diff contains any actionable changes.
func (d *StateDiff) IsEmpty() bool {
	return d.CurrentPassageID == nil &&
		len(d.Variables) == 0 &&
		len(d.UsedChoices) == 0
}
