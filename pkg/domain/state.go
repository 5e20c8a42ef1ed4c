package domain

import (
	"sort"
	"time"
)

// SaveFormatVersion is the envelope version written by SaveState.
const SaveFormatVersion = "1.0.0"

// ChoiceKey identifies an authored choice: the passage it was offered from,
// its source text and its target.
type ChoiceKey struct {
	Passage string `json:"passage"`
	Text    string `json:"text"`
	Target  string `json:"target"`
}

// SaveData is the serializable snapshot of an engine.
//
// State holds story variables after custom objects have been encoded into
// tagged maps (see pkg/registry).
type SaveData struct {
	Version          string         `json:"version"`
	StoryID          string         `json:"story_id"`
	StoryName        string         `json:"story_name"`
	StoryVersion     string         `json:"story_version"`
	Timestamp        time.Time      `json:"timestamp"`
	CurrentPassageID string         `json:"current_passage_id"`
	State            map[string]any `json:"state"`
	UsedChoices      []ChoiceKey    `json:"used_choices"`

	Metadata map[string]string `json:"metadata"`

	// Optional descriptive fields set by frontends.
	SaveName    string `json:"save_name,omitempty"`
	Description string `json:"description,omitempty"`
}

// SaveSummary is the listing view of a stored save.
type SaveSummary struct {
	ID               string    `json:"id"`
	StoryID          string    `json:"story_id,omitempty"`
	SaveName         string    `json:"save_name,omitempty"`
	CurrentPassageID string    `json:"current_passage_id"`
	Timestamp        time.Time `json:"timestamp"`
}

// Summary builds the listing view of a save stored under id.
func (s *SaveData) Summary(id string) SaveSummary {
	return SaveSummary{
		ID:               id,
		StoryID:          s.StoryID,
		SaveName:         s.SaveName,
		CurrentPassageID: s.CurrentPassageID,
		Timestamp:        s.Timestamp,
	}
}

// SortSummaries orders saves newest first, breaking ties by ID.
func SortSummaries(s []SaveSummary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].Timestamp.Equal(s[j].Timestamp) {
			return s[i].Timestamp.After(s[j].Timestamp)
		}
		return s[i].ID < s[j].ID
	})
}
