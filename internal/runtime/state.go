package runtime

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/script"
)

// SubmitInputs stores player input. Values are collected in the _inputs
// dict and each one is also bound as a variable of the same name.
func (e *Engine) SubmitInputs(ctx context.Context, inputs map[string]string) error {
	if len(inputs) == 0 {
		return nil
	}
	store, ok := e.env.Vars[domain.VarInputs].(*script.Dict)
	if !ok {
		store = script.NewDict()
		e.env.Vars[domain.VarInputs] = store
	}

	names := make([]string, 0, len(inputs))
	for name := range inputs {
		if name == "" || name == domain.VarInputs {
			return fmt.Errorf("%w: reserved or empty name %q", domain.ErrInvalidInput, name)
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := store.Set(name, inputs[name]); err != nil {
			return err
		}
		e.env.Vars[name] = inputs[name]
	}
	e.emitInput(ctx, names)
	return nil
}

// SaveState snapshots the current passage, variables and used choices.
func (e *Engine) SaveState() (*domain.SaveData, error) {
	if e.currentID == "" {
		return nil, domain.ErrNoOutput
	}
	state, err := e.registry.EncodeVars(e.env.Vars)
	if err != nil {
		return nil, fmt.Errorf("failed to encode state: %w", err)
	}

	used := make([]domain.ChoiceKey, 0, len(e.used))
	for k := range e.used {
		used = append(used, k)
	}
	sort.Slice(used, func(i, j int) bool {
		a, b := used[i], used[j]
		if a.Passage != b.Passage {
			return a.Passage < b.Passage
		}
		if a.Text != b.Text {
			return a.Text < b.Text
		}
		return a.Target < b.Target
	})

	return &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		StoryID:          e.storyID,
		StoryName:        e.storyName,
		StoryVersion:     e.doc.Metadata["version"],
		Timestamp:        time.Now().UTC(),
		CurrentPassageID: e.currentID,
		State:            state,
		UsedChoices:      used,
		Metadata:         map[string]string{},
	}, nil
}

// LoadState restores a snapshot and renders the saved passage. Everything
// is validated before the engine is touched, so a rejected save leaves the
// engine as it was.
//
// With replay on load (the default) the saved passage's commands run again
// against the restored variables, as if the player had just arrived.
func (e *Engine) LoadState(ctx context.Context, data *domain.SaveData) (*domain.Output, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: empty save", domain.ErrSaveVersion)
	}
	if major(data.Version) != major(domain.SaveFormatVersion) {
		return nil, fmt.Errorf("%w: %q (want %s)", domain.ErrSaveVersion, data.Version, domain.SaveFormatVersion)
	}
	if _, ok := e.doc.Passages[data.CurrentPassageID]; !ok {
		return nil, fmt.Errorf("save points at '%s': %w", data.CurrentPassageID, domain.ErrPassageNotFound)
	}
	if data.StoryID != "" && e.storyID != "" && data.StoryID != e.storyID {
		e.logger.Warn("loading save from another story", "save_story", data.StoryID, "story", e.storyID)
	}
	vars, err := e.registry.DecodeVars(data.State)
	if err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}

	e.env.Vars = vars
	e.used = make(map[domain.ChoiceKey]bool, len(data.UsedChoices))
	for _, k := range data.UsedChoices {
		e.used[k] = true
	}
	e.currentID = ""
	return e.enter(ctx, data.CurrentPassageID, e.replayOnLoad)
}

func major(version string) string {
	m, _, _ := strings.Cut(version, ".")
	return m
}
