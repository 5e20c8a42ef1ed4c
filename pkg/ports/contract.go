package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSave(passage string, ts time.Time) *domain.SaveData {
	return &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		StoryID:          "contract-story",
		SaveName:         "slot " + passage,
		Timestamp:        ts,
		CurrentPassageID: passage,
		State: map[string]any{
			"name":  "Ana",
			"gold":  json.Number("42"),
			"ratio": json.Number("2.0"),
			"items": []any{"rope", "lamp"},
		},
		UsedChoices: []domain.ChoiceKey{{Passage: "Start", Text: "Go", Target: passage}},
	}
}

// RunSaveStoreContract runs a suite of tests to verify that a SaveStore implementation
// adheres to the defined interface contract.
//
// Stores that serialize must decode numbers as json.Number so ints and
// floats survive the trip.
func RunSaveStoreContract(t *testing.T, store SaveStore) {
	ctx := context.Background()
	prefix := "contract-" + time.Now().Format("20060102150405")
	base := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		id := prefix + "-a"
		save := contractSave("Cave", base)
		require.NoError(t, store.Save(ctx, id, save), "Save should not return error")
		defer func() { _ = store.Delete(ctx, id) }()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, "Cave", loaded.CurrentPassageID)
		assert.Equal(t, "contract-story", loaded.StoryID)
		assert.Equal(t, "Ana", loaded.State["name"])
		assert.Equal(t, json.Number("42"), loaded.State["gold"])
		assert.Equal(t, json.Number("2.0"), loaded.State["ratio"])
		assert.Equal(t, []any{"rope", "lamp"}, loaded.State["items"])
		assert.Equal(t, save.UsedChoices, loaded.UsedChoices)
		assert.True(t, base.Equal(loaded.Timestamp), "timestamp should round-trip")
	})

	t.Run("Overwrite", func(t *testing.T) {
		id := prefix + "-b"
		require.NoError(t, store.Save(ctx, id, contractSave("Cave", base)))
		require.NoError(t, store.Save(ctx, id, contractSave("Lake", base)))
		defer func() { _ = store.Delete(ctx, id) }()

		loaded, err := store.Load(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Lake", loaded.CurrentPassageID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+prefix)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		id := prefix + "-c"
		require.NoError(t, store.Save(ctx, id, contractSave("Cave", base)))

		require.NoError(t, store.Delete(ctx, id), "Delete should not return error")
		_, err := store.Load(ctx, id)
		assert.ErrorIs(t, err, domain.ErrSaveNotFound, "Load after Delete should return ErrSaveNotFound")

		assert.NoError(t, store.Delete(ctx, id), "Deleting twice should not fail")
	})

	t.Run("List", func(t *testing.T) {
		older, newer := prefix+"-old", prefix+"-new"
		require.NoError(t, store.Save(ctx, older, contractSave("Cave", base)))
		require.NoError(t, store.Save(ctx, newer, contractSave("Lake", base.Add(time.Hour))))
		defer func() {
			_ = store.Delete(ctx, older)
			_ = store.Delete(ctx, newer)
		}()

		saves, err := store.List(ctx)
		require.NoError(t, err)

		pos := map[string]int{}
		for i, s := range saves {
			pos[s.ID] = i
		}
		require.Contains(t, pos, older)
		require.Contains(t, pos, newer)
		assert.Less(t, pos[newer], pos[older], "newest save should come first")
		assert.Equal(t, "Lake", saves[pos[newer]].CurrentPassageID)
		assert.Equal(t, "slot Lake", saves[pos[newer]].SaveName)
	})
}
