package memory_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/pkg/adapters/memory"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/ports"
	contract "github.com/aretw0/bardic/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSaveStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	save := &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		CurrentPassageID: "Start",
		State:            map[string]any{"gold": 1},
	}
	require.NoError(t, store.Save(ctx, "a", save))
	save.State["gold"] = 99

	loaded, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, json.Number("1"), loaded.State["gold"])
}

func TestMemoryLoader_Contract(t *testing.T) {
	intro, err := compiler.Compile(":: Intro\nHello")
	require.NoError(t, err)
	cave, err := compiler.Compile(":: Cave\nDark")
	require.NoError(t, err)

	loader := memory.NewLoader(map[string]*domain.Document{"intro": intro, "cave": cave})
	contract.StoryLoaderContractTest(t, loader, map[string]string{"intro": "Intro", "cave": "Cave"})
}
