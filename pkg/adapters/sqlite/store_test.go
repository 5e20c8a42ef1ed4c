package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/bardic/pkg/adapters/sqlite"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteStore_Contract(t *testing.T) {
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "saves.db"))
	require.NoError(t, err)
	defer store.Close()

	ports.RunSaveStoreContract(t, store)
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saves.db")
	ctx := context.Background()

	store, err := sqlite.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "slot1", &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		Timestamp:        time.Now().UTC(),
		CurrentPassageID: "Cave",
		State:            map[string]any{"gold": 5},
	}))
	require.NoError(t, store.Close())

	store, err = sqlite.Open(path)
	require.NoError(t, err)
	defer store.Close()

	loaded, err := store.Load(ctx, "slot1")
	require.NoError(t, err)
	assert.Equal(t, "Cave", loaded.CurrentPassageID)
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := sqlite.Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	saves, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saves)
}
