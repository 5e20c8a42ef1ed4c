package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/pkg/adapters/file"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/ports"
	contract "github.com/aretw0/bardic/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunSaveStoreContract(t, store)
}

func TestFileStore_RejectsPathIDs(t *testing.T) {
	store := file.New(t.TempDir())
	ctx := context.Background()

	assert.Error(t, store.Save(ctx, "../escape", &domain.SaveData{}))
	assert.Error(t, store.Save(ctx, "", &domain.SaveData{}))
	_, err := store.Load(ctx, "a/b")
	assert.Error(t, err)
}

func TestFileStore_ListSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	store := file.New(dir)
	ctx := context.Background()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))
	require.NoError(t, store.Save(ctx, "good", &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		CurrentPassageID: "Start",
		State:            map[string]any{},
	}))

	saves, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, saves, 1)
	assert.Equal(t, "good", saves[0].ID)
}

func TestFileStore_ListMissingDir(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "none"))
	saves, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, saves)
}

func TestFileLoader_Contract(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "intro.bard"), []byte(":: Intro\nHello"), 0644))

	doc, err := compiler.Compile(":: Cave\nDark")
	require.NoError(t, err)
	raw, err := compiler.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cave.json"), raw, 0644))

	loader := file.NewLoader(dir)
	contract.StoryLoaderContractTest(t, loader, map[string]string{"intro": "Intro", "cave": "Cave"})
}

func TestFileLoader_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"version": "0.1.0"}`), 0644))

	_, err := file.NewLoader(dir).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrStoryNotFound)
}
