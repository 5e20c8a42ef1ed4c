package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/bardic/internal/cli"
	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/internal/config"
	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/internal/validator"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const caveStory = `@metadata
  title: Cave
  story_id: cave

:: Start
~ torches = 0
You stand at the mouth of a cave.
+ [Take a torch] -> Torch
+ [Go home] -> Home

:: Torch
~ torches = torches + 1
Torches: {torches}
+ [Back] -> Start

:: Home
You go home.`

func writeStory(t *testing.T, dir string) (bard, compiled string) {
	t.Helper()
	bard = filepath.Join(dir, "cave.bard")
	require.NoError(t, os.WriteFile(bard, []byte(caveStory), 0o644))

	doc, err := compiler.Compile(caveStory)
	require.NoError(t, err)
	data, err := compiler.Marshal(doc)
	require.NoError(t, err)
	compiled = filepath.Join(dir, "cave-compiled.json")
	require.NoError(t, os.WriteFile(compiled, data, 0o644))
	return bard, compiled
}

func TestLoadStory(t *testing.T) {
	bard, compiled := writeStory(t, t.TempDir())

	for _, path := range []string{bard, compiled} {
		doc, err := cli.LoadStory(path, logging.NewNop())
		require.NoError(t, err, path)
		assert.Equal(t, "Start", doc.InitialPassage)
		assert.Equal(t, "Cave", doc.Metadata["title"])
		assert.Len(t, doc.Passages, 3)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"version": 1}`), 0o644))
	_, err := cli.LoadStory(bad, logging.NewNop())
	assert.Error(t, err)
}

func TestOpenStores(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	mr := miniredis.RunT(t)

	for _, cfg := range []config.StoreConfig{
		{Kind: config.StoreMemory},
		{Kind: config.StoreFile, SavesDir: filepath.Join(dir, "saves")},
		{Kind: config.StoreSQLite, SQLitePath: filepath.Join(dir, "db", "saves.db")},
		{Kind: config.StoreRedis, RedisAddr: mr.Addr()},
	} {
		t.Run(cfg.Kind, func(t *testing.T) {
			stores, err := cli.OpenStores(ctx, cfg)
			require.NoError(t, err)
			defer stores.Close()

			saves, err := stores.Saves.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, saves)
			assert.Equal(t, cfg.Kind == config.StoreRedis, stores.Locker != nil)
		})
	}

	_, err := cli.OpenStores(ctx, config.StoreConfig{Kind: "tape"})
	assert.Error(t, err)
}

func TestOpenStores_SealedSaves(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.StoreConfig{
		Kind:          config.StoreFile,
		SavesDir:      dir,
		EncryptionKey: "MDEyMzQ1Njc4OWFiY2RlZjAxMjM0NTY3ODlhYmNkZWY=",
		MaskKeys:      []string{"^password$"},
	}
	stores, err := cli.OpenStores(ctx, cfg)
	require.NoError(t, err)

	save := &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		Timestamp:        time.Now().UTC(),
		CurrentPassageID: "Start",
		State:            map[string]any{"password": "hunter2", "hero": "Ana"},
	}
	require.NoError(t, stores.Saves.Save(ctx, "s", save))

	raw, err := os.ReadFile(filepath.Join(dir, "s.json"))
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "Ana")
	assert.NotContains(t, string(raw), "hunter2")

	loaded, err := stores.Saves.Load(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "Ana", loaded.State["hero"])
	assert.Equal(t, "***", loaded.State["password"])
}

func playConfig(dir string) config.Config {
	cfg := config.Defaults()
	cfg.Store.SavesDir = filepath.Join(dir, "saves")
	return cfg
}

func TestRunPlay_SaveAndResume(t *testing.T) {
	dir := t.TempDir()
	bard, _ := writeStory(t, dir)
	cfg := playConfig(dir)
	ctx := context.Background()

	var out bytes.Buffer
	err := cli.RunPlay(ctx, cli.PlayOptions{
		StoryPath: bard,
		SaveID:    "slot1",
		Config:    cfg,
		Logger:    logging.NewNop(),
		In:        strings.NewReader("1\n:save\n:quit\n"),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Torches: 1")
	assert.Contains(t, out.String(), "Saved to slot1.")

	out.Reset()
	err = cli.RunPlay(ctx, cli.PlayOptions{
		StoryPath: bard,
		SaveID:    "slot1",
		Resume:    true,
		Config:    cfg,
		Logger:    logging.NewNop(),
		In:        strings.NewReader("1\n2\n"),
		Out:       &out,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), ">>> Resuming 'slot1' at 'Torch'.")
	assert.Contains(t, out.String(), "You go home.")
	assert.Contains(t, out.String(), "THE END")
}

func TestRunPlay_ResumeMissingSave(t *testing.T) {
	dir := t.TempDir()
	bard, _ := writeStory(t, dir)

	err := cli.RunPlay(context.Background(), cli.PlayOptions{
		StoryPath: bard,
		SaveID:    "nope",
		Resume:    true,
		Config:    playConfig(dir),
		Logger:    logging.NewNop(),
		In:        strings.NewReader(""),
		Out:       io.Discard,
	})
	assert.ErrorContains(t, err, "resume nope")
}

func TestRunPlay_JSON(t *testing.T) {
	dir := t.TempDir()
	_, compiled := writeStory(t, dir)

	var out bytes.Buffer
	err := cli.RunPlay(context.Background(), cli.PlayOptions{
		StoryPath: compiled,
		JSON:      true,
		Config:    playConfig(dir),
		Logger:    logging.NewNop(),
		In:        strings.NewReader(`{"choice": 1}` + "\n"),
		Out:       &out,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	var last map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &last))
	assert.Equal(t, "Home", last["passage_id"])
	assert.Equal(t, true, last["is_end"])
}

func TestNewApp(t *testing.T) {
	dir := t.TempDir()
	writeStory(t, dir)
	cfg := config.Defaults()
	cfg.Store.Kind = config.StoreMemory

	app, err := cli.NewApp(context.Background(), cli.ServeOptions{StoriesDir: dir, Config: cfg, Logger: logging.NewNop()})
	require.NoError(t, err)
	defer app.Close()

	srv := httptest.NewServer(app.Handler)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/stories")
	require.NoError(t, err)
	var stories map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stories))
	resp.Body.Close()
	assert.Contains(t, stories["stories"], "cave")

	resp, err = http.Post(srv.URL+"/api/story/start", "application/json", strings.NewReader(`{"story_id":"cave"}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, app.Sessions.Sessions(), 1)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `bardic_passage_visits_total{passage="Start"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}

func TestLoadStory_BundledExamples(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("..", "..", "examples", "stories", "*.bard"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			doc, err := cli.LoadStory(path, logging.NewNop())
			require.NoError(t, err)
			report, err := validator.ValidateGraph(doc)
			require.NoError(t, err)
			assert.NoError(t, report.Err())
			assert.NotEmpty(t, report.Endings)
		})
	}
}
