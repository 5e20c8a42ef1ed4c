package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const story = `:: Start
Hello.
+ [Go] -> End

:: End
Bye.

:: Lost
Nobody comes here.`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeStory(t *testing.T) (dir, path string) {
	t.Helper()
	dir = t.TempDir()
	path = filepath.Join(dir, "story.bard")
	require.NoError(t, os.WriteFile(path, []byte(story), 0o644))
	return dir, path
}

func TestCompileCommand(t *testing.T) {
	dir, path := writeStory(t)
	t.Chdir(dir)

	out, err := execute(t, "", "compile", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"initial_passage": "Start"`)

	target := filepath.Join(dir, "story.yaml")
	_, err = execute(t, "", "compile", path, "--format", "yaml", "-o", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "initial_passage: Start")

	_, err = execute(t, "", "compile", path, "--format", "toml", "-o", "")
	assert.Error(t, err)
}

func TestValidateAndGraphCommands(t *testing.T) {
	dir, path := writeStory(t)
	t.Chdir(dir)

	out, err := execute(t, "", "validate", path)
	require.NoError(t, err)
	assert.Contains(t, out, "warning: Lost")
	assert.Contains(t, out, "2 passages reachable, 1 endings")

	out, err = execute(t, "", "graph", path)
	require.NoError(t, err)
	assert.Contains(t, out, `Start -- "Go" --> End`)
}

func TestPlayAndSavesCommands(t *testing.T) {
	dir, path := writeStory(t)
	t.Chdir(dir)
	saveDir := filepath.Join(dir, "saves")

	out, err := execute(t, ":save first\n:quit\n", "play", path, "--no-color", "--save-dir", saveDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Hello.")
	assert.Contains(t, out, "Saved to first.")

	out, err = execute(t, "", "saves", "ls", "--save-dir", saveDir)
	require.NoError(t, err)
	assert.Contains(t, out, "first")

	out, err = execute(t, "", "saves", "inspect", "first", "--save-dir", saveDir)
	require.NoError(t, err)
	assert.Contains(t, out, `"current_passage_id": "Start"`)

	out, err = execute(t, "", "saves", "rm", "first", "--save-dir", saveDir)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed save 'first'")
}

func TestVersionCommand(t *testing.T) {
	t.Chdir(t.TempDir())
	out, err := execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bardic version")
}
