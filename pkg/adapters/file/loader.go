package file

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/bardic/internal/compiler"
	"github.com/aretw0/bardic/internal/logging"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/schema"
)

// Loader implements ports.StoryLoader over a directory of stories.
// Each "<id>.bard" source is compiled on load; each "<id>.json" must be a
// compiled document. When both exist the compiled JSON wins.
type Loader struct {
	Dir    string
	logger *slog.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLoaderLogger sets the logger passed to the compiler.
func WithLoaderLogger(l *slog.Logger) LoaderOption {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// NewLoader creates a loader reading stories from dir.
func NewLoader(dir string, opts ...LoaderOption) *Loader {
	l := &Loader{Dir: dir, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load compiles or decodes the story named storyID.
func (l *Loader) Load(ctx context.Context, storyID string) (*domain.Document, error) {
	if storyID == "" || strings.ContainsAny(storyID, `/\`) {
		return nil, fmt.Errorf("%w: %q", domain.ErrStoryNotFound, storyID)
	}

	jsonPath := filepath.Join(l.Dir, storyID+".json")
	if data, err := os.ReadFile(jsonPath); err == nil {
		doc, err := schema.DecodeDocument(data)
		if err != nil {
			return nil, fmt.Errorf("story %s: %w", storyID, err)
		}
		return doc, nil
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read story %s: %w", storyID, err)
	}

	bardPath := filepath.Join(l.Dir, storyID+".bard")
	if _, err := os.Stat(bardPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
		}
		return nil, err
	}
	doc, err := compiler.CompileFile(bardPath, compiler.WithLogger(l.logger))
	if err != nil {
		return nil, fmt.Errorf("story %s: %w", storyID, err)
	}
	return doc, nil
}

// List returns the IDs of every story in the directory.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list stories: %w", err)
	}

	seen := make(map[string]bool)
	ids := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext != ".bard" && ext != ".json" {
			continue
		}
		id := strings.TrimSuffix(entry.Name(), ext)
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}
