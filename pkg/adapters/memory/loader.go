package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/bardic/pkg/domain"
)

// Loader implements ports.StoryLoader over documents held in memory.
type Loader struct {
	mu      sync.RWMutex
	stories map[string]*domain.Document
}

// NewLoader creates a loader serving the given documents by story ID.
func NewLoader(stories map[string]*domain.Document) *Loader {
	l := &Loader{stories: make(map[string]*domain.Document, len(stories))}
	for id, doc := range stories {
		l.stories[id] = doc
	}
	return l
}

// Add registers or replaces a story.
func (l *Loader) Add(id string, doc *domain.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stories[id] = doc
}

// Load returns the document registered under storyID.
func (l *Loader) Load(ctx context.Context, storyID string) (*domain.Document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	doc, ok := l.stories[storyID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrStoryNotFound, storyID)
	}
	return doc, nil
}

// List returns all story IDs.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ids := make([]string, 0, len(l.stories))
	for id := range l.stories {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}
