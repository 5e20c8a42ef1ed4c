package ports

import (
	"context"

	"github.com/aretw0/bardic/pkg/domain"
)

// StoryLoader resolves story IDs to compiled documents.
// This allows the story source (directory, memory, remote) to be decoupled.
type StoryLoader interface {
	// Load returns the compiled document for a story.
	// Returns domain.ErrStoryNotFound if the story does not exist.
	Load(ctx context.Context, storyID string) (*domain.Document, error)

	// List returns the IDs of all available stories, sorted.
	List(ctx context.Context) ([]string, error)
}
