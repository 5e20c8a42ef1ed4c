package ports

import (
	"context"

	"github.com/aretw0/bardic/pkg/domain"
)

// SaveStore persists save snapshots under caller-chosen IDs.
type SaveStore interface {
	// Save persists data under id, replacing any previous save with that id.
	Save(ctx context.Context, id string, data *domain.SaveData) error

	// Load retrieves the save stored under id.
	// Returns domain.ErrSaveNotFound if it does not exist.
	Load(ctx context.Context, id string) (*domain.SaveData, error)

	// Delete removes the save stored under id. Deleting a missing save is not an error.
	Delete(ctx context.Context, id string) error

	// List returns a summary of every stored save, newest first.
	List(ctx context.Context) ([]domain.SaveSummary, error)
}
