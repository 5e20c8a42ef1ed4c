package tests

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/ports"
)

// StoryLoaderContractTest is a reusable test suite that verifies if an adapter
// complies with ports.StoryLoader. want maps each expected story ID to its
// initial passage.
func StoryLoaderContractTest(t *testing.T, loader ports.StoryLoader, want map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Load_Success", func(t *testing.T) {
		for id, initial := range want {
			doc, err := loader.Load(ctx, id)
			if err != nil {
				t.Fatalf("unexpected error loading story %s: %v", id, err)
			}
			if doc.InitialPassage != initial {
				t.Errorf("initial passage mismatch for %s. got %q, want %q", id, doc.InitialPassage, initial)
			}
		}
	})

	t.Run("Load_NotFound", func(t *testing.T) {
		_, err := loader.Load(ctx, "non-existent-story")
		if !errors.Is(err, domain.ErrStoryNotFound) {
			t.Errorf("expected ErrStoryNotFound, got %v", err)
		}
	})

	t.Run("List", func(t *testing.T) {
		ids, err := loader.List(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing stories: %v", err)
		}
		if len(ids) != len(want) {
			t.Errorf("expected %d stories, got %d", len(want), len(ids))
		}
		for i := 1; i < len(ids); i++ {
			if ids[i-1] > ids[i] {
				t.Errorf("story IDs are not sorted: %v", ids)
				break
			}
		}
		lookup := make(map[string]bool)
		for _, id := range ids {
			lookup[id] = true
		}
		for id := range want {
			if !lookup[id] {
				t.Errorf("story %s missing from list", id)
			}
		}
	})
}
