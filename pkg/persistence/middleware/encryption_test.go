package middleware_test

import (
	"context"
	"crypto/rand"
	"io"
	"testing"
	"time"

	"github.com/aretw0/bardic/pkg/adapters/memory"
	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/persistence/middleware"
	"github.com/aretw0/bardic/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func newSave(state map[string]any) *domain.SaveData {
	return &domain.SaveData{
		Version:          domain.SaveFormatVersion,
		StoryID:          "vault",
		Timestamp:        time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		CurrentPassageID: "Start",
		State:            state,
		UsedChoices:      []domain.ChoiceKey{{Passage: "Start", Text: "Open", Target: "Vault"}},
	}
}

func encrypted(t *testing.T, next ports.SaveStore, cfg middleware.EncryptionConfig) ports.SaveStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return mw(next)
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	ports.RunSaveStoreContract(t, encrypted(t, memory.NewStore(), middleware.EncryptionConfig{ActiveKey: generateKey(t)}))
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := memory.NewStore()
	secureStore := encrypted(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})

	ctx := context.Background()
	if err := secureStore.Save(ctx, "s1", newSave(map[string]any{"secret": "my-secret-sauce"})); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// The underlying store only sees the envelope.
	stored, err := underlyingStore.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if _, ok := stored.State["secret"]; ok {
		t.Fatal("Expected secret to be hidden")
	}
	if _, ok := stored.State[middleware.EncryptedField]; !ok {
		t.Fatal("Expected encrypted field in state")
	}
	if len(stored.UsedChoices) != 0 {
		t.Error("Expected used choices to be sealed")
	}
	if stored.CurrentPassageID != "Start" {
		t.Error("Expected listing fields to stay readable")
	}

	loaded, err := secureStore.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if loaded.State["secret"] != "my-secret-sauce" || len(loaded.UsedChoices) != 1 {
		t.Errorf("Unexpected decrypted save %+v", loaded)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureStoreOld := encrypted(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: oldKey})
	if err := secureStoreOld.Save(ctx, "rot", newSave(map[string]any{"data": "old"})); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := encrypted(t, underlyingStore, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})
	loaded, err := secureStoreNew.Load(ctx, "rot")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if loaded.State["data"] != "old" {
		t.Errorf("Decryption with fallback key failed")
	}

	loaded.State["data"] = "new"
	if err := secureStoreNew.Save(ctx, "rot", loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}
	if _, err := secureStoreOld.Load(ctx, "rot"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainSaves(t *testing.T) {
	underlyingStore := memory.NewStore()
	ctx := context.Background()
	if err := underlyingStore.Save(ctx, "plain", newSave(map[string]any{"x": "y"})); err != nil {
		t.Fatal(err)
	}

	secureStore := encrypted(t, underlyingStore, middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	if _, err := secureStore.Load(ctx, "plain"); err != middleware.ErrNotEncrypted {
		t.Errorf("Expected ErrNotEncrypted, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected an error for invalid key size")
	}
}
