package middleware

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/ports"
)

// EncryptedField is the state key holding the sealed payload.
const EncryptedField = "__encrypted__"

// ErrNotEncrypted is returned when a stored save has no encrypted payload.
var ErrNotEncrypted = errors.New("save is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	// Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys is a list of old keys to try when decryption fails.
	// This enables zero-downtime key rotation.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.SaveStore
	config EncryptionConfig
}

// sealed is the part of a save hidden by encryption.
type sealed struct {
	State       map[string]any     `json:"state"`
	UsedChoices []domain.ChoiceKey `json:"used_choices"`
	Metadata    map[string]string  `json:"metadata,omitempty"`
}

// NewEncryptionMiddleware creates a middleware that seals story state and
// choice history with AES-GCM. Listing fields (story, name, passage and
// timestamp) stay readable so saves can still be browsed.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	return func(next ports.SaveStore) ports.SaveStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, id string, save *domain.SaveData) error {
	plainText, err := json.Marshal(sealed{State: save.State, UsedChoices: save.UsedChoices, Metadata: save.Metadata})
	if err != nil {
		return fmt.Errorf("failed to marshal save: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt save: %w", err)
	}

	envelope := *save
	envelope.State = map[string]any{EncryptedField: base64.StdEncoding.EncodeToString(ciphertext)}
	envelope.UsedChoices = nil
	envelope.Metadata = nil
	return m.next.Save(ctx, id, &envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (*domain.SaveData, error) {
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	encryptedStr, ok := envelope.State[EncryptedField].(string)
	if !ok {
		// Fail secure: plain saves are not accepted once encryption is on.
		return nil, ErrNotEncrypted
	}
	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt save: %w", err)
	}

	var payload sealed
	dec := json.NewDecoder(bytes.NewReader(plainText))
	dec.UseNumber()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted save: %w", err)
	}

	out := *envelope
	out.State = payload.State
	out.UsedChoices = payload.UsedChoices
	out.Metadata = payload.Metadata
	return &out, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]domain.SaveSummary, error) {
	return m.next.List(ctx)
}

// Helpers

func encrypt(plaintext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext []byte, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext []byte, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}

	nonce := ciphertext[:gcm.NonceSize()]
	return gcm.Open(nil, nonce, ciphertext[gcm.NonceSize():], nil)
}
