package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/bardic/pkg/domain"
	"github.com/aretw0/bardic/pkg/schema"
	_ "modernc.org/sqlite"
)

// SchemaVersion is the table layout this store writes.
const SchemaVersion = "1"

// Store implements ports.SaveStore on a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and prepares its tables.
// Use ":memory:" for a throwaway database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS saves (
			id TEXT PRIMARY KEY,
			story_id TEXT NOT NULL DEFAULT '',
			save_name TEXT NOT NULL DEFAULT '',
			passage_id TEXT NOT NULL,
			saved_at INTEGER NOT NULL,
			data TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS saves_saved_at ON saves(saved_at);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("create tables: %w", err)
	}

	var version string
	err = s.db.QueryRowContext(ctx, "SELECT value FROM metadata WHERE key = 'schema_version'").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, "INSERT INTO metadata (key, value) VALUES ('schema_version', ?)", SchemaVersion)
		return err
	case err != nil:
		return err
	case version != SchemaVersion:
		return fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	return nil
}

// Save persists the snapshot, replacing any previous row with the same id.
func (s *Store) Save(ctx context.Context, id string, save *domain.SaveData) error {
	if id == "" {
		return fmt.Errorf("save id cannot be empty")
	}
	data, err := json.Marshal(save)
	if err != nil {
		return fmt.Errorf("failed to marshal save: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO saves (id, story_id, save_name, passage_id, saved_at, data)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			story_id = excluded.story_id,
			save_name = excluded.save_name,
			passage_id = excluded.passage_id,
			saved_at = excluded.saved_at,
			data = excluded.data`,
		id, save.StoryID, save.SaveName, save.CurrentPassageID, save.Timestamp.UnixNano(), string(data))
	if err != nil {
		return fmt.Errorf("failed to save: %w", err)
	}
	return nil
}

// Load retrieves a snapshot.
func (s *Store) Load(ctx context.Context, id string) (*domain.SaveData, error) {
	var data string
	err := s.db.QueryRowContext(ctx, "SELECT data FROM saves WHERE id = ?", id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrSaveNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load save: %w", err)
	}
	return schema.DecodeSave([]byte(data))
}

// Delete removes a snapshot.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM saves WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete save: %w", err)
	}
	return nil
}

// List returns summaries from the indexed columns, newest first.
func (s *Store) List(ctx context.Context) ([]domain.SaveSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, story_id, save_name, passage_id, saved_at FROM saves ORDER BY saved_at DESC, id ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list saves: %w", err)
	}
	defer rows.Close()

	saves := []domain.SaveSummary{}
	for rows.Next() {
		var sum domain.SaveSummary
		var savedAt int64
		if err := rows.Scan(&sum.ID, &sum.StoryID, &sum.SaveName, &sum.CurrentPassageID, &savedAt); err != nil {
			return nil, err
		}
		sum.Timestamp = time.Unix(0, savedAt).UTC()
		saves = append(saves, sum)
	}
	return saves, rows.Err()
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
