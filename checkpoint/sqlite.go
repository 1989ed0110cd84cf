package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a SQLite-backed Store.
//
// Designed for:
//   - single-process pipelines that must resume after a restart
//   - development and testing with zero external setup
//
// Schema: one row per pipeline id, upserted on every Save.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
	path   string
}

// NewSQLiteStore opens (creating if necessary) a SQLite-backed checkpoint
// store at path. Use ":memory:" for an ephemeral, process-local database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("checkpoint: enable WAL mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("checkpoint: set busy timeout: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS pipeline_checkpoints (
			pipeline_id TEXT NOT NULL PRIMARY KEY,
			checkpoint  TEXT NOT NULL,
			updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("checkpoint: create pipeline_checkpoints table: %w", err)
	}
	return nil
}

// Load returns (nil, nil) if no checkpoint has been saved for pipelineID.
func (s *SQLiteStore) Load(ctx context.Context, pipelineID string) (Checkpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, fmt.Errorf("checkpoint: store is closed")
	}

	var raw string
	err := s.db.QueryRowContext(ctx,
		`SELECT checkpoint FROM pipeline_checkpoints WHERE pipeline_id = ?`, pipelineID,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checkpoint: load %q: %w", pipelineID, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal([]byte(raw), &cp); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal %q: %w", pipelineID, err)
	}
	return cp, nil
}

// Save atomically upserts the checkpoint for pipelineID.
func (s *SQLiteStore) Save(ctx context.Context, pipelineID string, cp Checkpoint) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("checkpoint: store is closed")
	}

	raw, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal %q: %w", pipelineID, err)
	}

	const upsert = `
		INSERT INTO pipeline_checkpoints (pipeline_id, checkpoint)
		VALUES (?, ?)
		ON CONFLICT(pipeline_id) DO UPDATE SET
			checkpoint = excluded.checkpoint,
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, upsert, pipelineID, string(raw)); err != nil {
		return fmt.Errorf("checkpoint: save %q: %w", pipelineID, err)
	}
	return nil
}

// Close closes the underlying database connection. Safe to call more than
// once.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
