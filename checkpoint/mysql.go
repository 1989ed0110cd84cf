package checkpoint

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed Store.
//
// Designed for production pipelines requiring persistence across multiple
// workers or restarts. One row per pipeline id, upserted on every Save.
//
// DSN format:
//
//	user:password@tcp(host:3306)/dbname?parseTime=true
type MySQLStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewMySQLStore opens a connection pool and ensures the checkpoint table
// exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: open mysql: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("checkpoint: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTable(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS pipeline_checkpoints (
			pipeline_id VARCHAR(255) NOT NULL PRIMARY KEY,
			checkpoint  JSON NOT NULL,
			updated_at  TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci
	`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("checkpoint: create pipeline_checkpoints table: %w", err)
	}
	return nil
}

// Load returns (nil, nil) if no checkpoint has been saved for pipelineID.
func (s *MySQLStore) Load(ctx context.Context, pipelineID string) (Checkpoint, error) {
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
func (s *MySQLStore) Save(ctx context.Context, pipelineID string, cp Checkpoint) error {
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
		ON DUPLICATE KEY UPDATE
			checkpoint = VALUES(checkpoint),
			updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, upsert, pipelineID, string(raw)); err != nil {
		return fmt.Errorf("checkpoint: save %q: %w", pipelineID, err)
	}
	return nil
}

// Close closes the underlying connection pool. Safe to call more than once.
func (s *MySQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
