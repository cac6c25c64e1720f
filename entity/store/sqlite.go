package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/entityscheduler/entityscheduler/entity"
	_ "modernc.org/sqlite"
)

// SQLiteStore is a single-file SQLite-backed Store. Designed for
// development and single-process deployments where persistence is wanted
// without standing up a database server.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) a SQLite database at path
// and ensures the scheduler_state table exists. path may be ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("entity/store: open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("entity/store: %s: %w", pragma, err)
		}
	}

	s := &SQLiteStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) createTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS scheduler_state (
			instance_id TEXT NOT NULL PRIMARY KEY,
			document TEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("entity/store: create scheduler_state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SaveState(ctx context.Context, instanceID string, state entity.SchedulerState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("entity/store: marshal state: %w", err)
	}
	const q = `
		INSERT INTO scheduler_state (instance_id, document, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(instance_id) DO UPDATE SET document = excluded.document, updated_at = CURRENT_TIMESTAMP
	`
	if _, err := s.db.ExecContext(ctx, q, instanceID, string(blob)); err != nil {
		return fmt.Errorf("entity/store: save state: %w", err)
	}
	return nil
}

func (s *SQLiteStore) LoadState(ctx context.Context, instanceID string) (entity.SchedulerState, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, "SELECT document FROM scheduler_state WHERE instance_id = ?", instanceID).Scan(&blob)
	if err == sql.ErrNoRows {
		return entity.SchedulerState{}, ErrNotFound
	}
	if err != nil {
		return entity.SchedulerState{}, fmt.Errorf("entity/store: load state: %w", err)
	}
	var state entity.SchedulerState
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return entity.SchedulerState{}, fmt.Errorf("entity/store: decode state: %w", err)
	}
	return state, nil
}

func (s *SQLiteStore) DeleteState(ctx context.Context, instanceID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM scheduler_state WHERE instance_id = ?", instanceID); err != nil {
		return fmt.Errorf("entity/store: delete state: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
