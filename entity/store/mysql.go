package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/entityscheduler/entityscheduler/entity"
	_ "github.com/go-sql-driver/mysql"
)

// MySQLStore is a MySQL/MariaDB-backed Store for production deployments
// where scheduler state must survive process restarts and be shared across
// multiple runtime workers.
type MySQLStore struct {
	db *sql.DB
}

// NewMySQLStore opens a connection pool against dsn (e.g.
// "user:pass@tcp(127.0.0.1:3306)/entityscheduler?parseTime=true") and
// ensures the scheduler_state table exists.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("entity/store: open mysql: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("entity/store: ping mysql: %w", err)
	}

	s := &MySQLStore{db: db}
	if err := s.createTable(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *MySQLStore) createTable(ctx context.Context) error {
	const ddl = `
		CREATE TABLE IF NOT EXISTS scheduler_state (
			instance_id VARCHAR(512) NOT NULL PRIMARY KEY,
			document MEDIUMTEXT NOT NULL,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)
	`
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("entity/store: create scheduler_state: %w", err)
	}
	return nil
}

func (s *MySQLStore) SaveState(ctx context.Context, instanceID string, state entity.SchedulerState) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("entity/store: marshal state: %w", err)
	}
	const q = `
		INSERT INTO scheduler_state (instance_id, document)
		VALUES (?, ?)
		ON DUPLICATE KEY UPDATE document = VALUES(document)
	`
	if _, err := s.db.ExecContext(ctx, q, instanceID, string(blob)); err != nil {
		return fmt.Errorf("entity/store: save state: %w", err)
	}
	return nil
}

func (s *MySQLStore) LoadState(ctx context.Context, instanceID string) (entity.SchedulerState, error) {
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

func (s *MySQLStore) DeleteState(ctx context.Context, instanceID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM scheduler_state WHERE instance_id = ?", instanceID); err != nil {
		return fmt.Errorf("entity/store: delete state: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	return s.db.Close()
}
