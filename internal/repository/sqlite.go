package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/xiaot623/gogo/agentstatus/internal/domain"
)

// SQLiteStore implements RunStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	keys *keyedMutex
	now  func() time.Time
}

// NewSQLiteStore creates a new SQLite store.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// For in-memory SQLite, multiple connections create separate databases.
	// Keep a single connection to avoid schema/data disappearing across goroutines.
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	store := &SQLiteStore{db: db, keys: newKeyedMutex(), now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// migrate runs database migrations.
func (s *SQLiteStore) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS status_updates (
			run_id TEXT PRIMARY KEY,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_status_updates_updated ON status_updates(updated_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\n%s", err, m)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Start creates or resets the status update for runID.
func (s *SQLiteStore) Start(ctx context.Context, runID string) error {
	data, err := json.Marshal(domain.NewStatusUpdate())
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}
	now := s.now().UTC()
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO status_updates (run_id, data, created_at, updated_at) VALUES (?, ?, ?, ?)`,
		runID, string(data), now, now)
	if err != nil {
		return fmt.Errorf("start status update %s: %w", runID, err)
	}
	return nil
}

// Append loads, extends and writes back the status update inside one
// transaction. In-process callers are additionally serialized per run.
func (s *SQLiteStore) Append(ctx context.Context, runID string, rec domain.Record) error {
	unlock := s.keys.Lock(runID)
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var data string
	err = tx.QueryRowContext(ctx, `SELECT data FROM status_updates WHERE run_id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return fmt.Errorf("run %s: %w", runID, domain.ErrRunNotStarted)
	}
	if err != nil {
		return err
	}

	update, err := domain.StatusUpdateFromJSON([]byte(data))
	if err != nil {
		return err
	}
	update.Add(rec)
	encoded, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE status_updates SET data = ?, updated_at = ? WHERE run_id = ?`,
		string(encoded), s.now().UTC(), runID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s deleted during append: %w", runID, domain.ErrRunNotStarted)
	}
	return tx.Commit()
}

// Load retrieves the status update for runID.
func (s *SQLiteStore) Load(ctx context.Context, runID string) (*domain.StatusUpdate, error) {
	var data string
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM status_updates WHERE run_id = ?`, runID).Scan(&data)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return domain.StatusUpdateFromJSON([]byte(data))
}

// Delete removes the status update for runID.
func (s *SQLiteStore) Delete(ctx context.Context, runID string) error {
	unlock := s.keys.Lock(runID)
	defer unlock()

	_, err := s.db.ExecContext(ctx, `DELETE FROM status_updates WHERE run_id = ?`, runID)
	return err
}

// ListExpired lists runs not written since cutoff, oldest first.
func (s *SQLiteStore) ListExpired(ctx context.Context, cutoff time.Time, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id
		FROM status_updates
		WHERE updated_at < ?
		ORDER BY updated_at ASC
		LIMIT ?
	`, cutoff.UTC(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var runID string
		if err := rows.Scan(&runID); err != nil {
			return nil, err
		}
		out = append(out, runID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
