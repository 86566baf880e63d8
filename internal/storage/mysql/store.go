package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const (
	selectRecordSQL = `SELECT payload FROM session_records WHERE record_key = ?`
	upsertRecordSQL = `INSERT INTO session_records (record_key, payload, updated_at)
    VALUES (?, ?, ?)
    ON DUPLICATE KEY UPDATE payload = VALUES(payload), updated_at = VALUES(updated_at)`
)

// Store keeps session records in the session_records table. It satisfies
// session.Store.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open connects to MySQL and applies pending migrations.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := runMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return newStore(db), nil
}

func newStore(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Get returns the payload stored under key. A missing row is reported as
// absent, not as an error.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, selectRecordSQL, key).Scan(&payload)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return "", false, nil
	case err != nil:
		return "", false, fmt.Errorf("查询会话记录失败: %w", err)
	}
	return payload, true, nil
}

// Set overwrites the payload stored under key.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if _, err := s.db.ExecContext(ctx, upsertRecordSQL, key, value, s.now().Unix()); err != nil {
		return fmt.Errorf("写入会话记录失败: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
