package resultlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/regwatch/dbopen"
)

// Storage is the persistence medium behind the trigger log. Implementations
// must treat value as opaque. A missing key is (value="", ok=false, err=nil),
// not an error.
type Storage interface {
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
}

// SQLiteStorage persists dashboard state rows in SQLite.
type SQLiteStorage struct {
	DB *sql.DB
}

// NewSQLiteStorage wraps an open database. The caller applies Schema
// (directly or via dbopen.WithSchema).
func NewSQLiteStorage(db *sql.DB) *SQLiteStorage {
	return &SQLiteStorage{DB: db}
}

func (s *SQLiteStorage) Read(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.DB.QueryRowContext(ctx,
		`SELECT value FROM dashboard_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("resultlog: read %q: %w", key, err)
	}
	return value, true, nil
}

func (s *SQLiteStorage) Write(ctx context.Context, key, value string) error {
	// The state database is shared with the audit writer; retry BUSY.
	_, err := dbopen.Exec(ctx, s.DB, `
		INSERT INTO dashboard_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, value, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("resultlog: write %q: %w", key, err)
	}
	return nil
}
