package secretstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"bocateam/internal/assert"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var Schema string

// SQLite is a Store backed by a single sqlite table.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the sqlite database at path and ensures the
// schema exists. `:memory:` is accepted.
func OpenSQLite(path string) (SQLite, error) {
	assert.NotEmptyStr(path, "path")

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return SQLite{}, err
	}
	// a memory database only lives as long as its connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec(Schema)
	if err != nil {
		db.Close()
		return SQLite{}, fmt.Errorf("create schema: %w", err)
	}
	slog.Debug("opened secret store", "path", path)
	return SQLite{db: db}, nil
}

func (s SQLite) Close() error {
	return s.db.Close()
}

func (s SQLite) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(
		ctx,
		"select value from secret where key = ?",
		key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get secret %q: %w", key, err)
	}
	return value, true, nil
}

func (s SQLite) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`insert into secret(key, value, updated_at) values (?, ?, ?)
		on conflict(key) do update set value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set secret %q: %w", key, err)
	}
	return nil
}

func (s SQLite) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "delete from secret where key = ?", key)
	if err != nil {
		return fmt.Errorf("delete secret %q: %w", key, err)
	}
	return nil
}
