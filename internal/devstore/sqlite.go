package devstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS pages (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	author        TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	data          TEXT NOT NULL,
	updated_at    DATETIME NOT NULL
)`

// SQLiteBackend stores pages in a local SQLite file.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLite opens (and if needed initializes) a SQLite-backed store.
func NewSQLite(path string) (*SQLiteBackend, error) {
	if path == "" {
		path = "./mopage.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("devstore: open sqlite %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("devstore: connect sqlite %s: %w", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("devstore: init schema: %w", err)
	}
	return &SQLiteBackend{db: db}, nil
}

func (b *SQLiteBackend) List(ctx context.Context) ([]Record, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT id, title, author, category, password_hash, data, updated_at
		 FROM pages ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("devstore: list: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Author, &rec.Category,
			&rec.PasswordHash, &rec.Data, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("devstore: scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (b *SQLiteBackend) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := b.db.QueryRowContext(ctx,
		`SELECT id, title, author, category, password_hash, data, updated_at
		 FROM pages WHERE id = ?`, id).
		Scan(&rec.ID, &rec.Title, &rec.Author, &rec.Category,
			&rec.PasswordHash, &rec.Data, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("devstore: get %s: %w", id, err)
	}
	return &rec, nil
}

func (b *SQLiteBackend) Upsert(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO pages (id, title, author, category, password_hash, data, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			author = excluded.author,
			category = excluded.category,
			password_hash = excluded.password_hash,
			data = excluded.data,
			updated_at = excluded.updated_at`,
		rec.ID, rec.Title, rec.Author, rec.Category,
		rec.PasswordHash, rec.Data, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("devstore: upsert %s: %w", rec.ID, err)
	}
	return nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("devstore: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
