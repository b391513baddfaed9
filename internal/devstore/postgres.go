package devstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // Postgres driver
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS pages (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	author        TEXT NOT NULL DEFAULT '',
	category      TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	data          TEXT NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
)`

// PostgresBackend stores pages in a Postgres database, for dev setups that
// want to share state between machines.
type PostgresBackend struct {
	db *sql.DB
}

// NewPostgres connects to the given DSN and initializes the schema.
func NewPostgres(dsn string) (*PostgresBackend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("devstore: postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("devstore: open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("devstore: connect postgres: %w", err)
	}
	if _, err := db.Exec(postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("devstore: init schema: %w", err)
	}
	return &PostgresBackend{db: db}, nil
}

func (b *PostgresBackend) List(ctx context.Context) ([]Record, error) {
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

func (b *PostgresBackend) Get(ctx context.Context, id string) (*Record, error) {
	var rec Record
	err := b.db.QueryRowContext(ctx,
		`SELECT id, title, author, category, password_hash, data, updated_at
		 FROM pages WHERE id = $1`, id).
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

func (b *PostgresBackend) Upsert(ctx context.Context, rec Record) error {
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO pages (id, title, author, category, password_hash, data, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			author = EXCLUDED.author,
			category = EXCLUDED.category,
			password_hash = EXCLUDED.password_hash,
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`,
		rec.ID, rec.Title, rec.Author, rec.Category,
		rec.PasswordHash, rec.Data, rec.UpdatedAt)
	if err != nil {
		return fmt.Errorf("devstore: upsert %s: %w", rec.ID, err)
	}
	return nil
}

func (b *PostgresBackend) Delete(ctx context.Context, id string) error {
	res, err := b.db.ExecContext(ctx, `DELETE FROM pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("devstore: delete %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}
