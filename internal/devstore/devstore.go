// Package devstore is a self-hosted implementation of the page store
// contract, for development and tests. It serves the same single-endpoint
// action API the production store exposes, backed by SQLite or Postgres.
package devstore

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"time"
)

// Record is one stored page row.
type Record struct {
	ID           string
	Title        string
	Author       string
	Category     string
	PasswordHash string
	Data         string
	UpdatedAt    time.Time
}

// ErrNotFound is returned by backends for an unknown page id.
var ErrNotFound = errors.New("page not found")

// Backend is the persistence layer behind the dev store handler.
type Backend interface {
	List(ctx context.Context) ([]Record, error)
	Get(ctx context.Context, id string) (*Record, error)
	// Upsert inserts or replaces a record by id.
	Upsert(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
	Close() error
}

// HashPassword derives the stored credential digest. Plain SHA-256 is
// enough for a dev store; the production store keeps its own scheme.
func HashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// CheckPassword compares a candidate against a stored digest in constant
// time.
func CheckPassword(password, hash string) bool {
	candidate := HashPassword(password)
	return subtle.ConstantTimeCompare([]byte(candidate), []byte(hash)) == 1
}
