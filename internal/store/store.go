// Package store is the application's own persistence layer: user accounts
// and chat sessions in a SQLite database. It is entirely separate from the
// user-connected target database the pipeline executes against.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var (
	ErrNotFound = errors.New("not found")
	ErrNotOwned = errors.New("not owned by user")
)

type User struct {
	ID           int64
	Email        string
	Phone        string
	FirstName    string
	LastName     string
	Gender       string
	Username     string
	PasswordHash string
}

// ChatSession is one saved conversation. Messages is the JSON-encoded
// message list exactly as the client sent it; the store does not interpret it.
type ChatSession struct {
	ID         int64
	ExternalID string
	UserID     int64
	Title      string
	Messages   string
	UpdatedAt  time.Time
}

// Open opens the SQLite file and verifies the connection. The path
// ":memory:" yields an in-process throwaway database for tests.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, fmt.Errorf("store path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// modernc.org/sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping store: %w", err)
	}
	return db, nil
}
