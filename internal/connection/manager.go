// Package connection holds the process-wide "currently connected database"
// reference. Connecting replaces the reference unconditionally and closes
// the previous one; disconnecting clears it. In-flight requests keep using
// whatever session they read before a replace, which mirrors how connect and
// chat race against each other at the API surface. The mutex only protects
// the reference swap itself.
package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/querygenie/querygenie/internal/dbexec"
	"github.com/querygenie/querygenie/internal/dbexec/postgres"
)

var ErrNotConnected = errors.New("no database connected")

// Database is what a connected target must provide: statement execution,
// schema description, and the two column resolution paths.
type Database interface {
	dbexec.Runner
	dbexec.SchemaDescriber
	dbexec.MetadataQuerier
	dbexec.Inspector
	Close() error
}

// Session is one validated connection: the open database plus the schema
// text captured at connect time for the generation prompt.
type Session struct {
	DB     Database
	Schema string
	Label  string
}

// Opener dials and validates a target. Swapped out in tests.
type Opener func(ctx context.Context, cfg postgres.Config) (Database, error)

type Manager struct {
	logger *slog.Logger
	open   Opener

	mu      sync.RWMutex
	current *Session
}

func NewManager(logger *slog.Logger, open Opener) *Manager {
	if open == nil {
		open = func(ctx context.Context, cfg postgres.Config) (Database, error) {
			return postgres.Open(ctx, cfg)
		}
	}
	return &Manager{logger: logger, open: open}
}

// Connect opens the target, validates it by describing its schema, and
// installs it as the current session, closing any previous one. Returns the
// schema text so the caller can confirm what was connected.
func (m *Manager) Connect(ctx context.Context, cfg postgres.Config) (string, error) {
	db, err := m.open(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("connect to %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	schema, err := db.DescribeSchema(ctx)
	if err != nil {
		_ = db.Close()
		return "", fmt.Errorf("describe schema of %s/%s: %w", cfg.Host, cfg.Database, err)
	}

	session := &Session{
		DB:     db,
		Schema: schema,
		Label:  fmt.Sprintf("%s:%d/%s", cfg.Host, cfg.Port, cfg.Database),
	}

	m.mu.Lock()
	previous := m.current
	m.current = session
	m.mu.Unlock()

	if previous != nil {
		if err := previous.DB.Close(); err != nil {
			m.logger.Warn("closing replaced connection failed",
				slog.String("target", previous.Label),
				slog.String("error", err.Error()))
		}
	}

	m.logger.Info("database connected", slog.String("target", session.Label))
	return schema, nil
}

// Disconnect clears the current session. Reports whether one was connected.
func (m *Manager) Disconnect() bool {
	m.mu.Lock()
	previous := m.current
	m.current = nil
	m.mu.Unlock()

	if previous == nil {
		return false
	}
	if err := previous.DB.Close(); err != nil {
		m.logger.Warn("closing connection failed",
			slog.String("target", previous.Label),
			slog.String("error", err.Error()))
	}
	m.logger.Info("database disconnected", slog.String("target", previous.Label))
	return true
}

// Current returns the session installed at the moment of the call.
func (m *Manager) Current() (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil, ErrNotConnected
	}
	return m.current, nil
}

// Close releases the current session, if any. Used at shutdown.
func (m *Manager) Close() {
	m.Disconnect()
}
