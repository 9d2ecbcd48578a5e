package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]ChatSession, error) {
	query := `
SELECT id, external_id, user_id, title, messages, updated_at
FROM chat_sessions
WHERE user_id = ?
ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chat sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	sessions := make([]ChatSession, 0)
	for rows.Next() {
		session, err := scanSession(rows.Scan)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat sessions: %w", err)
	}
	return sessions, nil
}

func (r *SessionRepository) Create(ctx context.Context, userID int64, title string, messages string) (ChatSession, error) {
	if title == "" {
		title = "Untitled Chat"
	}
	if messages == "" {
		messages = "[]"
	}

	session := ChatSession{
		ExternalID: uuid.NewString(),
		UserID:     userID,
		Title:      title,
		Messages:   messages,
		UpdatedAt:  r.now(),
	}

	query := `
INSERT INTO chat_sessions (external_id, user_id, title, messages, updated_at)
VALUES (?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, query,
		session.ExternalID, session.UserID, session.Title, session.Messages,
		session.UpdatedAt.Format(time.RFC3339))
	if err != nil {
		return ChatSession{}, fmt.Errorf("create chat session: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return ChatSession{}, fmt.Errorf("read chat session id: %w", err)
	}
	session.ID = id
	return session, nil
}

// Update replaces title and messages, leaving either unchanged when empty.
// Returns ErrNotFound for a missing session and ErrNotOwned when userID does
// not match the session owner.
func (r *SessionRepository) Update(ctx context.Context, id int64, userID int64, title string, messages string) (ChatSession, error) {
	session, err := r.get(ctx, id)
	if err != nil {
		return ChatSession{}, err
	}
	if session.UserID != userID {
		return ChatSession{}, ErrNotOwned
	}

	if title != "" {
		session.Title = title
	}
	if messages != "" {
		session.Messages = messages
	}
	session.UpdatedAt = r.now()

	query := `
UPDATE chat_sessions
SET title = ?, messages = ?, updated_at = ?
WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query,
		session.Title, session.Messages, session.UpdatedAt.Format(time.RFC3339), id); err != nil {
		return ChatSession{}, fmt.Errorf("update chat session: %w", err)
	}
	return session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id int64, userID int64) error {
	session, err := r.get(ctx, id)
	if err != nil {
		return err
	}
	if session.UserID != userID {
		return ErrNotOwned
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete chat session: %w", err)
	}
	return nil
}

func (r *SessionRepository) get(ctx context.Context, id int64) (ChatSession, error) {
	query := `
SELECT id, external_id, user_id, title, messages, updated_at
FROM chat_sessions
WHERE id = ?`

	session, err := scanSession(r.db.QueryRowContext(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ChatSession{}, ErrNotFound
		}
		return ChatSession{}, err
	}
	return session, nil
}

func scanSession(scan func(...any) error) (ChatSession, error) {
	var session ChatSession
	var updatedAt string
	if err := scan(
		&session.ID,
		&session.ExternalID,
		&session.UserID,
		&session.Title,
		&session.Messages,
		&updatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ChatSession{}, err
		}
		return ChatSession{}, fmt.Errorf("scan chat session: %w", err)
	}
	parsed, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return ChatSession{}, fmt.Errorf("parse chat session timestamp: %w", err)
	}
	session.UpdatedAt = parsed
	return session, nil
}
