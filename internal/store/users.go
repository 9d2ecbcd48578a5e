package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user User) (User, error) {
	query := `
INSERT INTO users (email, phone, first_name, last_name, gender, username, password_hash)
VALUES (?, ?, ?, ?, ?, ?, ?)`

	phone := sql.NullString{String: user.Phone, Valid: user.Phone != ""}
	result, err := r.db.ExecContext(ctx, query,
		user.Email, phone, user.FirstName, user.LastName, user.Gender, user.Username, user.PasswordHash)
	if err != nil {
		return User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("read user id: %w", err)
	}
	user.ID = id
	return user, nil
}

// GetByIdentifier looks a user up by email or username, whichever matches.
func (r *UserRepository) GetByIdentifier(ctx context.Context, identifier string) (User, error) {
	query := `
SELECT id, email, COALESCE(phone, ''), first_name, last_name, gender, username, password_hash
FROM users
WHERE email = ? OR username = ?`

	var user User
	err := r.db.QueryRowContext(ctx, query, identifier, identifier).Scan(
		&user.ID,
		&user.Email,
		&user.Phone,
		&user.FirstName,
		&user.LastName,
		&user.Gender,
		&user.Username,
		&user.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, fmt.Errorf("get user by identifier: %w", err)
	}
	return user, nil
}

func (r *UserRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE email = ?`, email)
}

func (r *UserRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE phone = ?`, phone)
}

func (r *UserRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM users WHERE username = ?`, username)
}

func (r *UserRepository) exists(ctx context.Context, query string, arg string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check existence: %w", err)
	}
	return true, nil
}
