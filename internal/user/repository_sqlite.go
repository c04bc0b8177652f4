package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

type sqliteRepo struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) Repository {
	return &sqliteRepo{db: db}
}

func (r *sqliteRepo) Create(ctx context.Context, u *User) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.CreatedAt,
	)
	if err != nil {
		msg := err.Error()
		switch {
		case strings.Contains(msg, "UNIQUE constraint failed: users.username"):
			return ErrDuplicateUsername
		case strings.Contains(msg, "UNIQUE constraint failed: users.email"):
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("read user id: %w", err)
	}
	u.ID = id
	return nil
}

func (r *sqliteRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, created_at FROM users WHERE username = ?`,
		username,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (r *sqliteRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`, username)
}

func (r *sqliteRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, email)
}
