package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Create(ctx context.Context, u *User) error {
	query := `INSERT INTO users (username, email, password_hash, created_at) VALUES ($1, $2, $3, $4) RETURNING id`

	err := r.db.QueryRowContext(ctx, query, u.Username, u.Email, u.PasswordHash, u.CreatedAt).Scan(&u.ID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			switch pqErr.Constraint {
			case "users_username_key":
				return ErrDuplicateUsername
			case "users_email_key":
				return ErrDuplicateEmail
			}
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *postgresRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	query := `SELECT id, username, email, password_hash, created_at FROM users WHERE username = $1`

	var u User
	err := r.db.QueryRowContext(ctx, query, username).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

func (r *postgresRepo) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)`, username)
}

func (r *postgresRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return exists(ctx, r.db, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email)
}

func exists(ctx context.Context, db *sql.DB, query string, arg string) (bool, error) {
	var found bool
	if err := db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return found, nil
}
