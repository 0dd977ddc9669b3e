package user

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Ensure creates the user row on first contact and bumps last_active_at
// on every subsequent call.
func (r *Repository) Ensure(ctx context.Context, npub, role string) error {
	if npub == "" {
		return ErrInvalidNpub
	}
	if role == "" {
		role = RoleBuyer
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (npub, role)
		VALUES ($1, $2)
		ON CONFLICT (npub) DO UPDATE SET last_active_at = now()
	`, npub, role)
	return err
}

func (r *Repository) Get(ctx context.Context, npub string) (*User, error) {
	var u User
	err := r.db.GetContext(ctx, &u, `
		SELECT npub, role, created_at, last_active_at
		FROM users
		WHERE npub = $1
	`, npub)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
