package seller

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// HasBond reports whether the seller holds a bond covering the category.
// An "all" bond covers everything.
func (r *Repository) HasBond(ctx context.Context, npub, category string) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT count(*) FROM seller_category_access
		WHERE npub = $1 AND category IN ($2, 'all')
	`, npub, category)
	return count > 0, err
}

func (r *Repository) Create(ctx context.Context, a *CategoryAccess) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO seller_category_access (npub, category, amount_paid)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, a.Npub, a.Category, a.AmountPaid).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrBondAlreadyPaid
		}
		return err
	}
	return nil
}

func (r *Repository) List(ctx context.Context, npub string) ([]CategoryAccess, error) {
	access := []CategoryAccess{}
	err := r.db.SelectContext(ctx, &access, `
		SELECT id, npub, category, amount_paid, created_at
		FROM seller_category_access
		WHERE npub = $1
		ORDER BY created_at
	`, npub)
	return access, err
}
