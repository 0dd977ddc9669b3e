package listing

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, l *Listing) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO listings (seller_npub, title, description, category, price, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, l.SellerNpub, l.Title, l.Description, l.Category, l.Price, l.Status).
		Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Listing, error) {
	var l Listing
	err := r.db.GetContext(ctx, &l, `
		SELECT id, seller_npub, title, description, category, price, status, created_at, updated_at
		FROM listings
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// GetMany returns listings for the given IDs. Missing IDs are simply
// absent from the result; callers decide whether that is an error.
func (r *Repository) GetMany(ctx context.Context, ids []uuid.UUID) ([]Listing, error) {
	if len(ids) == 0 {
		return []Listing{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, seller_npub, title, description, category, price, status, created_at, updated_at
		FROM listings
		WHERE id IN (?)
	`, ids)
	if err != nil {
		return nil, err
	}

	listings := []Listing{}
	err = r.db.SelectContext(ctx, &listings, r.db.Rebind(query), args...)
	return listings, err
}

func (r *Repository) ListActive(ctx context.Context, category string, limit, offset int) ([]Listing, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	listings := []Listing{}
	if category != "" {
		err := r.db.SelectContext(ctx, &listings, `
			SELECT id, seller_npub, title, description, category, price, status, created_at, updated_at
			FROM listings
			WHERE status = 'active' AND category = $1
			ORDER BY created_at DESC
			LIMIT $2 OFFSET $3
		`, category, limit, offset)
		return listings, err
	}

	err := r.db.SelectContext(ctx, &listings, `
		SELECT id, seller_npub, title, description, category, price, status, created_at, updated_at
		FROM listings
		WHERE status = 'active'
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return listings, err
}

func (r *Repository) ListBySeller(ctx context.Context, sellerNpub string) ([]Listing, error) {
	listings := []Listing{}
	err := r.db.SelectContext(ctx, &listings, `
		SELECT id, seller_npub, title, description, category, price, status, created_at, updated_at
		FROM listings
		WHERE seller_npub = $1
		ORDER BY created_at DESC
	`, sellerNpub)
	return listings, err
}

func (r *Repository) SetStatus(ctx context.Context, id uuid.UUID, status string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE listings SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
