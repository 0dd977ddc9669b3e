package order

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

// Create inserts an order and its items in one transaction.
func (r *Repository) Create(ctx context.Context, o *Order, items []Item) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.CreateTx(ctx, tx, o, items); err != nil {
		return err
	}
	return tx.Commit()
}

// CreateTx inserts the order and its items inside the caller's
// transaction; checkout uses it to land orders in the payment commit.
func (r *Repository) CreateTx(ctx context.Context, tx *sqlx.Tx, o *Order, items []Item) error {
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO orders (checkout_id, buyer_npub, seller_npub, escrow_id, amount, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING id, status, created_at
	`, o.CheckoutID, o.BuyerNpub, o.SellerNpub, o.EscrowID, o.Amount).
		Scan(&o.ID, &o.Status, &o.CreatedAt)
	if err != nil {
		return err
	}

	for i := range items {
		items[i].OrderID = o.ID
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, listing_id, price)
			VALUES ($1, $2, $3)
			RETURNING id
		`, items[i].OrderID, items[i].ListingID, items[i].Price).Scan(&items[i].ID)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Order, error) {
	var o Order
	err := r.db.GetContext(ctx, &o, `
		SELECT id, checkout_id, buyer_npub, seller_npub, escrow_id, amount, status,
		       tracking_info, shipped_at, completed_at, created_at
		FROM orders
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *Repository) Items(ctx context.Context, orderID uuid.UUID) ([]Item, error) {
	items := []Item{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, order_id, listing_id, price
		FROM order_items
		WHERE order_id = $1
	`, orderID)
	return items, err
}

func (r *Repository) ListByBuyer(ctx context.Context, npub string) ([]Order, error) {
	orders := []Order{}
	err := r.db.SelectContext(ctx, &orders, `
		SELECT id, checkout_id, buyer_npub, seller_npub, escrow_id, amount, status,
		       tracking_info, shipped_at, completed_at, created_at
		FROM orders
		WHERE buyer_npub = $1
		ORDER BY created_at DESC
	`, npub)
	return orders, err
}

func (r *Repository) ListBySeller(ctx context.Context, npub string) ([]Order, error) {
	orders := []Order{}
	err := r.db.SelectContext(ctx, &orders, `
		SELECT id, checkout_id, buyer_npub, seller_npub, escrow_id, amount, status,
		       tracking_info, shipped_at, completed_at, created_at
		FROM orders
		WHERE seller_npub = $1
		ORDER BY created_at DESC
	`, npub)
	return orders, err
}

// MarkShipped records tracking info on a pending order. The conditional
// update keeps a racing confirm or dispute from being overwritten.
func (r *Repository) MarkShipped(ctx context.Context, id uuid.UUID, tracking string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = 'shipped', tracking_info = $1, shipped_at = now()
		WHERE id = $2 AND status = 'pending'
	`, tracking, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrCannotShip
	}
	return nil
}

// SetDisputed flags the order while its escrow is under dispute.
func (r *Repository) SetDisputed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = 'disputed' WHERE id = $1 AND status IN ('pending', 'shipped')
	`, id)
	return err
}
