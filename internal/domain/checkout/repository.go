package checkout

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/satmarket/satmarket-api/internal/domain/listing"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AddToCart(ctx context.Context, npub string, listingID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cart_items (npub, listing_id)
		VALUES ($1, $2)
	`, npub, listingID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyInCart
		}
		return err
	}
	return nil
}

func (r *Repository) RemoveFromCart(ctx context.Context, npub string, listingID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE npub = $1 AND listing_id = $2
	`, npub, listingID)
	return err
}

func (r *Repository) CartItems(ctx context.Context, npub string) ([]CartItem, error) {
	items := []CartItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, npub, listing_id, created_at
		FROM cart_items
		WHERE npub = $1
		ORDER BY created_at
	`, npub)
	return items, err
}

func (r *Repository) ClearCart(ctx context.Context, npub string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE npub = $1`, npub)
	return err
}

// PendingSession returns the buyer's unexpired pending session, if any.
func (r *Repository) PendingSession(ctx context.Context, npub string, now time.Time) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, `
		SELECT id, npub, status, total_amount, fee_amount, created_at, expires_at, paid_at
		FROM checkout_sessions
		WHERE npub = $1 AND status = 'pending' AND expires_at > $2
		ORDER BY created_at DESC
		LIMIT 1
	`, npub, now)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSession snapshots the given listings into a new pending session.
// A partial unique index on checkout_sessions(npub) WHERE status =
// 'pending' backs the one-pending-session rule; the loser of a racing
// start gets ErrAlreadyStarted.
func (r *Repository) CreateSession(ctx context.Context, npub string, listings []listing.Listing, feePercent int64, lockFor time.Duration) (*Session, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var total int64
	for _, l := range listings {
		total += l.Price
	}
	fee := total * feePercent / 100

	var s Session
	err = tx.QueryRowxContext(ctx, `
		INSERT INTO checkout_sessions (npub, status, total_amount, fee_amount, expires_at)
		VALUES ($1, 'pending', $2, $3, $4)
		RETURNING id, npub, status, total_amount, fee_amount, created_at, expires_at, paid_at
	`, npub, total, fee, time.Now().Add(lockFor)).StructScan(&s)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrAlreadyStarted
		}
		return nil, err
	}

	for _, l := range listings {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO checkout_session_items (session_id, listing_id, seller_npub, locked_price)
			VALUES ($1, $2, $3, $4)
		`, s.ID, l.ID, l.SellerNpub, l.Price); err != nil {
			return nil, err
		}
	}

	return &s, tx.Commit()
}

func (r *Repository) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	var s Session
	err := r.db.GetContext(ctx, &s, `
		SELECT id, npub, status, total_amount, fee_amount, created_at, expires_at, paid_at
		FROM checkout_sessions
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// LockSession reads the session under FOR UPDATE inside the caller's
// transaction. Payment serializes on this lock.
func (r *Repository) LockSession(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Session, error) {
	var s Session
	err := tx.GetContext(ctx, &s, `
		SELECT id, npub, status, total_amount, fee_amount, created_at, expires_at, paid_at
		FROM checkout_sessions
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) SessionItems(ctx context.Context, sessionID uuid.UUID) ([]SessionItem, error) {
	items := []SessionItem{}
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, session_id, listing_id, seller_npub, locked_price
		FROM checkout_session_items
		WHERE session_id = $1
	`, sessionID)
	return items, err
}

func (r *Repository) MarkPaidTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE checkout_sessions SET status = 'paid', paid_at = now() WHERE id = $1
	`, id)
	return err
}

func (r *Repository) MarkExpired(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE checkout_sessions SET status = 'expired' WHERE id = $1 AND status = 'pending'
	`, id)
	return err
}

// ExpireStale flips the buyer's lapsed pending sessions, clearing the
// one-pending-session index before a new session is created.
func (r *Repository) ExpireStale(ctx context.Context, npub string, now time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE checkout_sessions SET status = 'expired'
		WHERE npub = $1 AND status = 'pending' AND expires_at <= $2
	`, npub, now)
	return err
}
