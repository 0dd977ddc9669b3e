package escrow

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/satmarket/satmarket-api/internal/domain/wallet"
)

// Repository owns every escrow state transition. All transitions run in
// a single transaction that locks the escrow row, so two concurrent
// calls on the same escrow serialize and the loser sees the new state.
type Repository struct {
	db      *sqlx.DB
	wallets *wallet.Repository
}

func NewRepository(db *sqlx.DB, wallets *wallet.Repository) *Repository {
	return &Repository{db: db, wallets: wallets}
}

// Create debits the buyer and opens a held escrow atomically. The wallet
// never shows a balance with the funds both spendable and escrowed.
func (r *Repository) Create(ctx context.Context, buyerNpub, sellerNpub string, amount int64, holdFor time.Duration) (*Escrow, error) {
	tx, err := r.wallets.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	e, err := r.CreateTx(ctx, tx, buyerNpub, sellerNpub, amount, holdFor)
	if err != nil {
		return nil, err
	}
	return e, tx.Commit()
}

// CreateTx is Create inside the caller's transaction, so checkout can
// settle payment, escrows, and orders in one commit.
func (r *Repository) CreateTx(ctx context.Context, tx *sqlx.Tx, buyerNpub, sellerNpub string, amount int64, holdFor time.Duration) (*Escrow, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	id := uuid.New()
	if _, err := r.wallets.DebitTx(ctx, tx, buyerNpub, amount, wallet.KindEscrowHold, id.String()); err != nil {
		return nil, err
	}

	var e Escrow
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO escrows (id, buyer_npub, seller_npub, amount, status, auto_release_at)
		VALUES ($1, $2, $3, $4, 'held', $5)
		RETURNING id, buyer_npub, seller_npub, amount, status, auto_release_at, created_at, resolved_at
	`, id, buyerNpub, sellerNpub, amount, time.Now().Add(holdFor)).StructScan(&e)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Escrow, error) {
	var e Escrow
	err := r.db.GetContext(ctx, &e, `
		SELECT id, buyer_npub, seller_npub, amount, status, auto_release_at, created_at, resolved_at
		FROM escrows
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *Repository) lockEscrow(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*Escrow, error) {
	var e Escrow
	err := tx.GetContext(ctx, &e, `
		SELECT id, buyer_npub, seller_npub, amount, status, auto_release_at, created_at, resolved_at
		FROM escrows
		WHERE id = $1
		FOR UPDATE
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// orderOutcome is the terminal state a closed escrow pushes onto its
// linked order. The order package imports escrow, so the literals live
// here rather than as order status constants.
type orderOutcome string

const (
	orderCompleted orderOutcome = "completed"
	orderRefunded  orderOutcome = "refunded"
)

func (r *Repository) finishEscrow(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, status Status, outcome orderOutcome) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE escrows SET status = $1, resolved_at = now() WHERE id = $2
	`, string(status), id); err != nil {
		return err
	}

	if outcome == orderCompleted {
		_, err := tx.ExecContext(ctx, `
			UPDATE orders SET status = 'completed', completed_at = now() WHERE escrow_id = $1
		`, id)
		return err
	}
	_, err := tx.ExecContext(ctx, `
		UPDATE orders SET status = $1 WHERE escrow_id = $2
	`, string(outcome), id)
	return err
}

// Release pays the full escrow amount to the seller and completes the
// linked order. Only a held escrow can be released.
func (r *Repository) Release(ctx context.Context, id uuid.UUID) error {
	tx, err := r.wallets.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	e, err := r.lockEscrow(ctx, tx, id)
	if err != nil {
		return err
	}
	if e.Status != StatusHeld {
		return ErrAlreadyReleased
	}

	if _, err := r.wallets.CreditTx(ctx, tx, e.SellerNpub, e.Amount, wallet.KindEscrowRelease, id.String()); err != nil {
		return err
	}

	if err := r.finishEscrow(ctx, tx, id, StatusReleased, orderCompleted); err != nil {
		return err
	}

	return tx.Commit()
}

// Refund returns the full escrow amount to the buyer. Allowed from held
// and disputed states; disputes resolved buyer_full go through
// ResolveDispute instead, this is the direct administrative path.
func (r *Repository) Refund(ctx context.Context, id uuid.UUID) error {
	tx, err := r.wallets.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	e, err := r.lockEscrow(ctx, tx, id)
	if err != nil {
		return err
	}
	if e.Status != StatusHeld && e.Status != StatusDisputed {
		return ErrAlreadyRefunded
	}

	if _, err := r.wallets.CreditTx(ctx, tx, e.BuyerNpub, e.Amount, wallet.KindEscrowRefund, id.String()); err != nil {
		return err
	}

	if err := r.finishEscrow(ctx, tx, id, StatusRefunded, orderRefunded); err != nil {
		return err
	}

	return tx.Commit()
}

// MarkDisputed moves a held escrow to disputed, freezing auto-release.
// A no-op when the escrow is in any other state: the dispute flow
// tolerates racing against a concurrent release.
func (r *Repository) MarkDisputed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE escrows SET status = 'disputed' WHERE id = $1 AND status = 'held'
	`, id)
	return err
}

// ResolveDispute splits a disputed escrow per the resolution and closes
// it. Credits, escrow state, and order state commit together or not at
// all; remainder sats from integer division are destroyed.
func (r *Repository) ResolveDispute(ctx context.Context, id uuid.UUID, res Resolution) error {
	tx, err := r.wallets.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := r.ResolveDisputeTx(ctx, tx, id, res); err != nil {
		return err
	}
	return tx.Commit()
}

// ResolveDisputeTx is ResolveDispute inside the caller's transaction, so
// the dispute record can close in the same commit as the payout.
func (r *Repository) ResolveDisputeTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, res Resolution) error {
	e, err := r.lockEscrow(ctx, tx, id)
	if err != nil {
		return err
	}
	if e.Status != StatusDisputed {
		return ErrNotDisputed
	}

	buyerAmount, sellerAmount, _ := res.Amounts(e.Amount)

	if buyerAmount > 0 {
		if _, err := r.wallets.CreditTx(ctx, tx, e.BuyerNpub, buyerAmount, wallet.KindEscrowRefund, id.String()); err != nil {
			return err
		}
	}
	if sellerAmount > 0 {
		if _, err := r.wallets.CreditTx(ctx, tx, e.SellerNpub, sellerAmount, wallet.KindEscrowRelease, id.String()); err != nil {
			return err
		}
	}

	status, outcome := StatusReleased, orderCompleted
	if res.RefundsBuyerInFull() {
		status, outcome = StatusRefunded, orderRefunded
	}
	return r.finishEscrow(ctx, tx, id, status, outcome)
}

// DueForRelease returns held escrows whose hold deadline has passed.
func (r *Repository) DueForRelease(ctx context.Context, now time.Time, limit int) ([]Escrow, error) {
	if limit <= 0 {
		limit = 100
	}

	escrows := []Escrow{}
	err := r.db.SelectContext(ctx, &escrows, `
		SELECT id, buyer_npub, seller_npub, amount, status, auto_release_at, created_at, resolved_at
		FROM escrows
		WHERE status = 'held' AND auto_release_at <= $1
		ORDER BY auto_release_at
		LIMIT $2
	`, now, limit)
	return escrows, err
}
