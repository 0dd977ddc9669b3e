package wallet

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// BeginTx starts a transaction suitable for multi-step wallet mutations.
// Escrow and checkout compose their own work with CreditTx/DebitTx inside it.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func (r *Repository) Ensure(ctx context.Context, npub string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_wallets (npub, balance)
		VALUES ($1, 0)
		ON CONFLICT (npub) DO NOTHING
	`, npub)
	return err
}

func (r *Repository) Balance(ctx context.Context, npub string) (int64, error) {
	if err := r.Ensure(ctx, npub); err != nil {
		return 0, err
	}

	var balance int64
	err := r.db.GetContext(ctx, &balance, `SELECT balance FROM user_wallets WHERE npub = $1`, npub)
	return balance, err
}

// BalanceTx reads the balance under a row lock. The wallet row is created
// if missing so a first-time user can still be locked consistently.
func (r *Repository) BalanceTx(ctx context.Context, tx *sqlx.Tx, npub string) (int64, error) {
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO user_wallets (npub, balance)
		VALUES ($1, 0)
		ON CONFLICT (npub) DO NOTHING
	`, npub); err != nil {
		return 0, err
	}

	var balance int64
	err := tx.GetContext(ctx, &balance, `SELECT balance FROM user_wallets WHERE npub = $1 FOR UPDATE`, npub)
	return balance, err
}

// CreditTx adds amount sats to the wallet inside the caller's transaction
// and appends the ledger entry. Returns the balance after the credit.
func (r *Repository) CreditTx(ctx context.Context, tx *sqlx.Tx, npub string, amount int64, kind Kind, referenceID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := r.BalanceTx(ctx, tx, npub)
	if err != nil {
		return 0, err
	}

	next := balance + amount
	if err := r.applyTx(ctx, tx, npub, amount, next, kind, referenceID); err != nil {
		return 0, err
	}
	return next, nil
}

// DebitTx removes amount sats from the wallet inside the caller's
// transaction. Fails with InsufficientFundsError when the balance would
// go negative; the ledger never records a mutation in that case.
func (r *Repository) DebitTx(ctx context.Context, tx *sqlx.Tx, npub string, amount int64, kind Kind, referenceID string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := r.BalanceTx(ctx, tx, npub)
	if err != nil {
		return 0, err
	}

	next := balance - amount
	if next < 0 {
		return 0, &InsufficientFundsError{Needed: amount, Available: balance}
	}

	if err := r.applyTx(ctx, tx, npub, -amount, next, kind, referenceID); err != nil {
		return 0, err
	}
	return next, nil
}

func (r *Repository) applyTx(ctx context.Context, tx *sqlx.Tx, npub string, amount, balanceAfter int64, kind Kind, referenceID string) error {
	if _, err := tx.ExecContext(ctx, `
		UPDATE user_wallets SET balance = $1, updated_at = now() WHERE npub = $2
	`, balanceAfter, npub); err != nil {
		return err
	}

	var ref interface{}
	if referenceID != "" {
		ref = referenceID
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO wallet_transactions (npub, kind, amount, balance_after, reference_id)
		VALUES ($1, $2, $3, $4, $5)
	`, npub, string(kind), amount, balanceAfter, ref)
	return err
}

// Credit applies a standalone credit in its own transaction.
func (r *Repository) Credit(ctx context.Context, npub string, amount int64, kind Kind, referenceID string) (int64, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balance, err := r.CreditTx(ctx, tx, npub, amount, kind, referenceID)
	if err != nil {
		return 0, err
	}
	return balance, tx.Commit()
}

// Debit applies a standalone debit in its own transaction.
func (r *Repository) Debit(ctx context.Context, npub string, amount int64, kind Kind, referenceID string) (int64, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balance, err := r.DebitTx(ctx, tx, npub, amount, kind, referenceID)
	if err != nil {
		return 0, err
	}
	return balance, tx.Commit()
}

// Transactions lists ledger entries for a user, newest first.
func (r *Repository) Transactions(ctx context.Context, npub string, limit, offset int) ([]Transaction, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	txs := []Transaction{}
	err := r.db.SelectContext(ctx, &txs, `
		SELECT id, npub, kind, amount, balance_after, reference_id, created_at
		FROM wallet_transactions
		WHERE npub = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`, npub, limit, offset)
	return txs, err
}
