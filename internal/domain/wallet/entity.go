package wallet

import (
	"time"

	"github.com/google/uuid"
)

// Kind classifies a ledger entry. The sign of the amount is implied by
// the kind but stored explicitly so the ledger sums without a lookup table.
type Kind string

const (
	KindDeposit       Kind = "deposit"
	KindWithdraw      Kind = "withdraw"
	KindPayment       Kind = "payment"
	KindReceipt       Kind = "receipt"
	KindFee           Kind = "fee"
	KindBond          Kind = "bond"
	KindEscrowHold    Kind = "escrow_hold"
	KindEscrowRelease Kind = "escrow_release"
	KindEscrowRefund  Kind = "escrow_refund"
)

// Wallet is a user's spendable sat balance. One row per npub.
type Wallet struct {
	Npub      string    `db:"npub" json:"npub"`
	Balance   int64     `db:"balance" json:"balance"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Transaction is an append-only ledger entry. Amount is signed: credits
// positive, debits negative. BalanceAfter snapshots the wallet balance
// immediately after this entry was applied.
type Transaction struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Npub         string    `db:"npub" json:"npub"`
	Kind         Kind      `db:"kind" json:"kind"`
	Amount       int64     `db:"amount" json:"amount"`
	BalanceAfter int64     `db:"balance_after" json:"balance_after"`
	ReferenceID  *string   `db:"reference_id" json:"reference_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
