package escrow

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusHeld     Status = "held"
	StatusReleased Status = "released"
	StatusRefunded Status = "refunded"
	StatusDisputed Status = "disputed"
)

// Escrow holds buyer funds for a single seller until release, refund, or
// dispute resolution. Funds leave the buyer's wallet the moment the escrow
// row is created; they exist nowhere else until a terminal transition.
type Escrow struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	BuyerNpub     string     `db:"buyer_npub" json:"buyer_npub"`
	SellerNpub    string     `db:"seller_npub" json:"seller_npub"`
	Amount        int64      `db:"amount" json:"amount"`
	Status        Status     `db:"status" json:"status"`
	AutoReleaseAt time.Time  `db:"auto_release_at" json:"auto_release_at"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt    *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// ShouldAutoRelease reports whether the hold deadline has passed for an
// escrow still in held state. Disputed escrows never auto-release.
func (e *Escrow) ShouldAutoRelease(now time.Time) bool {
	return e.Status == StatusHeld && !now.Before(e.AutoReleaseAt)
}
