package checkout

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending = "pending"
	StatusPaid    = "paid"
	StatusExpired = "expired"
)

// CartItem is a listing the buyer intends to purchase. Prices are not
// locked at cart stage; they snapshot when a session starts.
type CartItem struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Npub      string    `db:"npub" json:"npub"`
	ListingID uuid.UUID `db:"listing_id" json:"listing_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Session is a price-locked checkout. TotalAmount is the sum of locked
// item prices, FeeAmount the marketplace cut on top of it. The lock
// holds until ExpiresAt; expiry is enforced at payment time.
type Session struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Npub        string     `db:"npub" json:"npub"`
	Status      string     `db:"status" json:"status"`
	TotalAmount int64      `db:"total_amount" json:"total_amount"`
	FeeAmount   int64      `db:"fee_amount" json:"fee_amount"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time  `db:"expires_at" json:"expires_at"`
	PaidAt      *time.Time `db:"paid_at" json:"paid_at,omitempty"`
}

// SessionItem is a listing captured into a session at its locked price.
type SessionItem struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SessionID   uuid.UUID `db:"session_id" json:"session_id"`
	ListingID   uuid.UUID `db:"listing_id" json:"listing_id"`
	SellerNpub  string    `db:"seller_npub" json:"seller_npub"`
	LockedPrice int64     `db:"locked_price" json:"locked_price"`
}

func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// Due is what the buyer pays: locked total plus marketplace fee.
func (s *Session) Due() int64 {
	return s.TotalAmount + s.FeeAmount
}
