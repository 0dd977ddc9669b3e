package order

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusPending   = "pending"
	StatusShipped   = "shipped"
	StatusCompleted = "completed"
	StatusDisputed  = "disputed"
	StatusRefunded  = "refunded"
)

// Order groups one checkout's items for a single seller. Its lifecycle is
// driven by the escrow that funds it: release completes the order, refund
// refunds it.
type Order struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	CheckoutID   uuid.UUID  `db:"checkout_id" json:"checkout_id"`
	BuyerNpub    string     `db:"buyer_npub" json:"buyer_npub"`
	SellerNpub   string     `db:"seller_npub" json:"seller_npub"`
	EscrowID     uuid.UUID  `db:"escrow_id" json:"escrow_id"`
	Amount       int64      `db:"amount" json:"amount"`
	Status       string     `db:"status" json:"status"`
	TrackingInfo *string    `db:"tracking_info" json:"tracking_info,omitempty"`
	ShippedAt    *time.Time `db:"shipped_at" json:"shipped_at,omitempty"`
	CompletedAt  *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Item is one purchased listing at its locked price.
type Item struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	ListingID uuid.UUID `db:"listing_id" json:"listing_id"`
	Price     int64     `db:"price" json:"price"`
}

func (o *Order) CanShip() bool {
	return o.Status == StatusPending
}

func (o *Order) CanConfirm() bool {
	return o.Status == StatusPending || o.Status == StatusShipped
}

func (o *Order) CanDispute() bool {
	return o.Status == StatusPending || o.Status == StatusShipped
}
