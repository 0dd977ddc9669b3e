package listing

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusActive   = "active"
	StatusSold     = "sold"
	StatusDelisted = "delisted"
)

// Listing is an item for sale. Price is a sat amount snapshotted into
// checkout sessions; edits here never touch locked prices.
type Listing struct {
	ID          uuid.UUID `db:"id" json:"id"`
	SellerNpub  string    `db:"seller_npub" json:"seller_npub"`
	Title       string    `db:"title" json:"title"`
	Description string    `db:"description" json:"description"`
	Category    string    `db:"category" json:"category"`
	Price       int64     `db:"price" json:"price"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

func (l *Listing) IsAvailable() bool {
	return l.Status == StatusActive
}
