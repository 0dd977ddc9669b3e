package seller

import (
	"time"

	"github.com/google/uuid"
)

const (
	CategoryDigital  = "digital"
	CategoryPhysical = "physical"
	CategoryServices = "services"
	CategoryAll      = "all"
)

// CategoryAccess records a paid seller bond. The bond is a one-time,
// non-refundable payment that gates listing in the category; "all"
// covers every category at a higher price.
type CategoryAccess struct {
	ID         uuid.UUID `db:"id" json:"id"`
	Npub       string    `db:"npub" json:"npub"`
	Category   string    `db:"category" json:"category"`
	AmountPaid int64     `db:"amount_paid" json:"amount_paid"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
