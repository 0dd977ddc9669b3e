package dispute

import (
	"time"

	"github.com/google/uuid"
)

const (
	StatusOpen     = "open"
	StatusResolved = "resolved"
)

const (
	EvidenceText  = "text"
	EvidenceImage = "image"
)

// warningLeadTime is how far before the auto-resolve deadline the warning
// sweep starts nagging the parties.
const warningLeadTime = 7 * 24 * time.Hour

// Dispute freezes an escrow until an adjudicator resolves it. The linked
// escrow sits in disputed state for the dispute's whole open lifetime.
type Dispute struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	OrderID         uuid.UUID  `db:"order_id" json:"order_id"`
	EscrowID        uuid.UUID  `db:"escrow_id" json:"escrow_id"`
	InitiatedBy     string     `db:"initiated_by" json:"initiated_by"`
	Reason          string     `db:"reason" json:"reason"`
	Status          string     `db:"status" json:"status"`
	Resolution      *string    `db:"resolution" json:"resolution,omitempty"`
	ResolutionNotes *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	ResolvedBy      *string    `db:"resolved_by" json:"resolved_by,omitempty"`
	WarningSentAt   *time.Time `db:"warning_sent_at" json:"warning_sent_at,omitempty"`
	AutoResolveAt   time.Time  `db:"auto_resolve_at" json:"auto_resolve_at"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt      *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// Evidence is a text statement or an uploaded image URL attached to an
// open dispute by one of the parties.
type Evidence struct {
	ID          uuid.UUID `db:"id" json:"id"`
	DisputeID   uuid.UUID `db:"dispute_id" json:"dispute_id"`
	SubmittedBy string    `db:"submitted_by" json:"submitted_by"`
	Type        string    `db:"evidence_type" json:"evidence_type"`
	Content     string    `db:"content" json:"content"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

func (d *Dispute) IsOpen() bool {
	return d.Status == StatusOpen
}

// IsOverdue reports whether the dispute passed its deadline without a
// ruling. Overdue disputes are surfaced to admins, never auto-decided.
func (d *Dispute) IsOverdue(now time.Time) bool {
	return d.IsOpen() && !now.Before(d.AutoResolveAt)
}

// NeedsWarning reports whether the parties should be warned that the
// deadline is near.
func (d *Dispute) NeedsWarning(now time.Time) bool {
	return d.IsOpen() && d.WarningSentAt == nil && now.After(d.AutoResolveAt.Add(-warningLeadTime))
}
