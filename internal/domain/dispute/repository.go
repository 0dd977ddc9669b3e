package dispute

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

const disputeColumns = `id, order_id, escrow_id, initiated_by, reason, status, resolution,
	resolution_notes, resolved_by, warning_sent_at, auto_resolve_at, created_at, resolved_at`

// Create inserts an open dispute. A partial unique index on
// disputes(order_id) WHERE status = 'open' backs the one-open-dispute rule.
func (r *Repository) Create(ctx context.Context, d *Dispute) error {
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO disputes (order_id, escrow_id, initiated_by, reason, status, auto_resolve_at)
		VALUES ($1, $2, $3, $4, 'open', $5)
		RETURNING id, status, created_at
	`, d.OrderID, d.EscrowID, d.InitiatedBy, d.Reason, d.AutoResolveAt).
		Scan(&d.ID, &d.Status, &d.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrAlreadyOpen
		}
		return err
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id uuid.UUID) (*Dispute, error) {
	var d Dispute
	err := r.db.GetContext(ctx, &d, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *Repository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*Dispute, error) {
	var d Dispute
	err := r.db.GetContext(ctx, &d, `
		SELECT `+disputeColumns+`
		FROM disputes
		WHERE order_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListOpen returns open disputes, oldest deadline first, for the admin queue.
func (r *Repository) ListOpen(ctx context.Context, limit, offset int) ([]Dispute, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	disputes := []Dispute{}
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT `+disputeColumns+`
		FROM disputes
		WHERE status = 'open'
		ORDER BY auto_resolve_at
		LIMIT $1 OFFSET $2
	`, limit, offset)
	return disputes, err
}

// BeginTx starts the transaction a resolve spans: the escrow payout and
// the dispute closure commit together.
func (r *Repository) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

// MarkResolvedTx closes an open dispute inside the caller's transaction.
// The WHERE status = 'open' guard makes a second resolve lose the race
// cleanly.
func (r *Repository) MarkResolvedTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, resolution, resolvedBy, notes string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE disputes
		SET status = 'resolved', resolution = $1, resolved_by = $2, resolution_notes = $3, resolved_at = now()
		WHERE id = $4 AND status = 'open'
	`, resolution, resolvedBy, notes, id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyResolved
	}
	return nil
}

func (r *Repository) AddEvidence(ctx context.Context, e *Evidence) error {
	return r.db.QueryRowxContext(ctx, `
		INSERT INTO dispute_evidence (dispute_id, submitted_by, evidence_type, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, e.DisputeID, e.SubmittedBy, e.Type, e.Content).
		Scan(&e.ID, &e.CreatedAt)
}

func (r *Repository) ListEvidence(ctx context.Context, disputeID uuid.UUID) ([]Evidence, error) {
	evidence := []Evidence{}
	err := r.db.SelectContext(ctx, &evidence, `
		SELECT id, dispute_id, submitted_by, evidence_type, content, created_at
		FROM dispute_evidence
		WHERE dispute_id = $1
		ORDER BY created_at
	`, disputeID)
	return evidence, err
}

// ListNeedingWarning returns open disputes inside the warning window that
// have not been warned yet.
func (r *Repository) ListNeedingWarning(ctx context.Context, now time.Time) ([]Dispute, error) {
	disputes := []Dispute{}
	err := r.db.SelectContext(ctx, &disputes, `
		SELECT `+disputeColumns+`
		FROM disputes
		WHERE status = 'open' AND warning_sent_at IS NULL AND auto_resolve_at <= $1
	`, now.Add(warningLeadTime))
	return disputes, err
}

func (r *Repository) MarkWarningSent(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE disputes SET warning_sent_at = now() WHERE id = $1 AND warning_sent_at IS NULL
	`, id)
	return err
}

// CountOverdue counts open disputes past their deadline.
func (r *Repository) CountOverdue(ctx context.Context, now time.Time) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `
		SELECT count(*) FROM disputes WHERE status = 'open' AND auto_resolve_at <= $1
	`, now)
	return count, err
}
