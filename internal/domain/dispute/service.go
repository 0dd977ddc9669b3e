package dispute

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/satmarket/satmarket-api/internal/domain/escrow"
	"github.com/satmarket/satmarket-api/internal/domain/order"
	"github.com/satmarket/satmarket-api/internal/pkg/storage"
)

type Service struct {
	repo       *Repository
	orders     *order.Repository
	escrows    *escrow.Service
	store      storage.Storage
	windowDays int
}

func NewService(repo *Repository, orders *order.Repository, escrows *escrow.Service, store storage.Storage, windowDays int) *Service {
	if windowDays <= 0 {
		windowDays = 10
	}
	return &Service{
		repo:       repo,
		orders:     orders,
		escrows:    escrows,
		store:      store,
		windowDays: windowDays,
	}
}

// Open starts a dispute on an order. The escrow is frozen first so the
// auto-release sweep can never pay out while the dispute row is landing.
func (s *Service) Open(ctx context.Context, npub string, orderID uuid.UUID, reason string) (*Dispute, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerNpub != npub && o.SellerNpub != npub {
		return nil, ErrNotParticipant
	}
	if !o.CanDispute() {
		return nil, ErrCannotDispute
	}

	if err := s.escrows.MarkDisputed(ctx, o.EscrowID); err != nil {
		return nil, err
	}

	d := &Dispute{
		OrderID:       orderID,
		EscrowID:      o.EscrowID,
		InitiatedBy:   npub,
		Reason:        reason,
		AutoResolveAt: time.Now().Add(time.Duration(s.windowDays) * 24 * time.Hour),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}

	if err := s.orders.SetDisputed(ctx, orderID); err != nil {
		log.Error().Err(err).Str("order_id", orderID.String()).Msg("failed to flag disputed order")
	}

	log.Info().
		Str("dispute_id", d.ID.String()).
		Str("order_id", orderID.String()).
		Str("initiated_by", npub).
		Time("auto_resolve_at", d.AutoResolveAt).
		Msg("dispute opened")
	return d, nil
}

func (s *Service) Get(ctx context.Context, npub string, id uuid.UUID, isAdmin bool) (*Dispute, []Evidence, error) {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if !isAdmin {
		o, err := s.orders.Get(ctx, d.OrderID)
		if err != nil {
			return nil, nil, err
		}
		if o.BuyerNpub != npub && o.SellerNpub != npub {
			return nil, nil, ErrNotParticipant
		}
	}

	evidence, err := s.repo.ListEvidence(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return d, evidence, nil
}

func (s *Service) ListOpen(ctx context.Context, limit, offset int) ([]Dispute, error) {
	return s.repo.ListOpen(ctx, limit, offset)
}

// SubmitText attaches a written statement to an open dispute.
func (s *Service) SubmitText(ctx context.Context, npub string, disputeID uuid.UUID, content string) (*Evidence, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrInvalidEvidence
	}
	return s.submit(ctx, npub, disputeID, EvidenceText, content)
}

// SubmitImage uploads the image and attaches its URL as evidence.
func (s *Service) SubmitImage(ctx context.Context, npub string, disputeID uuid.UUID, r io.Reader, contentType string) (*Evidence, error) {
	key := fmt.Sprintf("disputes/%s/%s", disputeID, uuid.New())
	if err := s.store.Put(ctx, key, r, contentType); err != nil {
		return nil, err
	}
	return s.submit(ctx, npub, disputeID, EvidenceImage, s.store.GetURL(key))
}

func (s *Service) submit(ctx context.Context, npub string, disputeID uuid.UUID, evidenceType, content string) (*Evidence, error) {
	d, err := s.repo.Get(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if !d.IsOpen() {
		return nil, ErrAlreadyResolved
	}

	o, err := s.orders.Get(ctx, d.OrderID)
	if err != nil {
		return nil, err
	}
	if o.BuyerNpub != npub && o.SellerNpub != npub {
		return nil, ErrNotParticipant
	}

	e := &Evidence{
		DisputeID:   disputeID,
		SubmittedBy: npub,
		Type:        evidenceType,
		Content:     content,
	}
	if err := s.repo.AddEvidence(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Resolve applies an adjudicator's ruling. The escrow payout and the
// dispute closure run in one transaction: either the funds move and the
// dispute closes, or neither happens.
func (s *Service) Resolve(ctx context.Context, adjudicator string, id uuid.UUID, resolution, notes string) error {
	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !d.IsOpen() {
		return ErrAlreadyResolved
	}

	res, err := escrow.ParseResolution(resolution)
	if err != nil {
		return err
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.escrows.ResolveDisputeTx(ctx, tx, d.EscrowID, res); err != nil {
		return err
	}
	if err := s.repo.MarkResolvedTx(ctx, tx, id, res.String(), adjudicator, notes); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	log.Info().
		Str("dispute_id", id.String()).
		Str("resolution", res.String()).
		Str("resolved_by", adjudicator).
		Msg("dispute resolved")
	return nil
}
