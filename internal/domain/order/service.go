package order

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/satmarket/satmarket-api/internal/domain/escrow"
)

type Service struct {
	repo    *Repository
	escrows *escrow.Service
}

func NewService(repo *Repository, escrows *escrow.Service) *Service {
	return &Service{repo: repo, escrows: escrows}
}

func (s *Service) Get(ctx context.Context, npub string, id uuid.UUID) (*Order, []Item, error) {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if o.BuyerNpub != npub && o.SellerNpub != npub {
		return nil, nil, ErrNotYours
	}

	items, err := s.repo.Items(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return o, items, nil
}

func (s *Service) ListByBuyer(ctx context.Context, npub string) ([]Order, error) {
	return s.repo.ListByBuyer(ctx, npub)
}

func (s *Service) ListBySeller(ctx context.Context, npub string) ([]Order, error) {
	return s.repo.ListBySeller(ctx, npub)
}

// Confirm is the buyer's "received, all good". It releases the escrow,
// which pays the seller and completes the order in the same transaction.
func (s *Service) Confirm(ctx context.Context, buyerNpub string, id uuid.UUID) error {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.BuyerNpub != buyerNpub {
		return ErrNotYours
	}
	if !o.CanConfirm() {
		return ErrAlreadyCompleted
	}

	if err := s.escrows.Release(ctx, o.EscrowID); err != nil {
		if errors.Is(err, escrow.ErrAlreadyReleased) {
			return ErrAlreadyCompleted
		}
		return err
	}

	log.Info().Str("order_id", id.String()).Str("buyer", buyerNpub).Msg("order confirmed by buyer")
	return nil
}

// MarkShipped lets the seller attach tracking info to a pending order.
func (s *Service) MarkShipped(ctx context.Context, sellerNpub string, id uuid.UUID, tracking string) error {
	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if o.SellerNpub != sellerNpub {
		return ErrNotYours
	}
	if !o.CanShip() {
		return ErrCannotShip
	}

	if err := s.repo.MarkShipped(ctx, id, tracking); err != nil {
		return err
	}

	log.Info().Str("order_id", id.String()).Str("seller", sellerNpub).Msg("order marked shipped")
	return nil
}
