package escrow

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, buyerNpub, sellerNpub string, amount int64, holdFor time.Duration) (*Escrow, error) {
	e, err := s.repo.Create(ctx, buyerNpub, sellerNpub, amount, holdFor)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("escrow_id", e.ID.String()).
		Str("buyer", buyerNpub).
		Str("seller", sellerNpub).
		Int64("amount", amount).
		Time("auto_release_at", e.AutoReleaseAt).
		Msg("escrow created")
	return e, nil
}

// CreateTx opens the escrow inside the caller's transaction; checkout
// uses it to settle payment and escrows in one commit.
func (s *Service) CreateTx(ctx context.Context, tx *sqlx.Tx, buyerNpub, sellerNpub string, amount int64, holdFor time.Duration) (*Escrow, error) {
	e, err := s.repo.CreateTx(ctx, tx, buyerNpub, sellerNpub, amount, holdFor)
	if err != nil {
		return nil, err
	}
	log.Info().
		Str("escrow_id", e.ID.String()).
		Str("buyer", buyerNpub).
		Str("seller", sellerNpub).
		Int64("amount", amount).
		Time("auto_release_at", e.AutoReleaseAt).
		Msg("escrow created")
	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Escrow, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) Release(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Release(ctx, id); err != nil {
		return err
	}
	log.Info().Str("escrow_id", id.String()).Msg("escrow released")
	return nil
}

func (s *Service) Refund(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Refund(ctx, id); err != nil {
		return err
	}
	log.Info().Str("escrow_id", id.String()).Msg("escrow refunded")
	return nil
}

func (s *Service) MarkDisputed(ctx context.Context, id uuid.UUID) error {
	return s.repo.MarkDisputed(ctx, id)
}

func (s *Service) ResolveDispute(ctx context.Context, id uuid.UUID, res Resolution) error {
	if err := s.repo.ResolveDispute(ctx, id, res); err != nil {
		return err
	}
	log.Info().Str("escrow_id", id.String()).Str("resolution", res.String()).Msg("escrow dispute resolved")
	return nil
}

// ResolveDisputeTx runs the payout inside the caller's transaction so
// the dispute record can flip in the same commit.
func (s *Service) ResolveDisputeTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, res Resolution) error {
	if err := s.repo.ResolveDisputeTx(ctx, tx, id, res); err != nil {
		return err
	}
	log.Info().Str("escrow_id", id.String()).Str("resolution", res.String()).Msg("escrow dispute resolved")
	return nil
}

func (s *Service) DueForRelease(ctx context.Context, now time.Time, limit int) ([]Escrow, error) {
	return s.repo.DueForRelease(ctx, now, limit)
}
