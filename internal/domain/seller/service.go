package seller

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/satmarket/satmarket-api/internal/domain/wallet"
)

type Service struct {
	repo    *Repository
	wallets *wallet.Repository
	bondFor func(category string) int64
}

func NewService(repo *Repository, wallets *wallet.Repository, bondFor func(category string) int64) *Service {
	return &Service{repo: repo, wallets: wallets, bondFor: bondFor}
}

// HasBond implements the bond check listings gate on.
func (s *Service) HasBond(ctx context.Context, npub, category string) (bool, error) {
	return s.repo.HasBond(ctx, npub, category)
}

func (s *Service) List(ctx context.Context, npub string) ([]CategoryAccess, error) {
	return s.repo.List(ctx, npub)
}

// BuyCategoryBond debits the bond from the seller's wallet and grants the
// category. The bond is not escrowed and not refundable.
func (s *Service) BuyCategoryBond(ctx context.Context, npub, category string) (*CategoryAccess, error) {
	switch category {
	case CategoryDigital, CategoryPhysical, CategoryServices, CategoryAll:
	default:
		return nil, ErrInvalidCategory
	}

	covered, err := s.repo.HasBond(ctx, npub, category)
	if err != nil {
		return nil, err
	}
	if covered {
		return nil, ErrBondAlreadyPaid
	}

	amount := s.bondFor(category)
	if _, err := s.wallets.Debit(ctx, npub, amount, wallet.KindBond, "bond:"+category); err != nil {
		return nil, err
	}

	access := &CategoryAccess{Npub: npub, Category: category, AmountPaid: amount}
	if err := s.repo.Create(ctx, access); err != nil {
		// Lost a race on the unique constraint: give the sats back.
		if errors.Is(err, ErrBondAlreadyPaid) {
			if _, creditErr := s.wallets.Credit(ctx, npub, amount, wallet.KindDeposit, "bond_reversal:"+category); creditErr != nil {
				log.Error().Err(creditErr).Str("npub", npub).Str("category", category).Msg("bond reversal credit failed")
				return nil, creditErr
			}
		}
		return nil, err
	}

	log.Info().Str("npub", npub).Str("category", category).Int64("amount", amount).Msg("seller category bond paid")
	return access, nil
}
