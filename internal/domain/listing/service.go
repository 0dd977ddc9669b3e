package listing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// BondChecker reports whether a seller has paid the bond for a category.
type BondChecker interface {
	HasBond(ctx context.Context, npub, category string) (bool, error)
}

var ErrBondRequired = errors.New("category bond required")

type Service struct {
	repo  *Repository
	bonds BondChecker
}

func NewService(repo *Repository, bonds BondChecker) *Service {
	return &Service{repo: repo, bonds: bonds}
}

type CreateInput struct {
	Title       string `json:"title" validate:"required,min=3,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"required,seller_category"`
	Price       int64  `json:"price" validate:"required,gt=0"`
}

func (s *Service) Create(ctx context.Context, sellerNpub string, in CreateInput) (*Listing, error) {
	if in.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	ok, err := s.bonds.HasBond(ctx, sellerNpub, in.Category)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrBondRequired
	}

	l := &Listing{
		SellerNpub:  sellerNpub,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Price:       in.Price,
		Status:      StatusActive,
	}
	if err := s.repo.Create(ctx, l); err != nil {
		return nil, err
	}

	log.Info().Str("listing_id", l.ID.String()).Str("seller", sellerNpub).Int64("price", l.Price).Msg("listing created")
	return l, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Listing, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListActive(ctx context.Context, category string, limit, offset int) ([]Listing, error) {
	return s.repo.ListActive(ctx, category, limit, offset)
}

func (s *Service) ListBySeller(ctx context.Context, sellerNpub string) ([]Listing, error) {
	return s.repo.ListBySeller(ctx, sellerNpub)
}

// Delist takes a listing off the market. Only the owner can do it.
func (s *Service) Delist(ctx context.Context, sellerNpub string, id uuid.UUID) error {
	l, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if l.SellerNpub != sellerNpub {
		return ErrNotYours
	}
	return s.repo.SetStatus(ctx, id, StatusDelisted)
}
