package user

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/satmarket/satmarket-api/internal/pkg/jwt"
)

type Service struct {
	repo *Repository
	jwt  *jwt.Service
}

func NewService(repo *Repository, jwtService *jwt.Service) *Service {
	return &Service{repo: repo, jwt: jwtService}
}

// IssueToken mints an access token for a verified npub. Signature
// verification against the key happens at the identity gateway in front
// of this service; by the time a request lands here the npub is trusted.
func (s *Service) IssueToken(ctx context.Context, npub string) (string, *User, error) {
	if npub == "" {
		return "", nil, ErrInvalidNpub
	}

	if err := s.repo.Ensure(ctx, npub, RoleBuyer); err != nil {
		return "", nil, err
	}

	u, err := s.repo.Get(ctx, npub)
	if err != nil {
		return "", nil, err
	}

	token, err := s.jwt.GenerateAccessToken(u.Npub, u.Role)
	if err != nil {
		return "", nil, err
	}

	log.Info().Str("npub", npub).Str("role", u.Role).Msg("access token issued")
	return token, u, nil
}

func (s *Service) Get(ctx context.Context, npub string) (*User, error) {
	u, err := s.repo.Get(ctx, npub)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}
