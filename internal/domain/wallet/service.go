package wallet

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/satmarket/satmarket-api/internal/pkg/cashu"
)

// MintGateway is the slice of the mint client the wallet needs.
type MintGateway interface {
	Receive(ctx context.Context, token string) (int64, error)
	CreateInvoice(ctx context.Context, amountSats int64) (*cashu.Invoice, error)
	PayInvoice(ctx context.Context, paymentRequest string, amountSats int64) error
}

type Service struct {
	repo *Repository
	mint MintGateway
}

func NewService(repo *Repository, mint MintGateway) *Service {
	return &Service{repo: repo, mint: mint}
}

func (s *Service) Balance(ctx context.Context, npub string) (int64, error) {
	return s.repo.Balance(ctx, npub)
}

func (s *Service) Transactions(ctx context.Context, npub string, limit, offset int) ([]Transaction, error) {
	return s.repo.Transactions(ctx, npub, limit, offset)
}

// Deposit redeems an ecash token at the mint gateway and credits the
// wallet with whatever the token was worth.
func (s *Service) Deposit(ctx context.Context, npub, token string) (int64, error) {
	amount, err := s.mint.Receive(ctx, token)
	if err != nil {
		return 0, err
	}

	balance, err := s.repo.Credit(ctx, npub, amount, KindDeposit, "")
	if err != nil {
		// The token is already redeemed at this point. Surface loudly so
		// the credit can be replayed by hand.
		log.Error().Err(err).Str("npub", npub).Int64("amount", amount).Msg("deposit credit failed after token redeemed")
		return 0, err
	}

	log.Info().Str("npub", npub).Int64("amount", amount).Int64("balance", balance).Msg("wallet deposit applied")
	return balance, nil
}

// CreateDepositInvoice returns a Lightning invoice the user can pay to
// fund their wallet. Crediting happens on a later Deposit call with the
// resulting token.
func (s *Service) CreateDepositInvoice(ctx context.Context, npub string, amount int64) (*cashu.Invoice, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	return s.mint.CreateInvoice(ctx, amount)
}

// Withdraw debits the wallet first and pays the user's Lightning invoice
// after. On payment failure the debit is compensated with a matching
// credit so the ledger still balances.
func (s *Service) Withdraw(ctx context.Context, npub, paymentRequest string, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.repo.Debit(ctx, npub, amount, KindWithdraw, "")
	if err != nil {
		return 0, err
	}

	if err := s.mint.PayInvoice(ctx, paymentRequest, amount); err != nil {
		if _, creditErr := s.repo.Credit(ctx, npub, amount, KindDeposit, "withdraw_reversal"); creditErr != nil {
			log.Error().Err(creditErr).Str("npub", npub).Int64("amount", amount).Msg("withdraw reversal credit failed")
			return 0, creditErr
		}
		log.Warn().Err(err).Str("npub", npub).Int64("amount", amount).Msg("withdraw payment failed, debit reversed")
		return 0, err
	}

	log.Info().Str("npub", npub).Int64("amount", amount).Int64("balance", balance).Msg("wallet withdraw applied")
	return balance, nil
}
