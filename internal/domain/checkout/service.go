package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/satmarket/satmarket-api/internal/domain/escrow"
	"github.com/satmarket/satmarket-api/internal/domain/listing"
	"github.com/satmarket/satmarket-api/internal/domain/order"
	"github.com/satmarket/satmarket-api/internal/domain/wallet"
)

// PaymentMethod selects where the sats come from.
type PaymentMethod string

const (
	PayWithWallet PaymentMethod = "wallet"
	PayWithToken  PaymentMethod = "token"
)

// Payment describes how the buyer settles a session.
type Payment struct {
	Method PaymentMethod `json:"method"`
	Token  string        `json:"token,omitempty"`
}

// MintGateway is the slice of the mint client checkout needs.
type MintGateway interface {
	Receive(ctx context.Context, token string) (int64, error)
}

type Config struct {
	FeePercent     int64
	PriceLockHours int
	EscrowHoldDays int
}

type Service struct {
	repo     *Repository
	listings *listing.Repository
	wallets  *wallet.Repository
	escrows  *escrow.Service
	orders   *order.Repository
	mint     MintGateway
	cfg      Config
}

func NewService(repo *Repository, listings *listing.Repository, wallets *wallet.Repository, escrows *escrow.Service, orders *order.Repository, mint MintGateway, cfg Config) *Service {
	if cfg.PriceLockHours <= 0 {
		cfg.PriceLockHours = 3
	}
	if cfg.EscrowHoldDays <= 0 {
		cfg.EscrowHoldDays = 10
	}
	return &Service{
		repo:     repo,
		listings: listings,
		wallets:  wallets,
		escrows:  escrows,
		orders:   orders,
		mint:     mint,
		cfg:      cfg,
	}
}

func (s *Service) AddToCart(ctx context.Context, npub string, listingID uuid.UUID) error {
	l, err := s.listings.Get(ctx, listingID)
	if err != nil {
		return err
	}
	if !l.IsAvailable() {
		return listing.ErrNotAvailable
	}
	return s.repo.AddToCart(ctx, npub, listingID)
}

func (s *Service) RemoveFromCart(ctx context.Context, npub string, listingID uuid.UUID) error {
	return s.repo.RemoveFromCart(ctx, npub, listingID)
}

func (s *Service) Cart(ctx context.Context, npub string) ([]CartItem, error) {
	return s.repo.CartItems(ctx, npub)
}

// Start opens a checkout session with the cart's current prices locked.
// Idempotent: an existing pending unexpired session is returned as-is,
// so retrying a checkout never stacks sessions or re-locks prices.
// Listings that went off-market since carting are silently dropped.
func (s *Service) Start(ctx context.Context, npub string) (*Session, []SessionItem, error) {
	if existing, err := s.repo.PendingSession(ctx, npub, time.Now()); err == nil {
		items, err := s.repo.SessionItems(ctx, existing.ID)
		if err != nil {
			return nil, nil, err
		}
		return existing, items, nil
	} else if !errors.Is(err, ErrNotFound) {
		return nil, nil, err
	}

	cart, err := s.repo.CartItems(ctx, npub)
	if err != nil {
		return nil, nil, err
	}

	ids := make([]uuid.UUID, 0, len(cart))
	for _, item := range cart {
		ids = append(ids, item.ListingID)
	}
	listings, err := s.listings.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	available := listings[:0]
	for _, l := range listings {
		if l.IsAvailable() {
			available = append(available, l)
		}
	}
	if len(available) == 0 {
		return nil, nil, ErrCartEmpty
	}

	if err := s.repo.ExpireStale(ctx, npub, time.Now()); err != nil {
		return nil, nil, err
	}

	session, err := s.repo.CreateSession(ctx, npub, available, s.cfg.FeePercent, time.Duration(s.cfg.PriceLockHours)*time.Hour)
	if errors.Is(err, ErrAlreadyStarted) {
		// Lost a race with a concurrent start; the winner's session is
		// the pending one.
		winner, werr := s.repo.PendingSession(ctx, npub, time.Now())
		if werr != nil {
			return nil, nil, err
		}
		items, ierr := s.repo.SessionItems(ctx, winner.ID)
		if ierr != nil {
			return nil, nil, ierr
		}
		return winner, items, nil
	}
	if err != nil {
		return nil, nil, err
	}

	items, err := s.repo.SessionItems(ctx, session.ID)
	if err != nil {
		return nil, nil, err
	}

	log.Info().
		Str("session_id", session.ID.String()).
		Str("npub", npub).
		Int64("total", session.TotalAmount).
		Int64("fee", session.FeeAmount).
		Time("expires_at", session.ExpiresAt).
		Msg("checkout session started")
	return session, items, nil
}

// Complete settles a pending session and fans it out into one escrow and
// one order per seller. Fee debit, escrow holds, orders, and the session
// flip all commit in one transaction: a failure anywhere leaves the
// session pending and the wallet untouched.
func (s *Service) Complete(ctx context.Context, npub string, sessionID uuid.UUID, payment Payment) ([]order.Order, error) {
	// Token redemption talks to an external service, so it happens
	// before any row is locked. Once redeemed the sats are the user's
	// wallet balance regardless of how the rest of checkout goes.
	var tokenAmount int64
	if payment.Method == PayWithToken {
		amount, err := s.mint.Receive(ctx, payment.Token)
		if err != nil {
			return nil, err
		}
		tokenAmount = amount
	} else if payment.Method != PayWithWallet {
		return nil, ErrInvalidPayment
	}

	tx, err := s.wallets.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	session, err := s.repo.LockSession(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Npub != npub {
		return nil, ErrNotFound
	}
	if session.Status == StatusPaid {
		tx.Rollback()
		// The token is already redeemed; its sats belong in the wallet
		// even though this payment is a duplicate.
		if tokenAmount > 0 {
			if _, err := s.wallets.Credit(ctx, npub, tokenAmount, wallet.KindReceipt, sessionID.String()); err != nil {
				log.Error().Err(err).Str("npub", npub).Int64("amount", tokenAmount).Msg("receipt credit failed on duplicate payment")
				return nil, err
			}
		}
		return nil, ErrAlreadyPaid
	}
	if session.Status != StatusPending || session.IsExpired(time.Now()) {
		tx.Rollback()
		if err := s.repo.MarkExpired(ctx, sessionID); err != nil {
			log.Error().Err(err).Str("session_id", sessionID.String()).Msg("failed to expire session")
		}
		// Token sats still land in the wallet below.
		if tokenAmount > 0 {
			if _, err := s.wallets.Credit(ctx, npub, tokenAmount, wallet.KindReceipt, sessionID.String()); err != nil {
				log.Error().Err(err).Str("npub", npub).Int64("amount", tokenAmount).Msg("receipt credit failed after expiry")
				return nil, err
			}
		}
		return nil, ErrPriceLockExpired
	}

	if tokenAmount > 0 {
		// Credit the full receipt first; surplus over the amount due
		// simply stays in the wallet.
		if _, err := s.wallets.CreditTx(ctx, tx, npub, tokenAmount, wallet.KindReceipt, sessionID.String()); err != nil {
			return nil, err
		}
	}

	balance, err := s.wallets.BalanceTx(ctx, tx, npub)
	if err != nil {
		return nil, err
	}
	if balance < session.Due() {
		return nil, &wallet.InsufficientFundsError{Needed: session.Due(), Available: balance}
	}

	if session.FeeAmount > 0 {
		if _, err := s.wallets.DebitTx(ctx, tx, npub, session.FeeAmount, wallet.KindFee, sessionID.String()); err != nil {
			return nil, err
		}
	}

	// Session items were committed when the session was created, so a
	// plain read is fine here.
	items, err := s.repo.SessionItems(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	orders, err := s.fanOut(ctx, tx, session, items)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkPaidTx(ctx, tx, sessionID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if err := s.repo.ClearCart(ctx, npub); err != nil {
		log.Error().Err(err).Str("npub", npub).Msg("failed to clear cart after checkout")
	}

	log.Info().
		Str("session_id", sessionID.String()).
		Str("npub", npub).
		Int("orders", len(orders)).
		Msg("checkout completed")
	return orders, nil
}

// fanOut creates one escrow and one order per seller inside the payment
// transaction. Each escrow debits the buyer for that seller's subtotal;
// an error rolls the whole settlement back.
func (s *Service) fanOut(ctx context.Context, tx *sqlx.Tx, session *Session, items []SessionItem) ([]order.Order, error) {
	bySeller := map[string][]SessionItem{}
	sellers := []string{}
	for _, item := range items {
		if _, seen := bySeller[item.SellerNpub]; !seen {
			sellers = append(sellers, item.SellerNpub)
		}
		bySeller[item.SellerNpub] = append(bySeller[item.SellerNpub], item)
	}

	holdFor := time.Duration(s.cfg.EscrowHoldDays) * 24 * time.Hour
	orders := make([]order.Order, 0, len(sellers))

	for _, seller := range sellers {
		group := bySeller[seller]
		var subtotal int64
		orderItems := make([]order.Item, 0, len(group))
		for _, item := range group {
			subtotal += item.LockedPrice
			orderItems = append(orderItems, order.Item{ListingID: item.ListingID, Price: item.LockedPrice})
		}

		e, err := s.escrows.CreateTx(ctx, tx, session.Npub, seller, subtotal, holdFor)
		if err != nil {
			return nil, err
		}

		o := order.Order{
			CheckoutID: session.ID,
			BuyerNpub:  session.Npub,
			SellerNpub: seller,
			EscrowID:   e.ID,
			Amount:     subtotal,
		}
		if err := s.orders.CreateTx(ctx, tx, &o, orderItems); err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}

	return orders, nil
}

func (s *Service) GetSession(ctx context.Context, npub string, id uuid.UUID) (*Session, []SessionItem, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if session.Npub != npub {
		return nil, nil, ErrNotFound
	}

	items, err := s.repo.SessionItems(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return session, items, nil
}
