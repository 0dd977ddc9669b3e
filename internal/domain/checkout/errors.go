package checkout

import "errors"

var (
	ErrNotFound         = errors.New("checkout session not found")
	ErrCartEmpty        = errors.New("cart has no available items")
	ErrAlreadyInCart    = errors.New("listing already in cart")
	ErrAlreadyStarted   = errors.New("checkout session already pending")
	ErrPriceLockExpired = errors.New("price lock expired")
	ErrAlreadyPaid      = errors.New("checkout session already paid")
	ErrInvalidPayment   = errors.New("invalid payment")
)
