package listing

import "errors"

var (
	ErrNotFound     = errors.New("listing not found")
	ErrNotYours     = errors.New("listing belongs to another seller")
	ErrNotAvailable = errors.New("listing is not available")
	ErrInvalidPrice = errors.New("price must be greater than zero")
)
