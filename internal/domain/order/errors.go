package order

import "errors"

var (
	ErrNotFound         = errors.New("order not found")
	ErrNotYours         = errors.New("order belongs to another user")
	ErrAlreadyCompleted = errors.New("order already completed or refunded")
	ErrCannotShip       = errors.New("order cannot be shipped in its current state")
)
