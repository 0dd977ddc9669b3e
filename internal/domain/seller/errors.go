package seller

import "errors"

var (
	ErrBondAlreadyPaid = errors.New("category bond already paid")
	ErrInvalidCategory = errors.New("invalid category")
)
