package escrow

import "errors"

var (
	ErrNotFound          = errors.New("escrow not found")
	ErrAlreadyReleased   = errors.New("escrow already released or refunded")
	ErrAlreadyRefunded   = errors.New("escrow already refunded or released")
	ErrNotDisputed       = errors.New("escrow is not disputed")
	ErrInvalidResolution = errors.New("invalid resolution")
	ErrInvalidAmount     = errors.New("invalid escrow amount")
)
