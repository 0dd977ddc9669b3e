package dispute

import "errors"

var (
	ErrNotFound        = errors.New("dispute not found")
	ErrAlreadyResolved = errors.New("dispute already resolved")
	ErrAlreadyOpen     = errors.New("order already has an open dispute")
	ErrNotParticipant  = errors.New("not a party to this dispute")
	ErrCannotDispute   = errors.New("order cannot be disputed in its current state")
	ErrInvalidEvidence = errors.New("invalid evidence")
)
