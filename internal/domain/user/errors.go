package user

import "errors"

var (
	ErrNotFound    = errors.New("user not found")
	ErrInvalidNpub = errors.New("invalid npub")
)
