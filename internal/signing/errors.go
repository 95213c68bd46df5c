package signing

import "errors"

var (
	ErrMalformed    = errors.New("malformed expiry")
	ErrBadSignature = errors.New("invalid signature")
	ErrExpired      = errors.New("url expired")
)
