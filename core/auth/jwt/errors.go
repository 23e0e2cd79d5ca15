package jwt

import "errors"

var (
	ErrInvalidToken     = errors.New("jwt: invalid token")
	ErrExpiredToken     = errors.New("jwt: token expired")
	ErrTokenRevoked     = errors.New("jwt: token revoked")
	ErrInvalidSignature = errors.New("jwt: invalid signature")
	ErrWrongKind        = errors.New("jwt: wrong token kind")

	ErrConfigInvalid = errors.New("jwt: invalid configuration")
	ErrEmptySecret   = errors.New("jwt: secret cannot be empty")
)
