package auth

import "errors"

var (
	// ErrMissingToken is returned when no token is present in the request.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken is returned when the token fails parsing or signature checks.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token's exp claim is in the past.
	ErrExpiredToken = errors.New("token has expired")
	// ErrInvalidIssuer is returned when the iss claim does not match the configured issuer.
	ErrInvalidIssuer = errors.New("invalid token issuer")
)
