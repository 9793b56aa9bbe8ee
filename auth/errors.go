package auth

import "errors"

var (
	// ErrInvalidCredentials is returned for an unknown credential, a wrong
	// secret and an inactive account alike.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
