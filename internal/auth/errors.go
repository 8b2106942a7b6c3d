package auth

import "errors"

var (
	ErrUnauthorized = errors.New("auth: unauthorized")
	ErrForbidden    = errors.New("auth: forbidden")
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrCompanyMismatch indicates a resource belongs to a different company.
	ErrCompanyMismatch = errors.New("auth: company mismatch")
)
