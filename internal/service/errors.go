// Package service implements the business rules behind the HTTP
// handlers: credential and token lifecycle, incremental sync
// reconciliation and backup management. Services are stateless structs
// constructed once at startup over store interfaces.
package service

import "errors"

// Auth failure modes. Login deliberately collapses unknown-email and
// wrong-password into the single ErrInvalidCredentials so callers
// cannot probe which emails are registered.
var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrRefreshTokenExpired = errors.New("refresh token expired")
	ErrInvalidAccessToken  = errors.New("invalid or expired token")
)
