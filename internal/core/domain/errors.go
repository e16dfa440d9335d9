package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	ErrNotFound           = errors.New("resource not found")
	ErrConflict           = errors.New("concurrent update conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrForbidden          = errors.New("forbidden")
	ErrDuplicateEntry     = errors.New("duplicate entry")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("token invalid")
	ErrTokenRevoked       = errors.New("token revoked")
)

// User errors
var (
	ErrUserNotFound     = fmt.Errorf("user: %w", ErrNotFound)
	ErrUserInactive     = errors.New("user account is inactive")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
)

// Ledger errors
var (
	ErrMemberNotFound  = fmt.Errorf("member: %w", ErrNotFound)
	ErrAccountNotFound = fmt.Errorf("saving account: %w", ErrNotFound)
	ErrLoanNotFound    = fmt.Errorf("loan: %w", ErrNotFound)
)

// ValidationError is a rejected operation with a human-readable reason.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError builds a ValidationError from a format string
func NewValidationError(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err carries a ValidationError
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// Ledger rejections
var (
	ErrAmountNotPositive   = &ValidationError{Reason: "amount must be positive"}
	ErrInsufficientBalance = &ValidationError{Reason: "insufficient balance"}
)
