// Package services holds the storefront business rules: authentication,
// ordering, catalog administration and contact forms.
package services

import (
	"errors"
	"fmt"

	"github.com/retromusic/storefront/app/repositories"
)

var (
	ErrValidation           = errors.New("validation failed")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountLocked        = errors.New("account locked")
	ErrInvalidOrExpiredCode = errors.New("invalid or expired reset code")
	ErrEmailTaken           = errors.New("email already registered")
	ErrEmptyCart            = errors.New("empty cart")
	ErrProductsNotFound     = errors.New("products not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrNotFound             = repositories.ErrNotFound
	ErrTimeout              = errors.New("operation timed out")
)

// ValidationError carries field-level messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string { return fmt.Sprintf("validation failed: %v", e.Fields) }
func (e *ValidationError) Unwrap() error { return ErrValidation }

// CredentialsError is a failed login. AttemptsRemaining is nil when the
// reveal policy is off.
type CredentialsError struct {
	AttemptsRemaining *int
}

func (e *CredentialsError) Error() string { return ErrInvalidCredentials.Error() }
func (e *CredentialsError) Unwrap() error { return ErrInvalidCredentials }

// LockedError is a login refused because the account is locked.
type LockedError struct {
	RemainingMinutes int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked for %d more minute(s)", e.RemainingMinutes)
}
func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// StockError names the product that could not cover the requested quantity.
type StockError struct {
	ProductID   uint
	ProductName string
	Available   int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d (%s): %d available", e.ProductID, e.ProductName, e.Available)
}
func (e *StockError) Unwrap() error { return ErrInsufficientStock }
