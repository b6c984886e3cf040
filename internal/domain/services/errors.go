package services

import (
	"errors"
	"fmt"

	"github.com/ersonp/identity-vault/internal/domain/entities"
)

// Validation failures.
var (
	ErrPasswordEmpty     = errors.New("password is empty")
	ErrConfirmationEmpty = errors.New("password confirmation is empty")
	ErrPasswordMismatch  = errors.New("password confirmation does not match")
	ErrUniqueTypeInUse   = errors.New("a record of this unique type already exists")
	ErrTypeImmutable     = errors.New("record type cannot be changed")
	ErrUnknownType       = errors.New("record type does not exist")
	ErrValueEmpty        = errors.New("record value is empty")
	ErrTypeNameEmpty     = errors.New("record type name is empty")
	ErrBuiltinType       = errors.New("built-in record types cannot be removed")
	ErrRecordNotFound    = errors.New("record not found")
)

// Authentication failures.
var (
	ErrInvalidPassword   = errors.New("invalid password")
	ErrLockout           = errors.New("too many failed attempts, password reset offered")
	ErrNotRegistered     = errors.New("no password registered")
	ErrAlreadyRegistered = errors.New("password already registered")
	ErrNotLoggedIn       = errors.New("session is not logged in")
)

// Biometric failures.
var (
	ErrBiometricUnavailable = errors.New("biometric hardware not available")
	ErrBiometricNotEnrolled = errors.New("no biometric credential enrolled")
)

// Deferred delete failures.
var (
	ErrNotPending     = errors.New("no pending delete for record")
	ErrAlreadyPending = errors.New("record already pending delete")
)

// ValidationError reports rejected input. It is never fatal.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// AuthError reports a rejected login. Attempts is the failed-attempt count
// after the rejection.
type AuthError struct {
	Err      error
	Attempts int
}

func (e *AuthError) Error() string { return e.Err.Error() }

func (e *AuthError) Unwrap() error { return e.Err }

// BiometricError reports an informational biometric failure. It never changes
// the session state and is never retried automatically.
type BiometricError struct {
	Outcome entities.BiometricOutcome
	Message string
}

func (e *BiometricError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("biometric authentication %s", e.Outcome)
	}
	return fmt.Sprintf("biometric authentication %s: %s", e.Outcome, e.Message)
}

// StorageError reports an unavailable persistence layer. The operation that
// produced it did not complete and is not retried.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *StorageError) Unwrap() error { return e.Err }

func storage(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
