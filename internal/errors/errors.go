// Package errors provides the error taxonomy for birthdays.
// Every failure surfaced by the store, scheduler or greeting fetcher is one of
// ValidationError, NotFoundError, AuthError, NetworkError or PersistenceError.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common conditions.
var (
	ErrEmptyName           = errors.New("name is required")
	ErrNameTooLong         = errors.New("name is too long")
	ErrCommentTooLong      = errors.New("comment is too long")
	ErrInvalidIcon         = errors.New("invalid icon")
	ErrInvalidColor        = errors.New("invalid color format")
	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidURL          = errors.New("invalid URL")
	ErrGroupRequired       = errors.New("group is required")
	ErrGroupNotFound       = errors.New("group not found")
	ErrBirthdayNotFound    = errors.New("birthday not found")
	ErrWebhookNotFound     = errors.New("webhook not found")
	ErrWebhookExists       = errors.New("webhook already exists")
	ErrInvalidWebhookName  = errors.New("invalid webhook name")
	ErrInvalidWebhookType  = errors.New("invalid webhook type")
	ErrWebhookNameRequired = errors.New("webhook name is required")
	ErrNoWebhooks          = errors.New("no enabled webhooks")
	ErrNotAuthenticated    = errors.New("User is not authenticated")
	ErrPrincipalMismatch   = errors.New("record belongs to another user")
	ErrInvalidToken        = errors.New("invalid or expired token")
	ErrNetworkUnavailable  = errors.New("network unavailable")
	ErrTimeout             = errors.New("operation timed out")
	ErrCommitFailed        = errors.New("commit failed")
	ErrStoreLocked         = errors.New("store is in use by another process")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field      string
	Value      string
	Message    string
	Suggestion string
	Err        error // sentinel, optional
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("%s: '%s'", e.Message, e.Value)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a ValidationError for field wrapping a sentinel.
func NewValidationError(field string, sentinel error, suggestion string) *ValidationError {
	return &ValidationError{
		Field:      field,
		Message:    sentinel.Error(),
		Suggestion: suggestion,
		Err:        sentinel,
	}
}

// NewValidationErrorWithValue creates a ValidationError carrying the bad value.
func NewValidationErrorWithValue(field, value string, sentinel error, suggestion string) *ValidationError {
	e := NewValidationError(field, sentinel, suggestion)
	e.Value = value
	return e
}

// NotFoundError reports that an operation targeted a nonexistent id.
type NotFoundError struct {
	Entity string // "group", "birthday", "webhook"
	ID     string
	Err    error
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Entity)
	}
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a NotFoundError. The sentinel is chosen by entity.
func NewNotFoundError(entity, id string) *NotFoundError {
	var sentinel error
	switch entity {
	case "group":
		sentinel = ErrGroupNotFound
	case "birthday":
		sentinel = ErrBirthdayNotFound
	case "webhook":
		sentinel = ErrWebhookNotFound
	}
	return &NotFoundError{Entity: entity, ID: id, Err: sentinel}
}

// AuthError reports a missing principal or a principal mismatch.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "authentication error"
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// NewAuthError creates an AuthError around a sentinel or cause.
func NewAuthError(err error) *AuthError {
	return &AuthError{Err: err}
}

// NetworkError reports a transport or remote API failure.
type NetworkError struct {
	Op         string // e.g. "fetch greeting"
	URL        string // masked before it gets here
	StatusCode int    // 0 when no response was received
	Cause      error
}

func (e *NetworkError) Error() string {
	switch {
	case e.StatusCode != 0:
		return fmt.Sprintf("%s failed: HTTP %d", e.Op, e.StatusCode)
	case e.Cause != nil:
		return fmt.Sprintf("%s failed: %v", e.Op, e.Cause)
	default:
		return fmt.Sprintf("%s failed", e.Op)
	}
}

func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// NewNetworkError creates a NetworkError.
func NewNetworkError(op string, statusCode int, cause error) *NetworkError {
	return &NetworkError{Op: op, StatusCode: statusCode, Cause: cause}
}

// PersistenceError reports a failure of the underlying store.
type PersistenceError struct {
	Op    string
	Cause error
}

func (e *PersistenceError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("storage error during %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("storage error during %s", e.Op)
}

func (e *PersistenceError) Unwrap() error {
	return e.Cause
}

// NewPersistenceError wraps a store failure. Errors that are already typed
// pass through unchanged; nil stays nil.
func NewPersistenceError(op string, cause error) error {
	if cause == nil {
		return nil
	}
	if KindOf(cause) != KindUnknown {
		return cause
	}
	return &PersistenceError{Op: op, Cause: cause}
}

// IsValidationError checks if an error is a ValidationError.
func IsValidationError(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

// IsNotFoundError checks if an error is a NotFoundError.
func IsNotFoundError(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsAuthError checks if an error is an AuthError.
func IsAuthError(err error) bool {
	var e *AuthError
	return errors.As(err, &e)
}

// IsNetworkError checks if an error is a NetworkError.
func IsNetworkError(err error) bool {
	var e *NetworkError
	return errors.As(err, &e)
}

// IsPersistenceError checks if an error is a PersistenceError.
func IsPersistenceError(err error) bool {
	var e *PersistenceError
	return errors.As(err, &e)
}

// AsValidationError extracts a ValidationError from an error chain.
func AsValidationError(err error) (*ValidationError, bool) {
	var e *ValidationError
	ok := errors.As(err, &e)
	return e, ok
}

// AsNotFoundError extracts a NotFoundError from an error chain.
func AsNotFoundError(err error) (*NotFoundError, bool) {
	var e *NotFoundError
	ok := errors.As(err, &e)
	return e, ok
}

// AsNetworkError extracts a NetworkError from an error chain.
func AsNetworkError(err error) (*NetworkError, bool) {
	var e *NetworkError
	ok := errors.As(err, &e)
	return e, ok
}

// Is is errors.Is, re-exported so callers need a single import.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is errors.As, re-exported so callers need a single import.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted additional context.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
