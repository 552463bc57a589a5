package errors

import (
	"context"
	"errors"
	"syscall"
)

// Kind is the taxonomy kind of an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindNotFound
	KindAuth
	KindNetwork
	KindPersistence
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuth:
		return "auth"
	case KindNetwork:
		return "network"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of the first typed error in err's chain.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case IsValidationError(err):
		return KindValidation
	case IsNotFoundError(err):
		return KindNotFound
	case IsAuthError(err):
		return KindAuth
	case IsNetworkError(err):
		return KindNetwork
	case IsPersistenceError(err):
		return KindPersistence
	default:
		return KindUnknown
	}
}

// Category represents how an error should be presented and handled.
type Category int

const (
	// CategoryUnknown is the default for unclassified errors.
	CategoryUnknown Category = iota
	// CategoryUser indicates an error the user can fix (bad input, wrong id, not signed in).
	CategoryUser
	// CategorySystem indicates a storage or environment failure.
	CategorySystem
	// CategoryRecoverable indicates a transient failure worth trying again.
	CategoryRecoverable
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryUser:
		return "user"
	case CategorySystem:
		return "system"
	case CategoryRecoverable:
		return "recoverable"
	default:
		return "unknown"
	}
}

// Classify determines the category of an error.
func Classify(err error) Category {
	if err == nil {
		return CategoryUnknown
	}

	switch KindOf(err) {
	case KindValidation, KindNotFound, KindAuth:
		return CategoryUser
	case KindNetwork:
		return CategoryRecoverable
	case KindPersistence:
		return CategorySystem
	}

	if isRecoverablePattern(err) {
		return CategoryRecoverable
	}
	if isSystemLevel(err) {
		return CategorySystem
	}
	return CategoryUnknown
}

func isSystemLevel(err error) bool {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.ENOSPC, syscall.EACCES, syscall.EPERM, syscall.EIO, syscall.EROFS:
			return true
		}
	}
	return false
}

func isRecoverablePattern(err error) bool {
	if errors.Is(err, ErrNetworkUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		switch errno {
		case syscall.EAGAIN, syscall.EINTR, syscall.ETIMEDOUT, syscall.ECONNREFUSED, syscall.ECONNRESET:
			return true
		}
	}
	return false
}

// FormatByCategory returns a user-appropriate error message based on category.
func FormatByCategory(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	suggestion := GetSuggestion(err)

	switch Classify(err) {
	case CategoryUser:
		if suggestion != "" {
			return msg + "\n\nTry: " + suggestion
		}
		return msg

	case CategorySystem:
		if suggestion != "" {
			return "System error: " + msg + "\n\n" + suggestion
		}
		return "System error: " + msg

	case CategoryRecoverable:
		if suggestion != "" {
			return msg + "\n\n" + suggestion
		}
		return msg + "\n\nThis may be temporary. Try again in a moment."

	default:
		if suggestion != "" {
			return msg + "\n\n" + suggestion
		}
		return msg
	}
}
