package common

import (
	"errors"
	"fmt"
)

// GoDBErrorCode classifies the failures the engine can surface. Each code
// maps onto one of the error kinds the system distinguishes (§7): some are
// fatal to the calling transaction (TransactionAbortedError), some are
// generic engine failures, some are I/O failures that leave the transaction
// unchanged, and some are plain programmer-visible argument/iteration
// mistakes.
type GoDBErrorCode int

const (
	// TransactionAbortedError is raised by the lock manager on deadlock, or
	// by the caller on an explicit abort. It is always fatal to the calling
	// transaction.
	TransactionAbortedError GoDBErrorCode = iota
	// DbError is a generic engine-level failure: an out-of-range page id, no
	// eviction victim under NO-STEAL, a schema mismatch on insert, and
	// similar conditions that are not about I/O, iteration, or deadlock.
	DbError
	// IoError wraps an underlying file I/O failure. The caller's
	// transaction state is unchanged; it may retry or abort explicitly.
	IoError
	// NoSuchElementError is raised when a pull-based iterator is advanced
	// past its end, or a field-name lookup misses.
	NoSuchElementError
	// IllegalArgumentError is raised for schema violations, invalid
	// permission modes, or an aggregator given an unsupported operator.
	IllegalArgumentError
	// IllegalStateError is raised when an operator is used outside its
	// open/close lifecycle (next before open, any call after close).
	IllegalStateError
)

func (ec GoDBErrorCode) String() string {
	switch ec {
	case TransactionAbortedError:
		return "TransactionAborted"
	case DbError:
		return "DbException"
	case IoError:
		return "IoError"
	case NoSuchElementError:
		return "NoSuchElement"
	case IllegalArgumentError:
		return "IllegalArgument"
	case IllegalStateError:
		return "IllegalState"
	default:
		return "Unknown"
	}
}

// GoDBError is the engine's error type. It wraps a GoDBErrorCode with a
// message and an optional underlying cause, so callers can both match on
// the code (e.g. to decide whether to retry) and inspect the original
// failure via errors.Unwrap.
type GoDBError struct {
	Code      GoDBErrorCode
	ErrString string
	Cause     error
}

func (e GoDBError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.ErrString, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.ErrString)
}

func (e GoDBError) Unwrap() error {
	return e.Cause
}

// NewError constructs a GoDBError with no underlying cause.
func NewError(code GoDBErrorCode, format string, args ...any) error {
	return GoDBError{Code: code, ErrString: fmt.Sprintf(format, args...)}
}

// WrapError constructs a GoDBError wrapping an existing error as its cause.
func WrapError(code GoDBErrorCode, cause error, format string, args ...any) error {
	return GoDBError{Code: code, ErrString: fmt.Sprintf(format, args...), Cause: cause}
}

// Is reports whether err is a GoDBError with the given code, looking
// through any wrapping.
func Is(err error, code GoDBErrorCode) bool {
	for err != nil {
		if ge, ok := err.(GoDBError); ok && ge.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
