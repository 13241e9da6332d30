package ledger

import (
	"errors"
	"fmt"

	"github.com/roach88/medinsight/internal/store"
)

// ErrorCode categorizes ledger errors.
type ErrorCode string

const (
	// ErrCodeStorageUnavailable indicates the embedded engine could not be
	// opened or a read or write failed at the engine level.
	ErrCodeStorageUnavailable ErrorCode = "STORAGE_UNAVAILABLE"

	// ErrCodeMalformedImport indicates the import payload is not valid JSON.
	ErrCodeMalformedImport ErrorCode = "MALFORMED_IMPORT"

	// ErrCodeInvalidSchema indicates well-formed JSON that fails the shape check.
	ErrCodeInvalidSchema ErrorCode = "INVALID_SCHEMA"

	// ErrCodeImportFailed indicates validation passed but the bulk write failed.
	ErrCodeImportFailed ErrorCode = "IMPORT_FAILED"

	// ErrCodeEmptyLedger indicates an export was requested with zero events.
	ErrCodeEmptyLedger ErrorCode = "EMPTY_LEDGER"

	// ErrCodeNotFound indicates a lookup for an id that does not exist.
	// DeleteHistoryEvent treats a missing id as a no-op instead.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Error is a classified ledger failure.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Details contains additional context (e.g. the offending element).
	Details map[string]string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return ""
}

// IsStorageUnavailable reports whether err is a storage failure.
func IsStorageUnavailable(err error) bool { return CodeOf(err) == ErrCodeStorageUnavailable }

// IsMalformedImport reports whether err rejected an unparseable document.
func IsMalformedImport(err error) bool { return CodeOf(err) == ErrCodeMalformedImport }

// IsInvalidSchema reports whether err rejected a document failing the shape check.
func IsInvalidSchema(err error) bool { return CodeOf(err) == ErrCodeInvalidSchema }

// IsImportFailed reports whether err is a failed bulk write of a valid document.
func IsImportFailed(err error) bool { return CodeOf(err) == ErrCodeImportFailed }

// IsEmptyLedger reports whether err refused an export of zero events.
func IsEmptyLedger(err error) bool { return CodeOf(err) == ErrCodeEmptyLedger }

// IsNotFound reports whether err is a lookup miss.
func IsNotFound(err error) bool { return CodeOf(err) == ErrCodeNotFound }

func newStorageError(op string, err error) *Error {
	return &Error{Code: ErrCodeStorageUnavailable, Message: op, Err: err}
}

// classify maps a store error onto the ledger taxonomy.
func classify(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return &Error{Code: ErrCodeNotFound, Message: op, Err: err}
	default:
		return newStorageError(op, err)
	}
}
