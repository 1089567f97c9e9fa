package errors

import (
	stderrors "errors"
	"fmt"

	"settler/jsonx"
)

// SettlementErrorCode represents standardized error codes for settlement
// operations. Every failure surfaced by the gate carries one of these so
// the host can distinguish rejection kinds when aborting a transaction.
type SettlementErrorCode string

const (
	// Authorization errors
	ErrCodeUnauthorized SettlementErrorCode = "unauthorized"

	// Invariant violations
	ErrCodeInvariant    SettlementErrorCode = "invariant_violation"
	ErrCodeInsufficient SettlementErrorCode = "insufficient_accumulated"
	ErrCodeConservation SettlementErrorCode = "conservation_violation"

	// Directory errors
	ErrCodeTypeMismatch SettlementErrorCode = "type_mismatch"
	ErrCodeNotFound     SettlementErrorCode = "not_found"
	ErrCodeConflict     SettlementErrorCode = "conflict"

	// System errors
	ErrCodeInternal SettlementErrorCode = "internal_error"
)

// SettlementError is a coded error. No settlement error is retried inside
// this subsystem; the host decides whether to retry the batch.
type SettlementError struct {
	Code    SettlementErrorCode `json:"code"`
	Message string              `json:"message"`
}

// Error implements the error interface
func (e *SettlementError) Error() string {
	body, _ := jsonx.Marshal(e)
	return string(body)
}

// New creates a new SettlementError and returns it as error interface
func New(code SettlementErrorCode, message string) error {
	return &SettlementError{Code: code, Message: message}
}

// Newf creates a new SettlementError with a formatted message
func Newf(code SettlementErrorCode, format string, args ...interface{}) error {
	return &SettlementError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// CodeOf extracts the settlement error code from err, unwrapping as needed.
// Returns ErrCodeInternal for errors that carry no code.
func CodeOf(err error) SettlementErrorCode {
	var se *SettlementError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given settlement error code.
func HasCode(err error, code SettlementErrorCode) bool {
	var se *SettlementError
	return stderrors.As(err, &se) && se.Code == code
}
