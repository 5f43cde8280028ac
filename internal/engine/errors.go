package engine

import "fmt"

// Kind is the machine-readable error category exposed to callers.
type Kind string

const (
	KindNotFound            Kind = "not_found"
	KindValidation          Kind = "validation_error"
	KindStateConflict       Kind = "state_conflict"
	KindConcurrencyConflict Kind = "concurrency_conflict"
)

// State-conflict codes. These are stable identifiers callers may branch on.
const (
	CodeSelectionWindowClosed = "SelectionWindowClosed"
	CodeOfferExpired          = "OfferExpired"
	CodeAlreadyBroadcast      = "AlreadyBroadcast"
	CodeAlreadySelected       = "AlreadySelected"
	CodeNotSelectedProvider   = "NotSelectedProvider"
	CodeNotOpen               = "NotOpen"
	CodeConcurrencyConflict   = "ConcurrencyConflict"
	CodeNotFound              = "NotFound"
	CodeValidationError       = "ValidationError"
)

// Error is a typed engine error: a category, a stable code and a human
// message. Persistence failures are never wrapped into one of these; they
// propagate as plain errors.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func errNotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func errValidation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Code: CodeValidationError, Message: fmt.Sprintf(format, args...)}
}

func errConflict(code, format string, args ...any) *Error {
	return &Error{Kind: KindStateConflict, Code: code, Message: fmt.Sprintf(format, args...)}
}

func errRaceLost(format string, args ...any) *Error {
	return &Error{Kind: KindConcurrencyConflict, Code: CodeConcurrencyConflict, Message: fmt.Sprintf(format, args...)}
}
