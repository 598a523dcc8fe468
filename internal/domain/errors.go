package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors shared across ports.
var (
	ErrNotFound     = errors.New("not found")
	ErrHoldConflict = errors.New("hold conflict")
	ErrHoldExpired  = errors.New("hold expired")
)

type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindAvailability ErrorKind = "availability"
	KindConflict     ErrorKind = "conflict"
	KindDependency   ErrorKind = "dependency"
)

// Error is the only error shape crossing the engine's public operations.
// Raw dependency errors stay in the cause chain and are never rendered.
type Error struct {
	Kind          ErrorKind
	Message       string
	CorrelationID string
	cause         error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, CorrelationID: uuid.NewString(), cause: cause}
}

func NewValidation(format string, args ...any) *Error {
	return newError(KindValidation, fmt.Sprintf(format, args...), nil)
}

func NewAvailability(format string, args ...any) *Error {
	return newError(KindAvailability, fmt.Sprintf(format, args...), nil)
}

func NewConflict(msg string, cause error) *Error {
	return newError(KindConflict, msg, cause)
}

func NewDependency(msg string, cause error) *Error {
	return newError(KindDependency, msg, cause)
}

// KindOf extracts the kind from any error in the chain;
// unknown errors count as dependency failures.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindDependency
}

func IsKind(err error, kind ErrorKind) bool {
	var de *Error
	return errors.As(err, &de) && de.Kind == kind
}
