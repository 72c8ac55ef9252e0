package services

import "fmt"

// ErrorKind is the machine-readable classification attached to every error
// this package returns. Handlers map kinds onto HTTP status codes; nothing
// here uses errors for normal control flow.
type ErrorKind string

const (
	KindValidation            ErrorKind = "validation_error"
	KindNotFound              ErrorKind = "not_found"
	KindInvalidState          ErrorKind = "invalid_state"
	KindInvalidTransition     ErrorKind = "invalid_transition"
	KindAvailabilityConflict  ErrorKind = "availability_conflict"
	KindDependencyUnavailable ErrorKind = "dependency_unavailable"
	KindInternal              ErrorKind = "internal"
)

type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the kind from an error, defaulting to internal for
// anything this package did not classify.
func KindOf(err error) ErrorKind {
	if se, ok := err.(*Error); ok {
		return se.Kind
	}
	return KindInternal
}

func validationError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

func notFoundError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidStateError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func invalidTransitionError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidTransition, Message: fmt.Sprintf(format, args...)}
}

func availabilityConflictError(format string, args ...interface{}) *Error {
	return &Error{Kind: KindAvailabilityConflict, Message: fmt.Sprintf(format, args...)}
}

func dependencyError(message string, err error) *Error {
	return &Error{Kind: KindDependencyUnavailable, Message: message, Err: err}
}

func internalError(message string, err error) *Error {
	return &Error{Kind: KindInternal, Message: message, Err: err}
}
