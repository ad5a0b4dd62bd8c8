package errors

import (
	stderrors "errors"
	"net/http"
)

// Booking error kinds. Callers wrap them with fmt.Errorf("...: %w") and match
// with errors.Is.
var (
	ErrMissingField      = stderrors.New("missing required field")
	ErrInvalidField      = stderrors.New("invalid field")
	ErrInvalidTimeFormat = stderrors.New("invalid time format")
	ErrSlotTaken         = stderrors.New("time slot already taken")
	ErrPersistence       = stderrors.New("persistence failure")
	ErrNotFound          = stderrors.New("not found")
	ErrCourtUnavailable  = stderrors.New("court unavailable")
	ErrInvalidTransition = stderrors.New("invalid status transition")
)

// SlotTakenMessage is the message surfaced to clients on a booking conflict.
const SlotTakenMessage = "This time slot is already taken."

// HTTPError represents an error with an associated HTTP status code.
type HTTPError struct {
	Code    int
	Message string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTPError with the given code and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{
		Code:    code,
		Message: message,
	}
}

// FromError maps a booking error kind to the HTTPError returned to clients.
// Server-side failures never leak their cause.
func FromError(err error) *HTTPError {
	var httpErr *HTTPError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &httpErr):
		return httpErr
	case stderrors.Is(err, ErrSlotTaken):
		return NewHTTPError(http.StatusConflict, SlotTakenMessage)
	case stderrors.Is(err, ErrCourtUnavailable), stderrors.Is(err, ErrInvalidTransition):
		return NewHTTPError(http.StatusConflict, err.Error())
	case stderrors.Is(err, ErrNotFound):
		return NewHTTPError(http.StatusNotFound, err.Error())
	case stderrors.Is(err, ErrMissingField),
		stderrors.Is(err, ErrInvalidField),
		stderrors.Is(err, ErrInvalidTimeFormat):
		return NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}

// IsClientError reports whether err is the caller's fault or a business rejection
// rather than a server fault.
func IsClientError(err error) bool {
	e := FromError(err)
	return e != nil && e.Code < http.StatusInternalServerError
}

// Helper for common errors
var (
	ErrBadRequest = func(msg string) *HTTPError { return NewHTTPError(http.StatusBadRequest, msg) }
)
