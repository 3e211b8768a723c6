package apperror

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind classifies an application error so callers can render a specific
// message instead of a generic failure.
type Kind string

const (
	KindNotFound        Kind = "not_found"
	KindUnauthenticated Kind = "unauthenticated"
	KindUnauthorized    Kind = "unauthorized"
	KindInvalidState    Kind = "invalid_state"
	KindPrecondition    Kind = "precondition_failed"
	KindInvalidInput    Kind = "invalid_input"
	KindInternal        Kind = "internal"
)

// Error is an application error with a kind, a human-readable message and an
// optional wrapped cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the original error.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an application error of the given kind.
func New(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotFound reports an unknown template, office, user or job id.
func NotFound(message string, err error) *Error {
	return New(KindNotFound, message, err)
}

// Unauthenticated reports a missing actor context.
func Unauthenticated(message string, err error) *Error {
	return New(KindUnauthenticated, message, err)
}

// Unauthorized reports an actor lacking the role an action requires.
func Unauthorized(message string, err error) *Error {
	return New(KindUnauthorized, message, err)
}

// InvalidState reports an operation attempted from a job status that does not
// permit it.
func InvalidState(message string, err error) *Error {
	return New(KindInvalidState, message, err)
}

// Precondition reports a violated requirement that is not a status edge, such
// as correcting items before any recognition result exists.
func Precondition(message string, err error) *Error {
	return New(KindPrecondition, message, err)
}

// InvalidInput reports a malformed request payload.
func InvalidInput(message string, err error) *Error {
	return New(KindInvalidInput, message, err)
}

// KindOf extracts the kind of an error, or KindInternal for plain errors.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindInternal
}

// IsKind reports whether the error carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

var kindStatus = map[Kind]int{
	KindNotFound:        http.StatusNotFound,
	KindUnauthenticated: http.StatusUnauthorized,
	KindUnauthorized:    http.StatusForbidden,
	KindInvalidState:    http.StatusConflict,
	KindPrecondition:    http.StatusUnprocessableEntity,
	KindInvalidInput:    http.StatusBadRequest,
	KindInternal:        http.StatusInternalServerError,
}

// HTTPStatus maps an error kind to its response status code.
func HTTPStatus(kind Kind) int {
	if code, ok := kindStatus[kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Respond writes the error to the gin context with the status its kind maps
// to. Unclassified errors become a plain 500 without leaking the cause.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if errors.As(err, &appErr) {
		c.JSON(HTTPStatus(appErr.Kind), gin.H{"error": appErr.Message, "kind": string(appErr.Kind)})
		return
	}
	log.Printf("internal error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error", "kind": string(KindInternal)})
}
