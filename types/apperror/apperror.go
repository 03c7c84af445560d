package apperror

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Kind classifies what went wrong so controllers can map the failure to an
// HTTP status without string matching.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
)

// Error is the error type returned by all fleet services. Details carries
// caller-facing payloads such as the conflicting schedule list or the
// missing-roles list.
type Error struct {
	Kind    Kind
	Message string
	Details interface{}
}

func (e *Error) Error() string {
	return e.Message
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func Conflict(message string, details interface{}) *Error {
	return &Error{Kind: KindConflict, Message: message, Details: details}
}

func InvalidState(message string, details interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: message, Details: details}
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

// As unwraps err into an *Error, or nil if it is not one.
func As(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return nil
}

// HTTPStatus maps an error to the status code the API surfaces for it.
// Unclassified errors are treated as internal.
func HTTPStatus(err error) int {
	e := As(err)
	if e == nil {
		return fiber.StatusInternalServerError
	}
	switch e.Kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindInvalidState:
		return fiber.StatusUnprocessableEntity
	case KindValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
