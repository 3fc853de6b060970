package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

// ErrorKind classifies service failures for the transport layer.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota + 1
	KindInvalidTransition
	KindForbidden
	KindAlreadyDone
	KindInternal
)

// Error is the typed rejection every mutating operation returns on a
// failed precondition. Internal errors carry the cause for server-side
// logging but surface a generic message.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps the error kind to a status class.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindForbidden:
		return fiber.StatusForbidden
	case KindInvalidTransition, KindAlreadyDone:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// PublicMessage is what the caller sees. Internal detail stays in the logs.
func (e *Error) PublicMessage() string {
	if e.Kind == KindInternal {
		return "Something went wrong"
	}
	return e.Message
}

func NotFound(msg string) *Error          { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) *Error         { return &Error{Kind: KindForbidden, Message: msg} }
func AlreadyDone(msg string) *Error       { return &Error{Kind: KindAlreadyDone, Message: msg} }
func InvalidTransition(msg string) *Error { return &Error{Kind: KindInvalidTransition, Message: msg} }

func Internal(err error) *Error {
	log.Printf("internal error: %v", err)
	return &Error{Kind: KindInternal, Message: "internal error", Err: err}
}

// AsError extracts a typed *Error, wrapping anything else as Internal.
func AsError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return Internal(err)
}
