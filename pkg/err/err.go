package errprocess

import (
	"errors"

	"pairva_message_service/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// Kind classify service error
type Kind int

const (
	// KindValidation malformed or missing required input
	KindValidation Kind = iota + 1
	// KindNotFound referenced conversation or message does not exist
	KindNotFound
	// KindAuthorization actor is not allowed to perform the operation
	KindAuthorization
	// KindTransport connection level failure, handled inside the gateway
	KindTransport
)

// Error service error with kind
type Error struct {
	Kind Kind
	Msg  string
}

// Error implement error
func (e *Error) Error() string {
	return e.Msg
}

// Set set err info
func Set(errMsg string) error {
	logger.Log.Error(errMsg)
	return errors.New(errMsg)
}

// Validation create validation error
func Validation(msg string) error {
	logger.Log.Error(msg)
	return &Error{Kind: KindValidation, Msg: msg}
}

// NotFound create not found error
func NotFound(msg string) error {
	logger.Log.Error(msg)
	return &Error{Kind: KindNotFound, Msg: msg}
}

// Authorization create authorization error
func Authorization(msg string) error {
	logger.Log.Error(msg)
	return &Error{Kind: KindAuthorization, Msg: msg}
}

// Transport create transport error
func Transport(msg string) error {
	logger.Log.Error(msg)
	return &Error{Kind: KindTransport, Msg: msg}
}

// KindOf get the kind of err, 0 when err is not a service error
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// HTTPStatus map err kind to HTTP status code
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindAuthorization:
		return fiber.StatusForbidden
	case KindTransport:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
