package utils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// Kind is a stable, machine-readable error classification returned to API clients.
type Kind string

const (
	KindInvalidFilename Kind = "invalid_filename"
	KindInvalidData     Kind = "invalid_data"
	KindDivisionByZero  Kind = "division_by_zero"
	KindNotFound        Kind = "not_found"
	KindAmbiguousState  Kind = "ambiguous_state"
)

// AppError is the typed failure surfaced by all core computations. Callers always
// receive a kind plus a human message; no partial output accompanies a failure.
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newError(kind Kind, format string, args ...interface{}) *AppError {
	return &AppError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func InvalidFilename(format string, args ...interface{}) *AppError {
	return newError(KindInvalidFilename, format, args...)
}

func InvalidData(format string, args ...interface{}) *AppError {
	return newError(KindInvalidData, format, args...)
}

func DivisionByZero(format string, args ...interface{}) *AppError {
	return newError(KindDivisionByZero, format, args...)
}

func NotFound(format string, args ...interface{}) *AppError {
	return newError(KindNotFound, format, args...)
}

func AmbiguousState(format string, args ...interface{}) *AppError {
	return newError(KindAmbiguousState, format, args...)
}

// Wrap attaches a kind to an underlying error.
func Wrap(kind Kind, err error, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the kind from an error chain.
func KindOf(err error) (Kind, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind, true
	}
	return "", false
}

// HTTPStatus maps an error kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindAmbiguousState:
		return fiber.StatusConflict
	case KindInvalidFilename, KindInvalidData, KindDivisionByZero:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
