package api

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler turns the typed errors below into JSON responses. Anything
// unrecognized becomes a 500 so no failure is swallowed into a success.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var apiError Error
	if errors.As(err, &apiError) {
		return c.Status(apiError.Code).JSON(apiError)
	}

	var valError ValidationError
	if errors.As(err, &valError) {
		return c.Status(valError.Status).JSON(valError)
	}

	var fiberError *fiber.Error
	if errors.As(err, &fiberError) {
		apiError = NewError(fiberError.Code, fiberError.Message)
	} else {
		apiError = NewError(fiber.StatusInternalServerError, err.Error())
	}

	slog.Default().Error("request failed", "code", apiError.Code, "error", apiError.Message)
	return c.Status(apiError.Code).JSON(apiError)
}

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

// Error implements the error interface
func (e Error) Error() string {
	return e.Message
}

func NewError(code int, err string) Error {
	return Error{
		Code:    code,
		Message: err,
	}
}

type ValidationError struct {
	Status int               `json:"status"`
	Errors map[string]string `json:"errors"`
}

func (e ValidationError) Error() string {
	return "validation failed"
}

func NewValidationError(errors map[string]string) ValidationError {
	return ValidationError{
		Status: fiber.StatusUnprocessableEntity,
		Errors: errors,
	}
}

func ErrBadRequest() Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: "invalid JSON request",
	}
}

func ErrUnsupportedFileType(contentType string) Error {
	return Error{
		Code:    fiber.StatusBadRequest,
		Message: fmt.Sprintf("unsupported file type: %s. Only PDF and TXT are supported", contentType),
	}
}

// ErrUpstream reports an embedding or generation provider failure after the
// bounded retries were exhausted.
func ErrUpstream(err error) Error {
	return Error{
		Code:    fiber.StatusBadGateway,
		Message: fmt.Sprintf("upstream provider: %v", err),
	}
}

// ErrStorage reports a vector store failure. Not retried here: the caller
// needs to know the operation did not land.
func ErrStorage(err error) Error {
	return Error{
		Code:    fiber.StatusServiceUnavailable,
		Message: fmt.Sprintf("storage: %v", err),
	}
}
