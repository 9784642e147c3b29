package serverutils

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AppError is an error that knows its HTTP status.
type AppError struct {
	Code    int
	Message string
	Details interface{}
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

func BadRequest(message string) *AppError {
	return NewAppError(http.StatusBadRequest, message)
}

func NotFound(message string) *AppError {
	return NewAppError(http.StatusNotFound, message)
}

func Internal(message string) *AppError {
	return NewAppError(http.StatusInternalServerError, message)
}

// StatusAndBody resolves any error into a status code and response envelope.
func StatusAndBody(err error) (int, Response) {
	var appErr *AppError
	var fiberErr *fiber.Error
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &appErr):
		res := ErrorResponse(appErr.Code, appErr.Message)
		res.Errors = appErr.Details
		return appErr.Code, res
	case errors.As(err, &validationErrs):
		res := ErrorResponse(http.StatusBadRequest, "Validation failed")
		res.Errors = validationDetails(validationErrs)
		return http.StatusBadRequest, res
	case errors.As(err, &fiberErr):
		return fiberErr.Code, ErrorResponse(fiberErr.Code, fiberErr.Message)
	default:
		return http.StatusInternalServerError, ErrorResponse(http.StatusInternalServerError, err.Error())
	}
}

// ErrorHandler is installed as fiber.Config.ErrorHandler.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	status, body := StatusAndBody(err)
	return ctx.Status(status).JSON(body)
}

// ErrorHandlerMiddleware renders errors returned by downstream handlers.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		if err := ctx.Next(); err != nil {
			return ErrorHandler(ctx, err)
		}
		return nil
	}
}
