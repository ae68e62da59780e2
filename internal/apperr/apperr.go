package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Kind classifies an error into the HTTP status it maps to.
type Kind int

const (
	Unknown Kind = iota
	NotFound
	Conflict
	Forbidden
	Unauthorized
	Validation
)

// Error is the single error type flowing from repositories and handlers
// out to the response writer.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Status returns the HTTP status code for the error kind.
func (e *Error) Status() int {
	switch e.Kind {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Forbidden:
		return http.StatusForbidden
	case Unauthorized:
		return http.StatusUnauthorized
	case Validation:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...interface{}) *Error {
	return Newf(NotFound, format, args...)
}

func Conflictf(format string, args ...interface{}) *Error {
	return Newf(Conflict, format, args...)
}

func Validationf(format string, args ...interface{}) *Error {
	return Newf(Validation, format, args...)
}

func Unauthorizedf(format string, args ...interface{}) *Error {
	return Newf(Unauthorized, format, args...)
}

func Forbiddenf(format string, args ...interface{}) *Error {
	return Newf(Forbidden, format, args...)
}

// FromRepository translates persistence failures into the taxonomy.
// Known errors pass through untouched; gorm's not-found becomes NotFound;
// everything else is wrapped as Unknown carrying the driver detail.
func FromRepository(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return New(NotFound, "Entity not found")
	}
	return &Error{Kind: Unknown, Message: "Unknown error: " + err.Error(), Err: err}
}

// Respond writes the error to the client as {"error":true,"message":...}.
// Every handler funnels its failures through here.
func Respond(c echo.Context, err error) error {
	appErr := FromRepository(err)
	return c.JSON(appErr.Status(), echo.Map{
		"error":   true,
		"message": appErr.Message,
	})
}
