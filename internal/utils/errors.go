package utils

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/lib/pq"
	"github.com/sony/gobreaker/v2"

	"github.com/npri-watch/npri-api/internal/constants"
)

// Custom error types for the application
var (
	ErrNotFound       = errors.New(constants.ErrorNotFound)
	ErrForbidden      = errors.New(constants.ErrorForbidden)
	ErrBadRequest     = errors.New(constants.ErrorBadRequest)
	ErrInternalServer = errors.New(constants.ErrorInternalServer)
	ErrValidation     = errors.New(constants.ErrorValidation)
	ErrUnavailable    = errors.New(constants.ErrorUnavailable)
	ErrTimeout        = errors.New(constants.ErrorTimeout)
)

// AppError represents an application error with additional context
type AppError struct {
	Err        error  // The underlying error
	StatusCode int    // HTTP status code
	Code       string // Machine readable code; derived from Err when empty
	Message    string // User-friendly error message
	DevInfo    string // Additional information for developers
	Field      string // Field related to the error (for validation errors)
	Details    map[string]any
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new validation error for a specific field
func NewValidationError(field, message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		StatusCode: http.StatusBadRequest,
		Message:    message,
		Field:      field,
	}
}

// NewBadRequestError creates a new bad request error
func NewBadRequestError(message string) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		StatusCode: http.StatusBadRequest,
		Message:    message,
	}
}

// NewCodedBadRequestError creates a bad request error carrying its own code
// and the offending input in Details.
func NewCodedBadRequestError(code, message string, details map[string]any) *AppError {
	return &AppError{
		Err:        ErrBadRequest,
		StatusCode: http.StatusBadRequest,
		Code:       code,
		Message:    message,
		Details:    details,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(resourceType string, identifier interface{}) *AppError {
	return &AppError{
		Err:        ErrNotFound,
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf("%s with identifier '%v' not found", resourceType, identifier),
	}
}

// NewForbiddenError creates a new forbidden error
func NewForbiddenError(message string) *AppError {
	if message == "" {
		message = constants.MsgPermissionDenied
	}
	return &AppError{
		Err:        ErrForbidden,
		StatusCode: http.StatusForbidden,
		Message:    message,
	}
}

// NewInternalServerError creates a new internal server error
func NewInternalServerError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:        ErrInternalServer,
		StatusCode: http.StatusInternalServerError,
		Message:    constants.MsgInternalServerError,
		DevInfo:    devInfo,
	}
}

// NewUnavailableError reports that the database is refusing work.
func NewUnavailableError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:        ErrUnavailable,
		StatusCode: http.StatusServiceUnavailable,
		Message:    constants.MsgDatabaseUnavailable,
		DevInfo:    devInfo,
	}
}

// NewTimeoutError reports a query that exceeded its deadline.
func NewTimeoutError(err error) *AppError {
	devInfo := ""
	if err != nil {
		devInfo = err.Error()
	}
	return &AppError{
		Err:        ErrTimeout,
		StatusCode: http.StatusGatewayTimeout,
		Message:    constants.MsgQueryTimeout,
		DevInfo:    devInfo,
	}
}

// ParseError attempts to parse various types of errors into an AppError
func ParseError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return NewNotFoundError("Resource", "")
	case errors.Is(err, ErrForbidden):
		return NewForbiddenError("")
	case errors.Is(err, ErrBadRequest):
		return NewBadRequestError(err.Error())
	case errors.Is(err, ErrValidation):
		return NewValidationError("", err.Error())
	case errors.Is(err, ErrUnavailable),
		errors.Is(err, gobreaker.ErrOpenState),
		errors.Is(err, gobreaker.ErrTooManyRequests):
		return NewUnavailableError(err)
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return NewTimeoutError(err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return parsePQError(pqErr)
	}

	if strings.Contains(strings.ToLower(err.Error()), "no rows") {
		return &AppError{
			Err:        ErrNotFound,
			StatusCode: http.StatusNotFound,
			Message:    constants.MsgResourceNotFound,
			DevInfo:    err.Error(),
		}
	}

	return NewInternalServerError(err)
}

// parsePQError maps PostgreSQL error codes onto client facing errors.
// The server message is kept in DevInfo and never returned to the client.
func parsePQError(pqErr *pq.Error) *AppError {
	code := string(pqErr.Code)

	switch code {
	case constants.PGErrorInsufficientPriv, constants.PGErrorReadOnlyTx:
		return &AppError{
			Err:        ErrForbidden,
			StatusCode: http.StatusForbidden,
			Message:    constants.MsgPermissionDenied,
			DevInfo:    pqErr.Error(),
		}
	case constants.PGErrorQueryCanceled:
		return NewTimeoutError(pqErr)
	}

	if IsClientSQLError(pqErr) {
		return &AppError{
			Err:        ErrBadRequest,
			StatusCode: http.StatusBadRequest,
			Code:       constants.CodeInvalidSQL,
			Message:    constants.MsgInvalidSQL,
			DevInfo:    pqErr.Error(),
			Details:    map[string]any{"sqlstate": code},
		}
	}

	return NewInternalServerError(pqErr)
}

// IsClientSQLError reports whether err is a PostgreSQL error caused by the
// statement itself (syntax, unknown relation, bad literal) rather than the server.
func IsClientSQLError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code.Class()) {
	case constants.PGErrorClassSyntaxOrRule:
		return string(pqErr.Code) != constants.PGErrorInsufficientPriv
	case constants.PGErrorClassDataException:
		return true
	}
	return string(pqErr.Code) == constants.PGErrorReadOnlyTx
}

// StatusCode returns the HTTP status code for an error
func StatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
