// Package utils provides utility functions and helpers for the application.
// This file implements the response writers shared by every endpoint.
//
// Successful view and SQL queries return their rows as a bare JSON array so that
// notebooks can load them directly. Every other response, and every error, uses
// the Response envelope.
package utils

import (
	"net/http"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/npri-watch/npri-api/internal/constants"
)

// Response represents a standardized API response.
type Response struct {
	Success bool        `json:"success"`         // Whether the request was successful
	Data    interface{} `json:"data,omitempty"`  // The response data (omitted for error responses)
	Error   *ErrorInfo  `json:"error,omitempty"` // Error information (omitted for successful responses)
}

// ErrorInfo represents error information in the response.
type ErrorInfo struct {
	Code    string         `json:"code"`              // A machine-readable error code
	Message string         `json:"message"`           // A human-readable error message
	Details map[string]any `json:"details,omitempty"` // The offending input, when there is one
}

// JSON sends an enveloped JSON response with the given status code and data.
// The success flag follows the status code.
func JSON(w http.ResponseWriter, statusCode int, data interface{}) {
	response := Response{
		Success: statusCode >= 200 && statusCode < 300,
		Data:    data,
	}

	SendJSON(w, statusCode, response)
}

// Error sends an error response with the given status code and error information.
func Error(w http.ResponseWriter, statusCode int, code, message string, details map[string]any) {
	response := Response{
		Success: constants.ResponseFailure,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
			Details: details,
		},
	}

	SendJSON(w, statusCode, response)
}

// ErrorCode returns the machine readable code for an AppError.
func ErrorCode(err *AppError) string {
	if err.Code != "" {
		return err.Code
	}

	switch err.Err {
	case ErrNotFound:
		return constants.CodeNotFound
	case ErrBadRequest:
		return constants.CodeBadRequest
	case ErrForbidden:
		return constants.CodeForbidden
	case ErrValidation:
		return constants.CodeValidationError
	case ErrUnavailable:
		return constants.CodeUnavailable
	case ErrTimeout:
		return constants.CodeTimeout
	}
	return constants.CodeInternalError
}

// ErrorFromAppError sends an error response based on an AppError.
// DevInfo is logged for server errors and never sent to the client.
func ErrorFromAppError(w http.ResponseWriter, err *AppError) {
	if err.StatusCode >= http.StatusInternalServerError {
		log.Error().
			Int("status", err.StatusCode).
			Str("dev_info", err.DevInfo).
			Msg(err.Message)
	}

	details := err.Details
	if err.Field != "" {
		if details == nil {
			details = map[string]any{}
		}
		details[err.Field] = err.Message
	}

	Error(w, err.StatusCode, ErrorCode(err), err.Message, details)
}

// SendJSON is a helper function to send JSON data with proper headers.
func SendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal JSON response")
		w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		if _, err := w.Write([]byte(`{"success":false,"error":{"code":"internal_error","message":"Failed to generate response"}}`)); err != nil {
			log.Error().Err(err).Msg("Failed to write error response")
		}
		return
	}

	SendRawJSON(w, statusCode, jsonData)
}

// SendRawJSON writes an already encoded JSON document.
func SendRawJSON(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeJSON)
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// HTML writes a rendered HTML page.
func HTML(w http.ResponseWriter, statusCode int, body []byte) {
	w.Header().Set(constants.HeaderContentType, constants.ContentTypeHTML)
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("Failed to write HTML response")
	}
}

// NotFound sends a 404 Not Found response with the given message.
func NotFound(w http.ResponseWriter, message string) {
	if message == "" {
		message = constants.MsgResourceNotFound
	}
	Error(w, http.StatusNotFound, constants.CodeNotFound, message, nil)
}

// MethodNotAllowed sends a 405 Method Not Allowed response.
func MethodNotAllowed(w http.ResponseWriter) {
	Error(w, http.StatusMethodNotAllowed, constants.CodeMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), nil)
}

// TooManyRequests sends a 429 response.
func TooManyRequests(w http.ResponseWriter) {
	Error(w, http.StatusTooManyRequests, constants.CodeRateLimited, constants.MsgRateLimited, nil)
}

// InternalServerError sends a 500 Internal Server Error response.
// The error is logged but not exposed to the client.
func InternalServerError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("Internal server error")
	Error(w, http.StatusInternalServerError, constants.CodeInternalError, constants.MsgInternalServerError, nil)
}
