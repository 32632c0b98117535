// Package constants provides shared constant values used throughout the application.
//
// The errorcodes.go file defines constants related to error handling, categorization,
// and messaging. User-facing messages are informative without exposing database
// internals.
package constants

// Error Types define the categories of errors that can occur in the application.
const (
	// ErrorNotFound indicates that a requested resource could not be found.
	ErrorNotFound = "resource not found"

	// ErrorForbidden indicates that the statement is not permitted.
	ErrorForbidden = "forbidden access"

	// ErrorBadRequest indicates that the request was malformed or invalid.
	ErrorBadRequest = "invalid request"

	// ErrorInternalServer indicates an unexpected internal error.
	ErrorInternalServer = "internal server error"

	// ErrorValidation indicates that input validation failed.
	ErrorValidation = "validation error"

	// ErrorUnavailable indicates that the database is not accepting work.
	ErrorUnavailable = "service unavailable"

	// ErrorTimeout indicates that a query exceeded its deadline.
	ErrorTimeout = "query timeout"
)

// Query Error Codes are returned in the error envelope for rejected view queries.
const (
	// CodeUnknownView indicates the {view} segment is not a preset view.
	CodeUnknownView = "unknown_view"

	// CodeUnknownFilter indicates a clause key that is not registered.
	CodeUnknownFilter = "unknown_filter"

	// CodeInvalidFilter indicates a clause value of the wrong shape.
	CodeInvalidFilter = "invalid_filter"

	// CodeNoFilters indicates a params segment without any clause.
	CodeNoFilters = "no_filters"

	// CodeInvalidSQL indicates a passthrough statement the database rejected.
	CodeInvalidSQL = "invalid_sql"
)

// User-Facing Error Messages define standardized messages that can be safely presented to users.
const (
	// MsgInternalServerError provides a generic server error message.
	MsgInternalServerError = "An internal server error occurred"

	// MsgResourceNotFound indicates that the requested resource does not exist.
	MsgResourceNotFound = "The requested resource could not be found"

	// MsgUnknownView is returned when the view is not one of the presets.
	MsgUnknownView = "Unknown view"

	// MsgUnknownFilter is returned when a filter key is not recognised.
	MsgUnknownFilter = "Unknown filter"

	// MsgInvalidFilter is returned when a filter value cannot be used.
	MsgInvalidFilter = "Invalid filter value"

	// MsgNoFilters is returned when a query carries no filter clauses.
	MsgNoFilters = "At least one filter is required"

	// MsgUnknownApplication is returned for an unsupported output format.
	MsgUnknownApplication = "Unknown application, expected data or report"

	// MsgInvalidSQL is returned when the database rejects a statement.
	MsgInvalidSQL = "The statement could not be executed"

	// MsgReadOnlySQL is returned for passthrough statements that are not queries.
	MsgReadOnlySQL = "Only SELECT and WITH statements are allowed"

	// MsgMultipleStatements is returned when the passthrough holds more than one statement.
	MsgMultipleStatements = "Only a single statement is allowed"

	// MsgSQLDecode is returned when the SQL segment is not valid URL encoding.
	MsgSQLDecode = "The SQL segment is not valid URL encoding"

	// MsgPermissionDenied is returned when the database refuses the statement.
	MsgPermissionDenied = "The statement is not permitted"

	// MsgDatabaseUnavailable is returned while the circuit breaker is open.
	MsgDatabaseUnavailable = "The database is temporarily unavailable"

	// MsgQueryTimeout is returned when a query exceeds its deadline.
	MsgQueryTimeout = "The query took too long to complete"

	// MsgRateLimited is returned when a client exceeds its request budget.
	MsgRateLimited = "Too many requests"
)
