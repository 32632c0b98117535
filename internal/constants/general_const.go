// Package constants provides shared constant values used throughout the application.
//
// The general_const.go file defines routing paths and request parameter names.
package constants

// Base Routes define the root URL paths for different parts of the API.
const (
	// APIBasePath is the root path prefix for view queries.
	APIBasePath = "/api"

	// SQLBasePath is the root path prefix for raw SQL passthrough.
	SQLBasePath = "/sql"

	// HealthPath is the endpoint for health checks and system status.
	HealthPath = "/health"

	// VersionPath reports build information.
	VersionPath = "/version"

	// MetricsPath exposes Prometheus metrics.
	MetricsPath = "/metrics"

	// StaticPath serves embedded stylesheets.
	StaticPath = "/static"
)

// URL Parameters define path parameter names used in route definitions.
const (
	// ParamApplication selects the output format of a view query.
	ParamApplication = "application"

	// ParamView names the preset view to query.
	ParamView = "view"

	// ParamParams carries the semicolon separated filter clauses.
	ParamParams = "params"
)

// Applications accepted in the {application} path segment.
const (
	// AppData returns rows as a JSON array.
	AppData = "data"

	// AppReport returns rows as an HTML table.
	AppReport = "report"
)

// Filter Syntax
const (
	// ClauseSeparator splits the params segment into clauses.
	ClauseSeparator = ";"

	// KeyValueSeparator splits a clause into key and value.
	KeyValueSeparator = "="

	// ListSeparator splits a value into list items.
	ListSeparator = ","
)
