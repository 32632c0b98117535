// Package constants provides shared constant values used throughout the application.
//
// The httpcodes.go file defines HTTP-related constants such as response codes,
// headers, and content types.
package constants

// HTTP Response Code Types define application-specific response codes.
const (
	// ResponseSuccess indicates that the request was processed successfully.
	ResponseSuccess = true

	// ResponseFailure indicates that the request processing failed.
	ResponseFailure = false

	// CodeBadRequest indicates a malformed or invalid request.
	CodeBadRequest = "bad_request"

	// CodeForbidden indicates the statement is not permitted.
	CodeForbidden = "forbidden"

	// CodeNotFound indicates the requested resource does not exist.
	CodeNotFound = "not_found"

	// CodeMethodNotAllowed indicates the HTTP method is not allowed for the endpoint.
	CodeMethodNotAllowed = "method_not_allowed"

	// CodeInternalError indicates an unexpected server error.
	CodeInternalError = "internal_error"

	// CodeValidationError indicates request validation failed.
	CodeValidationError = "validation_error"

	// CodeUnavailable indicates the database circuit is open.
	CodeUnavailable = "unavailable"

	// CodeTimeout indicates the query deadline was exceeded.
	CodeTimeout = "timeout"

	// CodeRateLimited indicates the client exceeded its request budget.
	CodeRateLimited = "rate_limited"
)

// HTTP Header Names define common HTTP headers used in requests and responses.
const (
	HeaderContentType = "Content-Type"

	// HeaderXRequestID contains a unique identifier for the HTTP request.
	HeaderXRequestID = "X-Request-ID"

	// HeaderXQueryID identifies the built query for log correlation.
	HeaderXQueryID = "X-Query-ID"

	// HeaderXCache reports whether a result came from the result cache.
	HeaderXCache = "X-Cache"

	HeaderXContentTypeOptions   = "X-Content-Type-Options"
	HeaderXFrameOptions         = "X-Frame-Options"
	HeaderReferrerPolicy        = "Referrer-Policy"
	HeaderContentSecurityPolicy = "Content-Security-Policy"
)

// HTTP Content Types define media types used in the Content-Type header.
const (
	// ContentTypeJSON specifies the content is in JSON format.
	ContentTypeJSON = "application/json"

	// ContentTypeHTML specifies an HTML document.
	ContentTypeHTML = "text/html; charset=utf-8"
)

// Cache status values for HeaderXCache.
const (
	CacheHit  = "HIT"
	CacheMiss = "MISS"
)

// Security Header Values define the values for various security-related HTTP headers.
const (
	// FrameOptionsDeny prevents the page from being displayed in a frame.
	FrameOptionsDeny = "DENY"

	// ContentTypeOptionsNoSniff prevents MIME type sniffing.
	ContentTypeOptionsNoSniff = "nosniff"

	// ReferrerPolicyStrictOrigin restricts referrer information to origin only for cross-origin requests.
	ReferrerPolicyStrictOrigin = "strict-origin-when-cross-origin"

	// CSPSelf restricts content sources to the same origin. Reports only use
	// the embedded stylesheet.
	CSPSelf = "default-src 'self'; style-src 'self'"
)
