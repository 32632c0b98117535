// Package constants provides shared constant values used throughout the application.
//
// The defaults.go file defines default values and limits used throughout the application.
// These constants provide fallbacks for configuration settings and establish
// boundaries for resource usage.
package constants

// Default Configuration Values define fallback settings when not specified in configuration.
const (
	// DefaultServerPort is the default HTTP server port.
	DefaultServerPort = 8080

	// DefaultDBPort is the default PostgreSQL port.
	DefaultDBPort = 5432

	// DefaultDBSSLMode is the sslmode passed to lib/pq.
	DefaultDBSSLMode = "disable"

	// DefaultDBMaxOpenConns bounds the number of concurrent database sessions.
	// Idle connections are never retained.
	DefaultDBMaxOpenConns = 10

	// DefaultLogLevel is the default logging verbosity level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default logging output format.
	DefaultLogFormat = "json"

	// DefaultAppName is reported by /version and in build info metrics.
	DefaultAppName = "npri-api"
)

// Environment Types define the recognized application running environments.
const (
	// EnvDevelopment identifies a development environment with debugging features enabled.
	EnvDevelopment = "development"

	// EnvTesting identifies a testing environment for automated tests.
	EnvTesting = "testing"

	// EnvProduction identifies a production environment with optimized settings.
	EnvProduction = "production"
)

// Result Cache Defaults
const (
	// CacheDriverMemory keeps results in a process local LRU.
	CacheDriverMemory = "memory"

	// CacheDriverRedis shares results between instances through Redis.
	CacheDriverRedis = "redis"

	// CacheDriverNone disables result caching.
	CacheDriverNone = "none"

	// DefaultCacheSize is the number of result sets the memory cache holds.
	DefaultCacheSize = 512

	// DefaultCacheMaxBytes skips caching of encoded results larger than this.
	DefaultCacheMaxBytes = 4 << 20

	// CacheKeyPrefix namespaces result keys in shared stores.
	CacheKeyPrefix = "npri:"
)

// Rate Limit and Breaker Defaults
const (
	// DefaultRateLimitRequests is the per IP request budget per window.
	DefaultRateLimitRequests = 120

	// DefaultBreakerMaxRequests is the number of probes allowed while half open.
	DefaultBreakerMaxRequests = 1

	// DefaultBreakerFailureThreshold is the consecutive failure count that opens the breaker.
	DefaultBreakerFailureThreshold = 5
)

// Masking
const (
	// LogRedactedValue replaces secrets in log output.
	LogRedactedValue = "[REDACTED]"
)

// Logging Limits
const (
	// MaxLoggedQueryLength truncates statement text in log lines.
	MaxLoggedQueryLength = 2000
)
