package constants

import "time"

// Server Timeouts
const (
	DefaultReadTimeout     = 5 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 30 * time.Second
	DefaultIdleTimeout     = 120 * time.Second
)

// Database Timeouts
const (
	DBConnectionTimeout  = 10 * time.Second
	DBQueryTimeout       = 15 * time.Second
	DBHealthCheckTimeout = 5 * time.Second
	DBConnMaxLifetime    = 1 * time.Hour
)

// Cache and Breaker Durations
const (
	DefaultCacheTTL        = 5 * time.Minute
	DefaultCacheOpTimeout  = 250 * time.Millisecond
	DefaultBreakerInterval = 60 * time.Second
	DefaultBreakerTimeout  = 30 * time.Second
	DefaultRateLimitWindow = time.Minute
)
