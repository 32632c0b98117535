package utils

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/npri-watch/npri-api/internal/config"
	"github.com/npri-watch/npri-api/internal/constants"
)

// Log field names shared by the request and query loggers.
const (
	LogFieldRequestID = "request_id"
	LogFieldQueryID   = "query_id"
	LogFieldView      = "view"
)

// InitLogger initializes the application logger with the given configuration
func InitLogger(cfg *config.AppConfig) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Logger = newLogger(cfg, os.Stdout)

	log.Info().Msg("Logger initialized")
}

// newLogger builds the global logger. The console writer is only used
// outside production.
func newLogger(cfg *config.AppConfig, out io.Writer) zerolog.Logger {
	output := out
	if strings.ToLower(cfg.Logging.Format) == "console" && !cfg.App.IsProduction() {
		output = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
		}
	}

	return zerolog.New(output).
		With().
		Timestamp().
		Str("app", cfg.App.Name).
		Str("version", cfg.App.Version).
		Str("env", cfg.App.Environment).
		Logger()
}

// LogHTTPRequest logs an HTTP request with request details
func LogHTTPRequest(requestID, method, path, remoteAddr, userAgent string, statusCode int, latency time.Duration) {
	// health and metrics scrapes are only interesting when debugging
	if path == constants.HealthPath || path == constants.MetricsPath {
		if zerolog.GlobalLevel() > zerolog.DebugLevel {
			return
		}
	}

	event := log.Debug()
	switch {
	case statusCode >= 500:
		event = log.Error()
	case statusCode >= 400:
		event = log.Warn()
	case strings.HasPrefix(path, constants.APIBasePath), strings.HasPrefix(path, constants.SQLBasePath):
		event = log.Info()
	}

	event.
		Str(LogFieldRequestID, requestID).
		Str("method", method).
		Str("path", path).
		Str("remote_addr", remoteAddr).
		Str("user_agent", userAgent).
		Int("status", statusCode).
		Dur("latency", latency).
		Msg("HTTP Request")
}

// LogPanic logs a panic recovered while serving a request.
func LogPanic(requestID, method, path, remoteAddr string, recovered any, stack []byte) {
	log.Error().
		Str(LogFieldRequestID, requestID).
		Str("panic", fmt.Sprintf("%v", recovered)).
		Str("stack", string(stack)).
		Str("method", method).
		Str("path", path).
		Str("remote_addr", remoteAddr).
		Msg("Panic recovered in request handler")
}

// LogDBQuery logs an executed statement. Argument values are filter input and
// are left out; only their count is recorded.
func LogDBQuery(queryID, query string, argCount int, duration time.Duration, err error) {
	event := log.Debug()
	if err != nil {
		event = log.Error().Err(err)
	}

	event.
		Str(LogFieldQueryID, queryID).
		Str("query", TruncateString(query, constants.MaxLoggedQueryLength)).
		Int("args", argCount).
		Dur("duration", duration).
		Msg("Database query executed")
}
