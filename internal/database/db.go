package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker/v2"

	"github.com/npri-watch/npri-api/internal/config"
	"github.com/npri-watch/npri-api/internal/constants"
	"github.com/npri-watch/npri-api/internal/metrics"
	"github.com/npri-watch/npri-api/internal/utils"
)

// BreakerName labels the database breaker in logs and metrics.
const BreakerName = "postgres"

// Query kinds used as metric labels.
const (
	KindView   = "view"
	KindSQL    = "sql"
	KindHealth = "health"
)

// DB wraps *sql.DB with a per-call timeout and a circuit breaker.
type DB struct {
	*sql.DB
	breaker      *gobreaker.CircuitBreaker[*ResultSet]
	queryTimeout time.Duration
}

// Options configures New.
type Options struct {
	QueryTimeout time.Duration
	Breaker      config.BreakerSettings
}

// Connect opens the database described by cfg and verifies it answers.
//
// Idle connections are never kept: each statement dials a fresh session
// which is closed once its rows are drained. MaxOpenConns bounds concurrency.
func Connect(ctx context.Context, cfg *config.AppConfig) (*DB, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DBConnectionTimeout)
	defer cancel()

	log.Info().
		Str("host", cfg.Database.Host).
		Int("port", cfg.Database.Port).
		Str("database", cfg.Database.Name).
		Str("user", cfg.Database.User).
		Msg("Connecting to database")

	sqlDB, err := sql.Open("postgres", cfg.Database.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(0)
	sqlDB.SetConnMaxLifetime(constants.DBConnMaxLifetime)

	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to database")

	return New(sqlDB, Options{
		QueryTimeout: cfg.Database.QueryTimeout,
		Breaker:      cfg.Breaker,
	}), nil
}

// New wraps an open *sql.DB.
func New(sqlDB *sql.DB, opts Options) *DB {
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = constants.DBQueryTimeout
	}

	db := &DB{DB: sqlDB, queryTimeout: timeout}
	if opts.Breaker.Enabled {
		db.breaker = newBreaker(opts.Breaker)
	}
	return db
}

func newBreaker(cfg config.BreakerSettings) *gobreaker.CircuitBreaker[*ResultSet] {
	threshold := cfg.FailureThreshold
	if threshold == 0 {
		threshold = constants.DefaultBreakerFailureThreshold
	}

	metrics.SetBreakerState(BreakerName, stateToFloat(gobreaker.StateClosed))

	return gobreaker.NewCircuitBreaker[*ResultSet](gobreaker.Settings{
		Name:        BreakerName,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		// Statements the server rejected say nothing about its health.
		IsSuccessful: func(err error) bool {
			return err == nil || utils.IsClientSQLError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
			metrics.SetBreakerState(name, stateToFloat(to))
			metrics.ObserveBreakerTransition(name, from.String(), to.String())
		},
	})
}

func stateToFloat(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	}
	return 0
}

// Close closes the database
func (db *DB) Close() {
	if db != nil && db.DB != nil {
		log.Info().Msg("Closing database")
		db.DB.Close()
	}
}

// Query runs a statement in auto-commit mode and reads all rows.
func (db *DB) Query(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	return db.run(ctx, KindView, query, args, func(ctx context.Context) (*ResultSet, error) {
		rows, err := db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, err
		}
		return ScanRows(rows)
	})
}

// QueryReadOnly runs a statement inside a READ ONLY transaction, so that
// statements which try to write fail with SQLSTATE 25006. The statement is
// prepared first, so the server accepts a single command only.
func (db *DB) QueryReadOnly(ctx context.Context, query string, args ...any) (*ResultSet, error) {
	return db.run(ctx, KindSQL, query, args, func(ctx context.Context) (*ResultSet, error) {
		var rs *ResultSet
		err := db.Transaction(ctx, &sql.TxOptions{ReadOnly: true}, func(tx *sql.Tx) error {
			stmt, err := tx.PrepareContext(ctx, query)
			if err != nil {
				return err
			}
			defer stmt.Close()

			rows, err := stmt.QueryContext(ctx, args...)
			if err != nil {
				return err
			}
			rs, err = ScanRows(rows)
			return err
		})
		return rs, err
	})
}

// run applies the timeout, breaker, logging and metrics around fn.
func (db *DB) run(ctx context.Context, kind, query string, args []any, fn func(context.Context) (*ResultSet, error)) (*ResultSet, error) {
	ctx, cancel := context.WithTimeout(ctx, db.queryTimeout)
	defer cancel()

	start := time.Now()

	var (
		rs  *ResultSet
		err error
	)
	if db.breaker != nil {
		rs, err = db.breaker.Execute(func() (*ResultSet, error) {
			return fn(ctx)
		})
	} else {
		rs, err = fn(ctx)
	}

	// lib/pq reports a cancelled statement as 57014; keep the deadline visible.
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}

	duration := time.Since(start)
	utils.LogDBQuery(QueryIDFromContext(ctx), query, len(args), duration, err)
	metrics.ObserveDBQuery(kind, outcome(err), duration.Seconds())
	if err == nil {
		metrics.ObserveRows(kind, len(rs.Rows))
	}

	return rs, err
}

func outcome(err error) string {
	switch {
	case err == nil:
		return metrics.OutcomeSuccess
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return metrics.OutcomeRejected
	case errors.Is(err, context.DeadlineExceeded):
		return metrics.OutcomeTimeout
	}
	return metrics.OutcomeError
}

// Transaction executes a function within a transaction
func (db *DB) Transaction(ctx context.Context, opts *sql.TxOptions, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to rollback transaction after panic")
			}
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("failed to rollback transaction: %w", rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// HealthCheck performs a health check on the database connection
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DBHealthCheckTimeout)
	defer cancel()

	start := time.Now()
	err := db.healthCheck(ctx)
	metrics.ObserveDBQuery(KindHealth, outcome(err), time.Since(start).Seconds())
	return err
}

func (db *DB) healthCheck(ctx context.Context) error {
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var result int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}

	if result != 1 {
		return fmt.Errorf("database returned unexpected result: %d", result)
	}

	return nil
}

// BreakerState reports the breaker state, or "disabled".
func (db *DB) BreakerState() string {
	if db.breaker == nil {
		return constants.BreakerStateDisabled
	}
	return db.breaker.State().String()
}
