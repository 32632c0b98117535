// Package database runs statements against the NPRI PostgreSQL database and
// materializes their results.
package database

import "context"

// Querier is the subset of DB the service layer depends on. It lets tests
// substitute the database without a driver.
type Querier interface {
	// Query runs a statement in auto-commit mode.
	Query(ctx context.Context, query string, args ...any) (*ResultSet, error)

	// QueryReadOnly runs a statement inside a READ ONLY transaction.
	QueryReadOnly(ctx context.Context, query string, args ...any) (*ResultSet, error)

	// HealthCheck verifies the database answers.
	HealthCheck(ctx context.Context) error
}

// Ensure DB implements Querier.
var _ Querier = (*DB)(nil)

type ctxKey int

const queryIDKey ctxKey = iota

// WithQueryID tags ctx so that query logs can be correlated with the request.
func WithQueryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, queryIDKey, id)
}

// QueryIDFromContext returns the id set by WithQueryID, or "".
func QueryIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(queryIDKey).(string)
	return id
}
