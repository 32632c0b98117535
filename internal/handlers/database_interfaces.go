package handlers

import (
	"context"

	"github.com/npri-watch/npri-api/internal/query"
	"github.com/npri-watch/npri-api/internal/service"
)

// DatabaseServiceInterface defines methods required from DatabaseService
type DatabaseServiceInterface interface {
	Fetch(ctx context.Context, view, params string) (*service.Result, error)
	ExecuteSQL(ctx context.Context, statement string) (*service.Result, error)
	HealthCheck(ctx context.Context) error
	BreakerState() string
	Registry() *query.Registry
	PassthroughEnabled() bool
}

// Ensure DatabaseService implements DatabaseServiceInterface.
var _ DatabaseServiceInterface = (*service.DatabaseService)(nil)
