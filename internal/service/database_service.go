package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/npri-watch/npri-api/internal/cache"
	"github.com/npri-watch/npri-api/internal/constants"
	"github.com/npri-watch/npri-api/internal/database"
	"github.com/npri-watch/npri-api/internal/metrics"
	"github.com/npri-watch/npri-api/internal/query"
	"github.com/npri-watch/npri-api/internal/utils"
)

// Options tunes DatabaseService.
type Options struct {
	// CacheTTL is passed to Cache.Set.
	CacheTTL time.Duration

	// MaxCacheBytes skips caching encoded results larger than this. Zero
	// disables the limit.
	MaxCacheBytes int

	// Passthrough enables ExecuteSQL.
	Passthrough bool
}

// Result is a fetched result set plus request metadata.
type Result struct {
	*database.ResultSet

	QueryID string
	View    query.View
	Cached  bool
}

// DatabaseService runs view queries and passthrough statements
type DatabaseService struct {
	builder *query.Builder
	db      database.Querier
	cache   cache.Cache
	opts    Options
}

// NewDatabaseService creates a new DatabaseService. A nil cache disables caching.
func NewDatabaseService(builder *query.Builder, db database.Querier, c cache.Cache, opts Options) *DatabaseService {
	if c == nil {
		c = cache.Noop{}
	}
	return &DatabaseService{
		builder: builder,
		db:      db,
		cache:   c,
		opts:    opts,
	}
}

// Registry exposes the views and filters queries are built from.
func (s *DatabaseService) Registry() *query.Registry {
	return s.builder.Registry()
}

// PassthroughEnabled reports whether ExecuteSQL accepts statements.
func (s *DatabaseService) PassthroughEnabled() bool {
	return s.opts.Passthrough
}

// Fetch builds the query for view and params and returns its rows.
func (s *DatabaseService) Fetch(ctx context.Context, viewName, params string) (*Result, error) {
	q, err := s.builder.Build(viewName, params)
	if err != nil {
		appErr := buildError(viewName, err)
		label := viewName
		if errors.Is(err, query.ErrUnknownView) {
			label = "unknown"
		}
		result := appErr.Code
		if result == "" {
			result = metrics.OutcomeError
		}
		metrics.IncQueryBuilt(label, result)
		return nil, appErr
	}
	metrics.IncQueryBuilt(q.View, "ok")

	view, _ := s.builder.Registry().View(q.View)
	ctx = database.WithQueryID(ctx, q.ID)

	log.Debug().
		Str(utils.LogFieldQueryID, q.ID).
		Str(utils.LogFieldView, q.View).
		Int("args", len(q.Args)).
		Msg("Built view query")

	rs, cached, err := s.cachedQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	return &Result{ResultSet: rs, QueryID: q.ID, View: view, Cached: cached}, nil
}

// cachedQuery serves q from the cache when possible. Cache failures are
// logged and treated as misses.
func (s *DatabaseService) cachedQuery(ctx context.Context, q *query.Query) (*database.ResultSet, bool, error) {
	driver := s.cache.Name()

	key, err := cache.Key(q.SQL, q.Args)
	if err != nil {
		log.Warn().Err(err).Str(utils.LogFieldQueryID, q.ID).Msg("Failed to derive cache key")
		rs, err := s.db.Query(ctx, q.SQL, q.Args...)
		return rs, false, err
	}

	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		metrics.IncCacheError(driver)
		log.Warn().Err(err).Str(utils.LogFieldQueryID, q.ID).Msg("Cache lookup failed")
	} else if ok {
		rs, err := database.DecodeResultSet(data)
		if err == nil {
			metrics.IncCacheHit(driver)
			return rs, true, nil
		}
		metrics.IncCacheError(driver)
		log.Warn().Err(err).Str(utils.LogFieldQueryID, q.ID).Msg("Discarding unreadable cache entry")
	} else {
		metrics.IncCacheMiss(driver)
	}

	rs, err := s.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, false, err
	}

	s.store(ctx, key, q.ID, rs)
	return rs, false, nil
}

func (s *DatabaseService) store(ctx context.Context, key, queryID string, rs *database.ResultSet) {
	data, err := rs.Encode()
	if err != nil {
		log.Warn().Err(err).Str(utils.LogFieldQueryID, queryID).Msg("Failed to encode result for cache")
		return
	}

	if s.opts.MaxCacheBytes > 0 && len(data) > s.opts.MaxCacheBytes {
		log.Debug().
			Str(utils.LogFieldQueryID, queryID).
			Int("bytes", len(data)).
			Msg("Result too large to cache")
		return
	}

	if err := s.cache.Set(ctx, key, data, s.opts.CacheTTL); err != nil {
		metrics.IncCacheError(s.cache.Name())
		log.Warn().Err(err).Str(utils.LogFieldQueryID, queryID).Msg("Failed to store result in cache")
	}
}

// ExecuteSQL runs a single raw statement in a read-only transaction. Only
// SELECT and WITH statements are accepted; anything that tries to write is
// rejected by the database.
func (s *DatabaseService) ExecuteSQL(ctx context.Context, statement string) (*Result, error) {
	if !s.opts.Passthrough {
		return nil, &utils.AppError{
			Err:        utils.ErrNotFound,
			StatusCode: http.StatusNotFound,
			Message:    constants.MsgResourceNotFound,
		}
	}

	statement = strings.TrimSpace(statement)
	if !utils.HasPrefixFold(statement, "SELECT") && !utils.HasPrefixFold(statement, "WITH") {
		return nil, utils.NewCodedBadRequestError(constants.CodeInvalidSQL, constants.MsgReadOnlySQL, nil)
	}

	// Exactly one statement. Only a trailing semicolon is tolerated, even
	// inside literals.
	statement = strings.TrimSpace(strings.TrimSuffix(statement, ";"))
	if strings.Contains(statement, ";") {
		return nil, utils.NewCodedBadRequestError(constants.CodeInvalidSQL, constants.MsgMultipleStatements, nil)
	}

	id := uuid.NewString()
	ctx = database.WithQueryID(ctx, id)

	log.Info().
		Str(utils.LogFieldQueryID, id).
		Str("statement", utils.TruncateString(statement, constants.MaxLoggedQueryLength)).
		Msg("Passthrough statement requested")

	rs, err := s.db.QueryReadOnly(ctx, statement)
	if err != nil {
		return nil, err
	}

	return &Result{ResultSet: rs, QueryID: id}, nil
}

// HealthCheck reports whether the database answers.
func (s *DatabaseService) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}

// BreakerState reports the database circuit breaker state when the querier
// has one.
func (s *DatabaseService) BreakerState() string {
	if b, ok := s.db.(interface{ BreakerState() string }); ok {
		return b.BreakerState()
	}
	return constants.BreakerStateDisabled
}

// buildError turns a query builder failure into a 400 with a stable code.
func buildError(viewName string, err error) *utils.AppError {
	details := map[string]any{}

	var fe *query.FilterError
	if errors.As(err, &fe) {
		details["key"] = fe.Key
		details["value"] = fe.Value
		if fe.Reason != "" {
			details["reason"] = fe.Reason
		}
	}

	switch {
	case errors.Is(err, query.ErrUnknownView):
		details["view"] = viewName
		return utils.NewCodedBadRequestError(constants.CodeUnknownView, constants.MsgUnknownView, details)
	case errors.Is(err, query.ErrUnknownFilter):
		return utils.NewCodedBadRequestError(constants.CodeUnknownFilter, constants.MsgUnknownFilter, details)
	case errors.Is(err, query.ErrNoFilters):
		return utils.NewCodedBadRequestError(constants.CodeNoFilters, constants.MsgNoFilters, nil)
	case errors.Is(err, query.ErrInvalidValue),
		errors.Is(err, query.ErrMalformedClause),
		errors.Is(err, query.ErrUnsupportedForView):
		return utils.NewCodedBadRequestError(constants.CodeInvalidFilter, constants.MsgInvalidFilter, details)
	}

	return utils.NewInternalServerError(fmt.Errorf("building query for %q: %w", viewName, err))
}
