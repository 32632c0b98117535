package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/npri-watch/npri-api/internal/cache"
	"github.com/npri-watch/npri-api/internal/config"
	"github.com/npri-watch/npri-api/internal/database"
)

// MockQuerier implements database.Querier
type MockQuerier struct {
	mock.Mock
}

func (m *MockQuerier) Query(ctx context.Context, q string, args ...any) (*database.ResultSet, error) {
	ret := m.Called(ctx, q, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*database.ResultSet), ret.Error(1)
}

func (m *MockQuerier) QueryReadOnly(ctx context.Context, q string, args ...any) (*database.ResultSet, error) {
	ret := m.Called(ctx, q, args)
	if ret.Get(0) == nil {
		return nil, ret.Error(1)
	}
	return ret.Get(0).(*database.ResultSet), ret.Error(1)
}

func (m *MockQuerier) HealthCheck(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func createTestConfig() *config.AppConfig {
	return &config.AppConfig{
		App: config.AppSettings{
			Environment: "testing",
			Name:        "npri-api",
			Version:     "1.0.0",
		},
		Server: config.ServerSettings{
			Host:            "127.0.0.1",
			Port:            8080,
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: time.Second,
		},
		Logging: config.LoggingSettings{
			Level:  "info",
			Format: "json",
		},
		CORS: config.CORSSettings{
			AllowedOrigins: []string{"http://example.com"},
		},
		Cache: config.CacheSettings{
			Driver: "none",
		},
	}
}

func newTestServer(t *testing.T, cfg *config.AppConfig) (*Server, *MockQuerier) {
	t.Helper()

	db := new(MockQuerier)
	s, err := NewWithQuerier(cfg, db, cache.Noop{})
	require.NoError(t, err)
	return s, db
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.GetRouter().ServeHTTP(rec, req)
	return rec
}

func TestServerCreation(t *testing.T) {
	s, _ := newTestServer(t, createTestConfig())

	assert.NotNil(t, s.Handlers.DataHandler)
	assert.NotNil(t, s.GetRouter())
	assert.Equal(t, "127.0.0.1:8080", s.httpServer.Addr)
	assert.Equal(t, 120*time.Second, s.httpServer.IdleTimeout)

	_, err := NewWithQuerier(createTestConfig(), nil, nil)
	assert.Error(t, err)
}

func TestServerRoutePatterns(t *testing.T) {
	s, _ := newTestServer(t, createTestConfig())

	routes := s.Routes()
	for _, want := range []string{
		"GET /",
		"GET /health",
		"GET /version",
		"GET /metrics",
		"GET /static/*",
		"GET /api/{application}/{view}/{params}",
		"GET /sql/*",
	} {
		assert.Contains(t, routes, want)
	}
	assert.NotContains(t, routes, "POST /api/{application}/{view}/{params}")
}

func TestRoutes(t *testing.T) {
	t.Run("View query", func(t *testing.T) {
		s, db := newTestServer(t, createTestConfig())
		db.On("Query", mock.Anything, `SELECT * FROM "npri_exporter_table" WHERE "NpriID" IN ($1)`, []any{"1"}).
			Return(&database.ResultSet{Columns: []string{"NpriID"}, Rows: [][]any{{int64(1)}}}, nil)

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/data/facilities/ids=1", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `[{"NpriID":1}]`, rec.Body.String())
		assert.NotEmpty(t, rec.Header().Get("X-Query-ID"))
		assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	})

	t.Run("Health", func(t *testing.T) {
		s, db := newTestServer(t, createTestConfig())
		db.On("HealthCheck", mock.Anything).Return(errors.New("down"))

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Contains(t, rec.Header().Get("Cache-Control"), "no-cache")
	})

	t.Run("Version", func(t *testing.T) {
		s, _ := newTestServer(t, createTestConfig())

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/version", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var resp struct {
			Data map[string]string `json:"data"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "1.0.0", resp.Data["version"])
	})

	t.Run("Metrics", func(t *testing.T) {
		s, _ := newTestServer(t, createTestConfig())
		serve(s, httptest.NewRequest(http.MethodGet, "/version", nil))

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "npri_http_requests_total")
	})

	t.Run("Static", func(t *testing.T) {
		s, _ := newTestServer(t, createTestConfig())

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/static/report.css", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Home", func(t *testing.T) {
		s, _ := newTestServer(t, createTestConfig())

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "time_company")
	})

	t.Run("Passthrough disabled", func(t *testing.T) {
		s, _ := newTestServer(t, createTestConfig())

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/sql/SELECT+1", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Passthrough enabled", func(t *testing.T) {
		cfg := createTestConfig()
		cfg.Passthrough.Enabled = true
		s, db := newTestServer(t, cfg)
		db.On("QueryReadOnly", mock.Anything, "SELECT 1 AS n", []any(nil)).
			Return(&database.ResultSet{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}, nil)

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/sql/SELECT+1+AS+n", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, `[{"n":1}]`, rec.Body.String())
	})

	t.Run("Unknown route", func(t *testing.T) {
		s, _ := newTestServer(t, createTestConfig())

		rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/data/facilities", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"not_found"`)
	})

	t.Run("Method not allowed", func(t *testing.T) {
		s, _ := newTestServer(t, createTestConfig())

		rec := serve(s, httptest.NewRequest(http.MethodPost, "/api/data/facilities/ids=1", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestCORS(t *testing.T) {
	s, db := newTestServer(t, createTestConfig())
	db.On("HealthCheck", mock.Anything).Return(nil)

	t.Run("Allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://example.com")

		rec := serve(s, req)

		assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, strings.ToLower(rec.Header().Get("Access-Control-Expose-Headers")), "x-query-id")
	})

	t.Run("Other origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("Origin", "http://evil.example")

		rec := serve(s, req)

		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/data/facilities/ids=1", nil)
		req.Header.Set("Origin", "http://example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)

		rec := serve(s, req)

		assert.Equal(t, "http://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
		assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodGet)
	})
}

func TestRateLimit(t *testing.T) {
	cfg := createTestConfig()
	cfg.RateLimit = config.RateLimitSettings{Enabled: true, Requests: 1, Window: time.Minute}
	s, db := newTestServer(t, cfg)
	db.On("Query", mock.Anything, mock.Anything, mock.Anything).
		Return(&database.ResultSet{Columns: []string{"NpriID"}, Rows: [][]any{}}, nil)
	db.On("HealthCheck", mock.Anything).Return(nil)

	first := serve(s, httptest.NewRequest(http.MethodGet, "/api/data/facilities/ids=1", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "[]", first.Body.String())

	second := serve(s, httptest.NewRequest(http.MethodGet, "/api/data/facilities/ids=2", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)

	// operational endpoints are not limited
	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, serve(s, httptest.NewRequest(http.MethodGet, "/health", nil)).Code)
	}
}

func TestRateLimit_ForwardedFor(t *testing.T) {
	newLimited := func(trustProxy bool) *Server {
		cfg := createTestConfig()
		cfg.Server.TrustProxy = trustProxy
		cfg.RateLimit = config.RateLimitSettings{Enabled: true, Requests: 1, Window: time.Minute}
		s, db := newTestServer(t, cfg)
		db.On("Query", mock.Anything, mock.Anything, mock.Anything).
			Return(&database.ResultSet{Columns: []string{"NpriID"}, Rows: [][]any{}}, nil)
		return s
	}

	request := func(forwardedFor string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/api/data/facilities/ids=1", nil)
		req.RemoteAddr = "198.51.100.7:4000"
		req.Header.Set("X-Forwarded-For", forwardedFor)
		return req
	}

	t.Run("Ignored without a trusted proxy", func(t *testing.T) {
		s := newLimited(false)

		assert.Equal(t, http.StatusOK, serve(s, request("203.0.113.1")).Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(s, request("203.0.113.2")).Code)
	})

	t.Run("Honoured behind a trusted proxy", func(t *testing.T) {
		s := newLimited(true)

		assert.Equal(t, http.StatusOK, serve(s, request("203.0.113.1")).Code)
		assert.Equal(t, http.StatusOK, serve(s, request("203.0.113.2")).Code)
		assert.Equal(t, http.StatusTooManyRequests, serve(s, request("203.0.113.2")).Code)
	})
}

func TestGetAllowedOrigins(t *testing.T) {
	assert.Equal(t, []string{"*"}, getAllowedOrigins(nil))
	assert.Equal(t, []string{"*"}, getAllowedOrigins([]string{" ", ""}))
	assert.Equal(t,
		[]string{"http://a.example", "http://b.example"},
		getAllowedOrigins([]string{" http://a.example", "http://b.example "}))
}

func TestShutdown(t *testing.T) {
	s, _ := newTestServer(t, createTestConfig())
	s.httpServer.Addr = "127.0.0.1:0"

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	assert.NoError(t, s.Shutdown(ctx))
}
