package server

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/npri-watch/npri-api/internal/constants"
	"github.com/npri-watch/npri-api/internal/metrics"
	"github.com/npri-watch/npri-api/internal/middleware"
	"github.com/npri-watch/npri-api/internal/report"
	"github.com/npri-watch/npri-api/internal/utils"
)

// SetupRoutes configures the router.
//
// Routes:
//   - GET /                                  home page
//   - GET /health, /version, /metrics        operational endpoints
//   - GET /static/*                          embedded stylesheet
//   - GET /api/{application}/{view}/{params} view queries (rate limited)
//   - GET /sql/*                             raw SQL passthrough (rate limited)
func (s *Server) SetupRoutes() {
	r := chi.NewRouter()
	h := s.Handlers.DataHandler

	r.Use(chimiddleware.RequestID)
	// Rate limiting keys on RemoteAddr, so forwarded headers are only
	// honoured when a proxy is known to set them.
	if s.Config.Server.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(middleware.RequestLogger(s.Config.Logging.RequestLog))
	r.Use(middleware.Recovery())
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   getAllowedOrigins(s.Config.CORS.AllowedOrigins),
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", constants.HeaderContentType, constants.HeaderXRequestID},
		ExposedHeaders:   []string{constants.HeaderXQueryID, constants.HeaderXCache, constants.HeaderXRequestID},
		AllowCredentials: s.Config.CORS.AllowCredentials,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		utils.NotFound(w, "")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		utils.MethodNotAllowed(w)
	})

	r.Get("/", h.Home)
	r.Get(constants.VersionPath, h.Version)
	r.With(chimiddleware.NoCache).Get(constants.HealthPath, h.Health)
	r.Handle(constants.MetricsPath, metrics.Handler())
	r.Handle(constants.StaticPath+"/*", report.Static(constants.StaticPath))

	r.Group(func(r chi.Router) {
		if s.Config.RateLimit.Enabled {
			r.Use(middleware.RateLimit(s.Config.RateLimit.Requests, s.Config.RateLimit.Window))
		}

		r.Get(constants.APIBasePath+"/{application}/{view}/{params}", h.API)
		r.Get(constants.SQLBasePath+"/*", h.SQL)
	})

	s.router = r

	log.Debug().Strs("routes", s.Routes()).Msg("Routes configured")
}

// GetRouter returns the configured router.
func (s *Server) GetRouter() chi.Router {
	return s.router
}

// Routes lists "METHOD pattern" for every registered route, sorted.
func (s *Server) Routes() []string {
	var routes []string
	walk := func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, method+" "+strings.ReplaceAll(route, "/*/", "/"))
		return nil
	}
	if err := chi.Walk(s.router, walk); err != nil {
		log.Warn().Err(err).Msg("Failed to walk routes")
	}
	sort.Strings(routes)
	return routes
}

// getAllowedOrigins falls back to any origin when none are configured.
func getAllowedOrigins(configured []string) []string {
	var origins []string
	for _, o := range configured {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
