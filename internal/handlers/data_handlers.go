// Package handlers contains the HTTP handlers of the API.
package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/npri-watch/npri-api/internal/config"
	"github.com/npri-watch/npri-api/internal/constants"
	"github.com/npri-watch/npri-api/internal/report"
	"github.com/npri-watch/npri-api/internal/service"
	"github.com/npri-watch/npri-api/internal/utils"
)

// DataHandler serves view queries, reports and raw SQL.
type DataHandler struct {
	dbService DatabaseServiceInterface
	renderer  *report.Renderer
	app       config.AppSettings
}

// NewDataHandler creates a new DataHandler
func NewDataHandler(dbService DatabaseServiceInterface, renderer *report.Renderer, app config.AppSettings) *DataHandler {
	return &DataHandler{
		dbService: dbService,
		renderer:  renderer,
		app:       app,
	}
}

// API handles GET /api/{application}/{view}/{params}.
func (h *DataHandler) API(w http.ResponseWriter, r *http.Request) {
	application := pathParam(r, constants.ParamApplication)
	view := pathParam(r, constants.ParamView)
	params := pathParam(r, constants.ParamParams)

	if application != constants.AppData && application != constants.AppReport {
		utils.NotFound(w, constants.MsgUnknownApplication)
		return
	}

	result, err := h.dbService.Fetch(r.Context(), view, params)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	setResultHeaders(w, result)

	if application == constants.AppReport {
		page, err := h.renderer.Report(report.ReportData{
			View:    result.View,
			Params:  params,
			QueryID: result.QueryID,
			Cached:  result.Cached,
			Columns: result.Columns,
			Rows:    result.Rows,
		})
		if err != nil {
			utils.InternalServerError(w, err)
			return
		}
		utils.HTML(w, http.StatusOK, page)
		return
	}

	h.writeRecords(w, result)
}

// SQL handles GET /sql/*. The rest of the path is the statement, URL escaped
// with '+' standing for a space.
func (h *DataHandler) SQL(w http.ResponseWriter, r *http.Request) {
	if !h.dbService.PassthroughEnabled() {
		utils.NotFound(w, "")
		return
	}

	raw := sqlSegment(r)
	statement, err := url.QueryUnescape(raw)
	if err != nil {
		utils.Error(w, http.StatusBadRequest, constants.CodeInvalidSQL, constants.MsgSQLDecode, nil)
		return
	}

	result, err := h.dbService.ExecuteSQL(r.Context(), statement)
	if err != nil {
		utils.ErrorFromAppError(w, utils.ParseError(err))
		return
	}

	setResultHeaders(w, result)
	h.writeRecords(w, result)
}

// Home renders the index page.
func (h *DataHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := report.HomeFromRegistry(h.dbService.Registry(), h.app.Name, h.app.Version, h.dbService.PassthroughEnabled())

	page, err := h.renderer.Home(data)
	if err != nil {
		utils.InternalServerError(w, err)
		return
	}
	utils.HTML(w, http.StatusOK, page)
}

// Health reports whether the database answers, along with the state of the
// circuit breaker in front of it.
func (h *DataHandler) Health(w http.ResponseWriter, r *http.Request) {
	breaker := h.dbService.BreakerState()

	if err := h.dbService.HealthCheck(r.Context()); err != nil {
		log.Warn().Err(err).Str("circuit_breaker", breaker).Msg("Health check failed")
		utils.Error(w, http.StatusServiceUnavailable, constants.CodeUnavailable, constants.MsgDatabaseUnavailable,
			map[string]any{"circuit_breaker": breaker})
		return
	}

	utils.JSON(w, http.StatusOK, map[string]string{
		"status":          "healthy",
		"database":        "up",
		"circuit_breaker": breaker,
	})
}

// Version reports the running build.
func (h *DataHandler) Version(w http.ResponseWriter, r *http.Request) {
	utils.JSON(w, http.StatusOK, map[string]string{
		"name":        h.app.Name,
		"version":     h.app.Version,
		"environment": h.app.Environment,
	})
}

func (h *DataHandler) writeRecords(w http.ResponseWriter, result *service.Result) {
	body, err := result.MarshalRecords()
	if err != nil {
		utils.InternalServerError(w, err)
		return
	}
	utils.SendRawJSON(w, http.StatusOK, body)
}

func setResultHeaders(w http.ResponseWriter, result *service.Result) {
	w.Header().Set(constants.HeaderXQueryID, result.QueryID)
	if result.Cached {
		w.Header().Set(constants.HeaderXCache, constants.CacheHit)
	} else {
		w.Header().Set(constants.HeaderXCache, constants.CacheMiss)
	}
}

// pathParam returns a decoded route parameter. chi matches against the raw
// path when the request carried escaped separators, leaving the value escaped.
func pathParam(r *http.Request, name string) string {
	value := chi.URLParam(r, name)
	if r.URL.RawPath == "" {
		return value
	}
	if decoded, err := url.PathUnescape(value); err == nil {
		return decoded
	}
	return value
}

// sqlSegment returns the still escaped path after /sql/.
func sqlSegment(r *http.Request) string {
	p := r.URL.EscapedPath()
	prefix := constants.SQLBasePath + "/"
	if i := strings.Index(p, prefix); i >= 0 {
		return p[i+len(prefix):]
	}
	return chi.URLParam(r, "*")
}
