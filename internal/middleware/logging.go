package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/npri-watch/npri-api/internal/metrics"
	"github.com/npri-watch/npri-api/internal/utils"
)

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// RequestLogger records every request in Prometheus and, when logRequests is
// set, in the request log. Metrics are labelled with the chi route pattern.
func RequestLogger(logRequests bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				latency := time.Since(start)

				metrics.ObserveHTTP(r.Method, routePattern(r), status, latency.Seconds())

				if logRequests {
					utils.LogHTTPRequest(
						chimw.GetReqID(r.Context()),
						r.Method,
						r.URL.Path,
						r.RemoteAddr,
						r.UserAgent(),
						status,
						latency,
					)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRoute
}
