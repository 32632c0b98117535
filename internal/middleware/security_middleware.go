// Package middleware provides HTTP middleware components.
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
	"github.com/rs/zerolog/log"

	"github.com/npri-watch/npri-api/internal/constants"
	"github.com/npri-watch/npri-api/internal/utils"
)

// SecurityHeaders sets conservative browser security headers on every response.
func SecurityHeaders() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set(constants.HeaderXContentTypeOptions, constants.ContentTypeOptionsNoSniff)
			h.Set(constants.HeaderXFrameOptions, constants.FrameOptionsDeny)
			h.Set(constants.HeaderReferrerPolicy, constants.ReferrerPolicyStrictOrigin)
			h.Set(constants.HeaderContentSecurityPolicy, constants.CSPSelf)
			next.ServeHTTP(w, r)
		})
	}
}

// RateLimit limits each client IP to requests per window. A non-positive
// request count disables the limit.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if window <= 0 {
		window = constants.DefaultRateLimitWindow
	}

	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			log.Warn().
				Str("remote_addr", r.RemoteAddr).
				Str("path", r.URL.Path).
				Str("method", r.Method).
				Msg("Rate limit exceeded")

			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			utils.TooManyRequests(w)
		}),
	)
}
