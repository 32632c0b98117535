package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/npri-watch/npri-api/internal/utils"
)

// Recovery is a middleware that recovers from panics and returns a 500 Internal Server Error
func Recovery() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					// net/http uses this to abort a response on purpose
					if rec == http.ErrAbortHandler {
						panic(rec)
					}

					utils.LogPanic(chimw.GetReqID(r.Context()), r.Method, r.URL.Path, r.RemoteAddr, rec, debug.Stack())

					utils.InternalServerError(w, fmt.Errorf("panic: %v", rec))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
