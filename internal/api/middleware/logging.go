package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// RequestObserver receives one call per finished request.
type RequestObserver interface {
	HTTPRequest(method, route string, code int, d time.Duration)
}

// Logging attaches a request-scoped logger to the context and logs each
// request when it completes. The route is the chi pattern, not the raw
// path, so ids do not explode label cardinality.
func Logging(log zerolog.Logger, obs RequestObserver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With().Str("request_id", chimiddleware.GetReqID(r.Context())).Logger()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(reqLog.WithContext(r.Context())))

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			route := "unmatched"
			if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
				route = rc.RoutePattern()
			}
			d := time.Since(start)
			if obs != nil {
				obs.HTTPRequest(r.Method, route, status, d)
			}

			ev := reqLog.Info()
			if status >= 500 {
				ev = reqLog.Error()
			}
			ev.Str("method", r.Method).
				Str("route", route).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", d).
				Msg("request")
		})
	}
}
