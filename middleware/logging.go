package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// HTTPRecorder receives one observation per served request
type HTTPRecorder interface {
	ObserveHTTPRequest(method, route string, status int, elapsed time.Duration)
}

// RequestLogger logs every request with zap and reports it to recorder.
// recorder may be nil.
func RequestLogger(logger *zap.Logger, recorder HTTPRecorder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				elapsed := time.Since(start)

				var route string
				if rctx := chi.RouteContext(r.Context()); rctx != nil {
					route = rctx.RoutePattern()
				}

				fields := []zap.Field{
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("route", route),
					zap.Int("status", status),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", elapsed),
					zap.String("remote_addr", r.RemoteAddr),
				}
				if status >= http.StatusInternalServerError {
					logger.Warn("request completed", fields...)
				} else {
					logger.Info("request completed", fields...)
				}

				if recorder != nil {
					recorder.ObserveHTTPRequest(r.Method, route, status, elapsed)
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
