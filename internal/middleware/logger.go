package middleware

import (
	"net"
	"net/http"
	"strings"
	"time"

	chiMid "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"finitefield.org/catalog-web/internal/observability"
)

// InjectLogger stores a request-scoped zap logger (tagged with the chi request id) in context.
func InjectLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			l := logger
			if rid := chiMid.GetReqID(r.Context()); rid != "" {
				l = l.With(zap.String("request_id", rid))
			}
			if fields := observability.TraceFields(r.Context()); fields != nil {
				l = l.With(fields...)
			}
			next.ServeHTTP(w, r.WithContext(observability.WithLogger(r.Context(), l)))
		})
	}
}

// RequestLogger emits one structured line per request.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := NewResponseRecorder(w)
		next.ServeHTTP(rw, r)

		fields := []zap.Field{
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rw.Status()),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.String("remote_ip", clientIP(r)),
			// outer middleware: inner context values are not visible here
			zap.Bool("htmx", r.Header.Get("HX-Request") == "true"),
			zap.String("viewport", string(resolveViewport(r))),
		}
		logger := observability.FromContext(r.Context())
		switch {
		case rw.Status() >= 500:
			logger.Error("request", fields...)
		case rw.Status() >= 400:
			logger.Warn("request", fields...)
		default:
			logger.Info("request", fields...)
		}
	})
}

func clientIP(r *http.Request) string {
	// X-Forwarded-For is appended by the load balancer; the last hop is the client
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		p := strings.Split(xff, ",")
		return strings.TrimSpace(p[len(p)-1])
	}
	if xrip := r.Header.Get("X-Real-IP"); xrip != "" {
		return xrip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
