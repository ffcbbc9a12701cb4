package middleware

import (
	"log/slog"
	"net/http"

	"golang.org/x/time/rate"
)

// Throttle applies a per-instance global request budget in front of the
// router. It protects the process itself during floods; per-client fairness
// is the abuse gate's job, not this middleware's.
func Throttle(perSecond, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				logger.Warn("global throttle triggered", "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				http.Error(w, "Service Overloaded", http.StatusServiceUnavailable)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
