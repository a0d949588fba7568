package http

import (
	"net/http"

	"golang.org/x/time/rate"
)

// rateLimit rejects requests beyond the limiter's budget with 429.
// The limit is global, not per client.
func rateLimit(limiter *rate.Limiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, http.StatusTooManyRequests, "Too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
