package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RequestCeiling caps total requests per IP per minute across the whole
// surface. It is a coarse flood guard sitting well above the login
// gate's own attempt budget, which remains the authoritative policy.
func RequestCeiling(requestsPerMinute int) func(next http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"Rate limit exceeded"}`))
		}),
	)
}
