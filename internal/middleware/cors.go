package middleware

import (
	"net/http"
	"strings"
)

// CORSConfig holds CORS configuration. Credentials are always allowed
// because the session rides a cookie, which is exactly why the origin
// list must stay explicit - no wildcard matching.
type CORSConfig struct {
	AllowedOrigins []string
}

var corsAllowedMethods = []string{"GET", "POST", "OPTIONS"}
var corsAllowedHeaders = []string{"Content-Type"}

// CORS returns a CORS middleware for the admin dashboard origin(s).
// Unrecognized origins get no CORS headers at all (fail closed).
func CORS(config CORSConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")

			allowed := false
			for _, allowedOrigin := range config.AllowedOrigins {
				if origin != "" && origin == allowedOrigin {
					allowed = true
					break
				}
			}

			if allowed {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", strings.Join(corsAllowedMethods, ", "))
				w.Header().Set("Access-Control-Allow-Headers", strings.Join(corsAllowedHeaders, ", "))
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Set("Access-Control-Max-Age", "3600")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
