package middleware

import (
	"net"
	"net/http"

	"github.com/JonMunkholm/buyerleads/internal/core"
)

// RateLimit rejects requests once the client IP exhausts its allowance.
// It must run after TrustedRealIP so RemoteAddr is the real client.
func RateLimit(limiter core.Limiter, onLimited func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow("ip:" + clientIP(r)) {
				w.Header().Set("Retry-After", "60")
				onLimited(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
