package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/edgehub/ingestd/internal/ctxkeys"
	"github.com/edgehub/ingestd/internal/handler/respond"
	"github.com/edgehub/ingestd/internal/ratelimit"
)

// RateLimit admits or rejects API requests against the shared counter store.
// Non-API paths (the static fallback) pass through uncounted. Every API
// response, admitted or rejected, carries the limit/remaining/reset headers
// for caller-side backoff.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			ip := ctxkeys.ClientIP(r.Context())

			dec, err := limiter.Admit(r.Context(), ip)
			if err != nil {
				slog.Error("rate limit store unavailable", "error", err, "ip", ip)
				respond.Error(w, http.StatusInternalServerError, err.Error())
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(dec.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(dec.Remaining))
			w.Header().Set("X-RateLimit-Reset", strconv.Itoa(dec.Reset))

			if !dec.Allowed {
				slog.Warn("rate limit exceeded", "ip", ip, "path", r.URL.Path)
				w.Header().Set("Retry-After", strconv.Itoa(dec.Reset))
				respond.Error(w, http.StatusTooManyRequests, "Rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
