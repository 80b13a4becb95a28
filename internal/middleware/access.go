package middleware

import (
	"log/slog"
	"net/http"

	"github.com/edgehub/ingestd/internal/ctxkeys"
	"github.com/edgehub/ingestd/internal/handler/respond"
	"github.com/edgehub/ingestd/internal/validation"
)

// AccessGate resolves the caller identity and rejects it before any route
// work when it fails the IP grammar or is not on the allowlist. It guards
// every path, static assets included.
func AccessGate(allowedIPs string) func(http.Handler) http.Handler {
	allowed := validation.ParseAllowlist(allowedIPs)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ClientIP(r)

			if !validation.IsValidIP(ip) {
				slog.Warn("access denied: invalid ip literal", "ip", ip, "path", r.URL.Path)
				respond.Error(w, http.StatusForbidden, "Access denied")
				return
			}

			if _, ok := allowed[ip]; !ok {
				slog.Warn("access denied: ip not allowlisted", "ip", ip, "path", r.URL.Path)
				respond.Error(w, http.StatusForbidden, "Access denied")
				return
			}

			ctx := ctxkeys.WithClientIP(r.Context(), ip)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
