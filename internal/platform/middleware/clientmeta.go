package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/mssola/useragent"

	"formgate/pkg/requestcontext"
)

type botUAKey struct{}

// ClientMetadata resolves the client IP and User-Agent and injects them into
// the request context. The resolved IP is the identifier fed to the abuse
// gate; header precedence is X-Forwarded-For (first hop), then X-Real-IP,
// then the connection's remote address.
func ClientMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		ctx = requestcontext.WithClientIP(ctx, resolveClientIP(r))

		ua := r.Header.Get("User-Agent")
		if ua != "" {
			ctx = requestcontext.WithUserAgent(ctx, ua)
			parsed := useragent.New(ua)
			ctx = context.WithValue(ctx, botUAKey{}, parsed.Bot())
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetClientIP returns the client IP resolved by ClientMetadata, or "" when
// the middleware did not run.
func GetClientIP(ctx context.Context) string {
	return requestcontext.ClientIP(ctx)
}

// IsBotUserAgent reports whether the request's User-Agent parsed as a known
// crawler or bot. Advisory only; it feeds request logs, never decisions.
func IsBotUserAgent(ctx context.Context) bool {
	if v, ok := ctx.Value(botUAKey{}).(bool); ok {
		return v
	}
	return false
}

func resolveClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First entry is the originating client; later hops are proxies.
		if first, _, found := strings.Cut(xff, ","); found || first != "" {
			return strings.TrimSpace(first)
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
