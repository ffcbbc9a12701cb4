// Package requestcontext carries per-request metadata and an injectable
// clock through context.Context. Services read time via Now(ctx) so tests
// can pin the clock without reaching into package internals.
package requestcontext

import (
	"context"
	"time"
)

type clockKey struct{}
type requestIDKey struct{}
type clientIPKey struct{}
type userAgentKey struct{}

// Clock returns the current time. Production code uses time.Now; tests
// install a fake via WithClock.
type Clock func() time.Time

// WithClock returns a context whose Now(ctx) reads from the given clock.
func WithClock(ctx context.Context, clock Clock) context.Context {
	return context.WithValue(ctx, clockKey{}, clock)
}

// Now returns the context clock's current time, falling back to time.Now
// when no clock is installed.
func Now(ctx context.Context) time.Time {
	if clock, ok := ctx.Value(clockKey{}).(Clock); ok && clock != nil {
		return clock()
	}
	return time.Now()
}

// WithRequestID attaches a request ID for traceability across log lines.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the request ID, or "" when none was attached.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithClientIP attaches the resolved client IP.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// ClientIP returns the resolved client IP, or "" when none was attached.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// WithUserAgent attaches the raw User-Agent header value.
func WithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, userAgentKey{}, ua)
}

// UserAgent returns the raw User-Agent header value, or "".
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}
