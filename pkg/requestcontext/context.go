// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Middleware sets values; services read them. Keeping this package free of
// net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	hash := requestcontext.UserHash(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithParticipant(ctx, "hash", "alias", false)
package requestcontext

import (
	"context"
	"time"
)

type (
	userHashKey    struct{}
	aliasKey       struct{}
	isAdminKey     struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need raw context.WithValue.
var (
	ContextKeyUserHash    = userHashKey{}
	ContextKeyAlias       = aliasKey{}
	ContextKeyIsAdmin     = isAdminKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// UserHash retrieves the pseudonymous participant hash from the context.
// Returns "" if no participant is attached.
func UserHash(ctx context.Context) string {
	if h, ok := ctx.Value(ContextKeyUserHash).(string); ok {
		return h
	}
	return ""
}

// Alias retrieves the participant display alias, if one was chosen.
func Alias(ctx context.Context) string {
	if a, ok := ctx.Value(ContextKeyAlias).(string); ok {
		return a
	}
	return ""
}

// IsAdmin reports whether the participant holds board admin rights.
func IsAdmin(ctx context.Context) bool {
	if b, ok := ctx.Value(ContextKeyIsAdmin).(bool); ok {
		return b
	}
	return false
}

// WithParticipant injects a resolved participant identity into the context.
func WithParticipant(ctx context.Context, userHash, alias string, isAdmin bool) context.Context {
	ctx = context.WithValue(ctx, ContextKeyUserHash, userHash)
	ctx = context.WithValue(ctx, ContextKeyAlias, alias)
	return context.WithValue(ctx, ContextKeyIsAdmin, isAdmin)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context. Falls back to
// time.Now() for non-HTTP contexts (maintenance jobs, tests without setup).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for service unit
// tests and for batch operations that need one consistent timestamp.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
