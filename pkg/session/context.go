package session

import (
	"context"
	"errors"
)

// SessionKey is the context key for storing sessions.
type SessionKey struct{}

// ErrSessionNotInContext is returned when no session is found in context.
var ErrSessionNotInContext = errors.New("session not found in context")

// FromContext retrieves a session from the context.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(SessionKey{}).(*Session)
	return sess, ok && sess != nil
}

// MustFromContext retrieves a session from context and panics if not found.
// Prefer FromContext with explicit error handling in production code.
func MustFromContext(ctx context.Context) *Session {
	sess, ok := FromContext(ctx)
	if !ok {
		panic(ErrSessionNotInContext)
	}
	return sess
}

// WithSession adds a session to the context.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, SessionKey{}, sess)
}
