package shared

import "context"

type contextKey int

const sessionKey contextKey = iota

// ContextWithSession attaches the request's session so handlers downstream of
// the session middleware can reach it.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// SessionFromContext returns the attached session, or nil for requests that
// never passed through the session middleware.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionKey).(*Session)
	return sess
}
