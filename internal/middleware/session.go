package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/snehal593/OPEN-DEEP-RESEARCH/internal/session"
)

type ctxKey struct{}

// LoadSession reads the session cookie and injects the stored context into
// the request. Requests without a live session pass through with none.
func LoadSession(sessions session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(session.SessionCookie)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.Get(r.Context(), cookie.Value)
			if err != nil {
				if !errors.Is(err, session.ErrNotFound) {
					slog.Warn("session lookup failed", "session", cookie.Value, "err", err)
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// WithSession returns a copy of ctx carrying sess.
func WithSession(ctx context.Context, sess *session.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// SessionFrom returns the session injected by LoadSession, or nil.
func SessionFrom(ctx context.Context) *session.Context {
	sess, _ := ctx.Value(ctxKey{}).(*session.Context)
	return sess
}
