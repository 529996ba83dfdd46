package middleware

import (
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/buyerleads/internal/core"
	"github.com/google/uuid"
)

// Session reads the demo session cookie and, when it holds a valid user id,
// stores that id as the request's actor. Requests without a session pass
// through; RequireActor rejects them where a user is needed.
func Session(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c, err := r.Cookie(cookieName)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := uuid.Parse(c.Value)
			if err != nil || actor == uuid.Nil {
				slog.Warn("session: ignoring malformed cookie",
					"path", r.URL.Path,
					"remote_addr", r.RemoteAddr,
				)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(core.ContextWithActor(r.Context(), actor)))
		})
	}
}

// RequireActor answers 401 unless Session found a user. onMissing renders the
// response so callers keep one error format.
func RequireActor(onMissing func(w http.ResponseWriter, r *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := core.ActorFromContext(r.Context()); !ok {
				onMissing(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
