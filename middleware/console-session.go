package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sweater-ventures/roster/app"
)

// SessionCookie names the cookie holding the console session token.
const SessionCookie = "roster_session"

type sessionContextKey struct{}

// ConsoleSessionMiddleware gives every browser its own console: list state
// and modal state live in the session, not the page. A request without a
// live session gets a new one. /static/, /api/ and /healthz are exempt.
func ConsoleSessionMiddleware(roster *app.Application) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if strings.HasPrefix(path, "/static/") || strings.HasPrefix(path, "/api/") || path == "/healthz" {
				next.ServeHTTP(w, r)
				return
			}

			var session *app.Session
			if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
				session = roster.Sessions.GetSession(cookie.Value)
			}
			if session == nil {
				token, err := roster.Sessions.CreateSession(app.NewConsole(roster))
				if err != nil {
					log(r.Context()).Error("Failed to create console session", "error", err)
					http.Error(w, "Internal server error", http.StatusInternalServerError)
					return
				}
				session = roster.Sessions.GetSession(token)
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCookie,
					Value:    token,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
					MaxAge:   int(roster.Config.SessionTTL.Seconds()),
				})
				log(r.Context()).Debug("Created console session")
			}

			ctx := context.WithValue(r.Context(), sessionContextKey{}, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext returns the Session from the request context, or nil if not present.
func GetSessionFromContext(ctx context.Context) *app.Session {
	session, ok := ctx.Value(sessionContextKey{}).(*app.Session)
	if !ok {
		return nil
	}
	return session
}

// ConsoleFromContext returns the session's console, or nil.
func ConsoleFromContext(ctx context.Context) *app.Console {
	if session := GetSessionFromContext(ctx); session != nil {
		return session.Console
	}
	return nil
}
