package middleware

import (
	"net/http"

	"github.com/sweater-ventures/roster/app"
)

func AllStandardMiddleware(next http.Handler) http.Handler {
	return ContextLoggerMiddleware(LoggingMiddleware(next))
}

// ConsoleMiddleware is the standard stack plus console sessions.
func ConsoleMiddleware(roster *app.Application, next http.Handler) http.Handler {
	return AllStandardMiddleware(ConsoleSessionMiddleware(roster)(next))
}
