package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sweater-ventures/roster/app"
)

func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		capturingWriter := ExtendResponseWriter(w)

		// Call the next handler in the chain
		next.ServeHTTP(capturingWriter, r)

		level := slog.LevelInfo
		if capturingWriter.StatusCode >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		attrs := []any{
			slog.String("method", r.Method),
			slog.String("host", r.Host),
			slog.String("path", r.RequestURI),
			slog.Int("status", capturingWriter.StatusCode),
			slog.Duration("latency", capturingWriter.WriteBegin.Sub(start)),
			slog.Duration("duration", time.Since(start)),
		}
		if origin := r.Header.Get(app.OriginHeader); origin != "" {
			attrs = append(attrs, slog.String("origin", origin))
		}
		log(r.Context()).Log(r.Context(), level,
			fmt.Sprintf("Request %s %s %d %s", r.Method, r.RequestURI, capturingWriter.StatusCode, http.StatusText(capturingWriter.StatusCode)),
			attrs...,
		)
	})
}
