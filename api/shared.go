package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/sweater-ventures/roster/app"
	"github.com/sweater-ventures/roster/config"
)

type routeRegistrationFunc func(roster *app.Application, router *http.ServeMux)

var routes []routeRegistrationFunc

func registerRoute(r routeRegistrationFunc) {
	routes = append(routes, r)
}

func AddApis(roster *app.Application, router *http.ServeMux) {
	slog.Debug("Registering all API Endpoints", "count", len(routes))
	router.Handle("/api/", http.StripPrefix("/api", Handler(roster)))
}

// Handler returns the API routes without the /api prefix.
func Handler(roster *app.Application) http.Handler {
	apiRouter := http.NewServeMux()
	for _, r := range routes {
		r(roster, apiRouter)
	}
	return apiRouter
}

func log(ctx context.Context) *slog.Logger {
	log := ctx.Value(config.LoggerContextKey)
	if log == nil {
		return slog.Default()
	} else {
		return log.(*slog.Logger)
	}
}

type appHandler func(roster *app.Application, w http.ResponseWriter, r *http.Request)

func routeHandler(roster *app.Application, handler appHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin := r.Header.Get(app.OriginHeader); origin != "" {
			r = r.WithContext(app.WithOrigin(r.Context(), origin))
		}
		handler(roster, w, r)
	})
}

func writeJsonResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}
