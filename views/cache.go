package views

import (
	"net/http"

	"github.com/sweater-ventures/roster/app"
	"github.com/sweater-ventures/roster/resource"
)

func init() {
	registerRoute(func(roster *app.Application, router *http.ServeMux) {
		router.Handle("GET /cache", routeHandler(roster, cacheStatusHandler))
		router.Handle("POST /cache/purge", routeHandler(roster, cachePurgeHandler))
	})
}

// CacheStatus is what the cache page shows.
type CacheStatus struct {
	Stats    resource.Stats
	Sessions int
	Users    int64
}

func cacheStatusHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	users, err := app.CountRecords(r.Context(), roster, app.UsersResource)
	if err != nil {
		log(r.Context()).Error("Error counting users", "err", err)
		render(w, r, http.StatusInternalServerError, ErrorPage("Could not count users."))
		return
	}
	render(w, r, http.StatusOK, CacheStatusTemplate(CacheStatus{
		Stats:    roster.Store.Stats(),
		Sessions: roster.Sessions.Len(),
		Users:    users,
	}))
}

func cachePurgeHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	roster.Store.Purge(app.UsersResource)
	log(r.Context()).Info("Purged console cache", "resource", app.UsersResource)
	seeOther(w, r, "/cache")
}
