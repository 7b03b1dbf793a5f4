package views

import (
	"net/http"

	"github.com/sweater-ventures/roster/app"
)

func init() {
	registerRoute(func(roster *app.Application, router *http.ServeMux) {
		router.Handle("/", routeHandler(roster, notFound))
		router.Handle("GET /healthz", routeHandler(roster, healthz))
	})
}

func notFound(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/" {
		// forward to users page
		w.Header().Set("Location", "/users")
		w.WriteHeader(http.StatusFound)
		return
	}
	render(w, r, http.StatusNotFound, NotFoundPage("There is nothing at "+r.URL.Path+"."))
}

func healthz(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}
