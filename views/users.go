package views

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/a-h/templ"
	"github.com/sweater-ventures/roster/app"
	"github.com/sweater-ventures/roster/client"
	"github.com/sweater-ventures/roster/listing"
	"github.com/sweater-ventures/roster/middleware"
	"github.com/sweater-ventures/roster/modal"
	"github.com/sweater-ventures/roster/model"
	"github.com/sweater-ventures/roster/query"
)

func init() {
	registerRoute(func(roster *app.Application, router *http.ServeMux) {
		router.Handle("GET /users", routeHandler(roster, usersListHandler))
		router.Handle("POST /users/list", routeHandler(roster, usersListActionHandler))
		router.Handle("GET /users/new", routeHandler(roster, newUserHandler))
		router.Handle("GET /users/{id}", routeHandler(roster, userDetailHandler))
		router.Handle("GET /users/{id}/edit", routeHandler(roster, editUserHandler))
		router.Handle("POST /users/modal", routeHandler(roster, submitUserModalHandler))
		router.Handle("POST /users/modal/cancel", routeHandler(roster, cancelUserModalHandler))
		router.Handle("POST /users/{id}/delete", routeHandler(roster, deleteUserHandler))
	})
}

var (
	sortableFields   = []string{"name", "email", "role", "active", "createdAt", "updatedAt"}
	filterableFields = []string{"role", "active"}
)

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func render(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := c.Render(r.Context(), w); err != nil {
		log(r.Context()).Error("Error rendering view", "path", r.URL.Path, "err", err)
	}
}

func seeOther(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

func console(w http.ResponseWriter, r *http.Request) *app.Console {
	c := middleware.ConsoleFromContext(r.Context())
	if c == nil {
		log(r.Context()).Error("No console session on request", "path", r.URL.Path)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
	return c
}

// usersPage loads the current list and builds the modal, if open. override
// replaces the form contents after a failed submit.
func usersPage(r *http.Request, c *app.Console, override *UserModal) UsersPage {
	view := c.List.Load(r.Context())
	if view.Err != nil {
		log(r.Context()).Warn("Users list load failed", "err", view.Err)
	}
	p := UsersPage{
		State:     c.List.State(),
		View:      view,
		HasFilter: c.List.HasActiveFilters(),
	}
	if override != nil {
		p.Modal = override
		return p
	}
	switch s := c.Modal.State().(type) {
	case modal.Create:
		p.Modal = &UserModal{Mode: modal.ModeCreate, Input: model.DefaultUserInput()}
	case modal.Edit[model.User]:
		p.Modal = &UserModal{Mode: modal.ModeEdit, EditID: s.Entity.ID, Input: model.UserToInput(s.Entity)}
	}
	return p
}

func usersListHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	c := console(w, r)
	if c == nil {
		return
	}
	// ?modal=create and ?modal=edit&id=... open the modal from a link
	switch r.URL.Query().Get("modal") {
	case "create":
		c.Modal.OpenCreate()
	case "edit":
		u, err := c.Users.DetailRead(r.Context(), r.URL.Query().Get("id"))
		if err != nil {
			log(r.Context()).Warn("Cannot open edit modal", "id", r.URL.Query().Get("id"), "err", err)
			break
		}
		c.Modal.OpenEdit(u)
	}
	p := usersPage(r, c, nil)
	if r.Header.Get("HX-Request") == "true" {
		render(w, r, http.StatusOK, UsersTablePartial(p))
		return
	}
	render(w, r, http.StatusOK, UsersListTemplate(p))
}

// filterValueFor maps a form value to a filter. "" and "all" clear it.
func filterValueFor(field, raw string) query.Value {
	switch {
	case raw == "" || raw == "all":
		return query.All()
	case field == "active":
		return query.Bool(raw == "true")
	}
	return query.String(raw)
}

// applyListAction changes the list state for one toolbar or pagination form.
func applyListAction(list *listing.Controller[model.User], action, field, value string) error {
	switch action {
	case "search":
		list.SetSearch(value)
	case "filter":
		if !contains(filterableFields, field) {
			return errors.New("unknown filter field")
		}
		list.SetFilter(field, filterValueFor(field, value))
	case "sort":
		if !contains(sortableFields, value) {
			return errors.New("unknown sort field")
		}
		list.SetSort(value)
	case "page":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return errors.New("invalid page")
		}
		list.SetPage(n)
	case "next":
		list.NextPage()
	case "prev":
		list.PrevPage()
	case "size":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 || n > 100 {
			return errors.New("invalid page size")
		}
		list.SetPageSize(n)
	case "mode":
		switch mode := listing.PaginationMode(value); mode {
		case listing.Paged, listing.Unbounded:
			list.SetPaginationMode(mode)
		default:
			return errors.New("invalid pagination mode")
		}
	case "view":
		switch mode := listing.ViewMode(value); mode {
		case listing.TableView, listing.GridView:
			list.SetViewMode(mode)
		default:
			return errors.New("invalid view mode")
		}
	case "clear":
		list.ClearAll()
	default:
		return errors.New("unknown action")
	}
	return nil
}

func usersListActionHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	c := console(w, r)
	if c == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	action := r.PostFormValue("action")
	value := r.PostFormValue("value")
	if action != "search" {
		value = strings.TrimSpace(value)
	}
	if err := applyListAction(c.List, action, r.PostFormValue("field"), value); err != nil {
		log(r.Context()).Debug("Rejected list action", "action", action, "err", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.Header.Get("HX-Request") == "true" {
		render(w, r, http.StatusOK, UsersTablePartial(usersPage(r, c, nil)))
		return
	}
	seeOther(w, r, "/users")
}

func newUserHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	c := console(w, r)
	if c == nil {
		return
	}
	c.Modal.OpenCreate()
	seeOther(w, r, "/users")
}

// readUser loads one user through the cache, writing the error page on
// failure.
func readUser(w http.ResponseWriter, r *http.Request, c *app.Console) (model.User, bool) {
	u, err := c.Users.DetailRead(r.Context(), r.PathValue("id"))
	if errors.Is(err, client.ErrNotFound) {
		render(w, r, http.StatusNotFound, NotFoundPage("That user does not exist."))
		return u, false
	}
	if err != nil {
		log(r.Context()).Error("Error reading user", "id", r.PathValue("id"), "err", err)
		render(w, r, http.StatusBadGateway, ErrorPage("Could not load the user."))
		return u, false
	}
	return u, true
}

func userDetailHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	c := console(w, r)
	if c == nil {
		return
	}
	u, ok := readUser(w, r, c)
	if !ok {
		return
	}
	render(w, r, http.StatusOK, UserDetailTemplate(u))
}

func editUserHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	c := console(w, r)
	if c == nil {
		return
	}
	u, ok := readUser(w, r, c)
	if !ok {
		return
	}
	c.Modal.OpenEdit(u)
	seeOther(w, r, "/users")
}

// parseUserForm reads the modal form. Unparseable coordinates are reported
// as field errors.
func parseUserForm(r *http.Request) (model.UserInput, map[string]string) {
	in := model.UserInput{
		Name:     strings.TrimSpace(r.PostFormValue("name")),
		Email:    strings.TrimSpace(r.PostFormValue("email")),
		Password: r.PostFormValue("password"),
		Role:     model.Role(r.PostFormValue("role")),
		Active:   r.PostFormValue("active") == "true" || r.PostFormValue("active") == "on",
	}
	bad := map[string]string{}
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("location.latitude")), 64)
	if err != nil {
		bad["location.latitude"] = "Latitude must be between -90 and 90"
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(r.PostFormValue("location.longitude")), 64)
	if err != nil {
		bad["location.longitude"] = "Longitude must be between -180 and 180"
	}
	in.Location = model.Location{Latitude: lat, Longitude: lng}
	return in, bad
}

func submitUserModalHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	c := console(w, r)
	if c == nil {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}
	mode := c.Modal.Mode()
	if mode == "" {
		seeOther(w, r, "/users")
		return
	}

	in, parseErrs := parseUserForm(r)
	failed := &UserModal{Mode: mode, Input: in}
	if edit, ok := c.Modal.State().(modal.Edit[model.User]); ok {
		failed.EditID = edit.Entity.ID
	}
	if in.Password != "" {
		strength := model.MeasurePassword(in.Password)
		failed.Strength = &strength
	}
	if len(parseErrs) > 0 {
		failed.Errors = &model.ValidationError{Fields: parseErrs}
		render(w, r, http.StatusUnprocessableEntity, UsersListTemplate(usersPage(r, c, failed)))
		return
	}

	saved, err := c.Modal.Submit(r.Context(), in)
	var verr *model.ValidationError
	var reqErr *client.RequestError
	switch {
	case err == nil:
		log(r.Context()).Info("User saved", "id", saved.ID, "mode", string(mode))
		seeOther(w, r, "/users")
	case errors.Is(err, modal.ErrClosed):
		seeOther(w, r, "/users")
	case errors.Is(err, modal.ErrSubmitInProgress):
		http.Error(w, "A save is already in progress", http.StatusConflict)
	case errors.As(err, &verr):
		failed.Errors = verr
		render(w, r, http.StatusUnprocessableEntity, UsersListTemplate(usersPage(r, c, failed)))
	case errors.As(err, &reqErr):
		failed.FormError = reqErr.Message
		if reqErr.Details != "" {
			failed.FormError += ": " + reqErr.Details
		}
		render(w, r, http.StatusUnprocessableEntity, UsersListTemplate(usersPage(r, c, failed)))
	default:
		log(r.Context()).Error("Error saving user", "err", err)
		failed.FormError = "Could not save the user."
		render(w, r, http.StatusBadGateway, UsersListTemplate(usersPage(r, c, failed)))
	}
}

func cancelUserModalHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	c := console(w, r)
	if c == nil {
		return
	}
	c.Modal.Close()
	seeOther(w, r, "/users")
}

func deleteUserHandler(roster *app.Application, w http.ResponseWriter, r *http.Request) {
	c := console(w, r)
	if c == nil {
		return
	}
	id := r.PathValue("id")
	err := c.Users.Delete(r.Context(), id)
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		log(r.Context()).Error("Error deleting user", "id", id, "err", err)
		render(w, r, http.StatusBadGateway, ErrorPage("Could not delete the user."))
		return
	}
	if edit, ok := c.Modal.State().(modal.Edit[model.User]); ok && edit.Entity.ID == id {
		c.Modal.Close()
	}
	seeOther(w, r, "/users")
}
