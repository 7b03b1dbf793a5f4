package views

import (
	"github.com/sweater-ventures/roster/listing"
	"github.com/sweater-ventures/roster/modal"
	"github.com/sweater-ventures/roster/model"
	"github.com/sweater-ventures/roster/query"
)

const maxVisiblePages = 7

var pageSizes = []int{10, 25, 50, 100}

// UsersPage is everything the users console renders.
type UsersPage struct {
	State     listing.State
	View      listing.View[model.User]
	HasFilter bool
	Modal     *UserModal
}

// UserModal is the open create or edit form.
type UserModal struct {
	Mode      modal.Mode
	EditID    string
	Input     model.UserInput
	Errors    *model.ValidationError
	FormError string
	Strength  *model.PasswordStrength
}

func (m *UserModal) title() string {
	if m.Mode == modal.ModeEdit {
		return "Edit user"
	}
	return "New user"
}

func (m *UserModal) passwordLabel() string {
	if m.Mode == modal.ModeEdit {
		return "Password (leave blank to keep)"
	}
	return "Password"
}

type column struct {
	field string
	label string
}

var userColumns = []column{
	{"name", "Name"},
	{"email", "Email"},
	{"role", "Role"},
	{"active", "Status"},
	{"createdAt", "Created"},
}

func filterValue(state listing.State, field string) string {
	v, ok := state.Filters[field]
	if !ok || v.IsAll() {
		return "all"
	}
	return v.String()
}

func sortIndicator(state listing.State, field string) string {
	if state.SortField != field {
		return ""
	}
	if state.SortOrder == query.Desc {
		return " ↓"
	}
	return " ↑"
}

func showingText(s listing.Stats) string {
	if s.Total == 0 {
		return "No users"
	}
	return "Showing " + formatCount(s.Start) + "-" + formatCount(s.End) + " of " + formatCount(s.Total)
}
