package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sweater-ventures/roster/listing"
	"github.com/sweater-ventures/roster/modal"
	"github.com/sweater-ventures/roster/model"
	"github.com/sweater-ventures/roster/query"
	"github.com/sweater-ventures/roster/resource"
)

// UsersBaseQuery is applied under every users table query: newest first
// unless the user picks a sort.
var UsersBaseQuery = query.New().WithSort("createdAt", query.Desc)

// Console is the per-session users console: one list controller and one
// modal orchestrator over the shared resource cache.
type Console struct {
	Users *resource.Client[model.User]
	List  *listing.Controller[model.User]
	Modal *modal.Orchestrator[model.User]
}

func NewConsole(roster *Application) *Console {
	users := NewUsersClient(roster)
	return &Console{
		Users: users,
		List: listing.NewController[model.User](users, listing.Config{
			Base:     UsersBaseQuery,
			PageSize: roster.Config.PageSize,
		}),
		Modal: modal.New[model.User](users, model.User.GetID, ValidateUserForm),
	}
}

// NewUsersClient returns a users client over the application's cache.
func NewUsersClient(roster *Application) *resource.Client[model.User] {
	return resource.NewClient[model.User](roster.Store, roster.API, UsersResource)
}

// ValidateUserForm checks a model.UserInput payload before it is submitted.
func ValidateUserForm(mode modal.Mode, payload any) error {
	var in model.UserInput
	switch p := payload.(type) {
	case model.UserInput:
		in = p
	case *model.UserInput:
		in = *p
	default:
		return fmt.Errorf("unexpected user payload %T", payload)
	}
	formMode := model.FormCreate
	if mode == modal.ModeEdit {
		formMode = model.FormEdit
	}
	return in.Validate(formMode)
}

// StartInvalidator keeps the console cache in step with writes made by other
// clients. Writes tagged with this application's own origin are skipped; the
// resource client already applied their cache effects. If the bus drops
// messages for this subscriber the whole console cache is cleared, since the
// missed writes are unknown.
func StartInvalidator(roster *Application) (stop func()) {
	messages, unsubscribe := roster.EventBus.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		defer close(done)
		var feed changeFeed
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-messages:
				feed.receive(roster, msg)
			}
		}
	}()

	return func() {
		cancel()
		unsubscribe()
		<-done
	}
}

// changeFeed remembers the last message id one subscriber saw. A jump means
// messages were dropped, or reordered by concurrent publishers.
type changeFeed struct {
	last uint64
}

func (f *changeFeed) receive(roster *Application, msg ChangeMessage) {
	if f.last != 0 && msg.ID > f.last+1 {
		slog.Warn("Missed change messages, clearing console cache",
			slog.Uint64("after", f.last),
			slog.Uint64("next", msg.ID),
		)
		roster.Store.Clear()
	}
	if msg.ID > f.last {
		f.last = msg.ID
	}
	applyChange(roster, msg)
}

func applyChange(roster *Application, msg ChangeMessage) {
	if msg.Origin != "" && msg.Origin == roster.Origin {
		return
	}
	slog.Debug("Invalidating console cache",
		slog.String("type", string(msg.Type)),
		slog.String("resource", msg.Resource),
		slog.String("id", msg.RecordID),
	)
	switch msg.Type {
	case ChangeCreated:
		roster.Store.Invalidate(msg.Resource)
	case ChangeUpdated, ChangeDeleted:
		roster.Store.Invalidate(msg.Resource)
		roster.Store.Forget(resource.Key{Resource: msg.Resource, Kind: resource.KindDetail, ID: msg.RecordID})
	case ChangeCleared:
		roster.Store.Purge(msg.Resource)
	}
}
