// Package modal drives a create/edit form: which entity is open, validation
// before writing, and closing once the write succeeds.
package modal

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/sweater-ventures/roster/config"
)

var (
	ErrClosed           = errors.New("modal is closed")
	ErrSubmitInProgress = errors.New("a submit is already in progress")
)

type Mode string

const (
	ModeCreate Mode = "create"
	ModeEdit   Mode = "edit"
)

// State is one of Closed, Create or Edit[T].
type State interface {
	isState()
}

type Closed struct{}

type Create struct{}

type Edit[T any] struct {
	Entity T
}

func (Closed) isState()  {}
func (Create) isState()  {}
func (Edit[T]) isState() {}

// Writer performs the writes a submit ends in. resource.Client implements it.
type Writer[T any] interface {
	Create(ctx context.Context, payload any) (T, error)
	Update(ctx context.Context, id string, payload any) (T, error)
}

// Validator checks a payload before anything is sent.
type Validator func(mode Mode, payload any) error

type Orchestrator[T any] struct {
	writer   Writer[T]
	validate Validator
	idOf     func(T) string

	mu        sync.Mutex
	state     State
	lastErr   error
	lastSaved *T

	submitting atomic.Bool
}

// New returns a closed orchestrator. idOf extracts the id used for updates;
// validate may be nil.
func New[T any](writer Writer[T], idOf func(T) string, validate Validator) *Orchestrator[T] {
	return &Orchestrator[T]{
		writer:   writer,
		validate: validate,
		idOf:     idOf,
		state:    Closed{},
	}
}

func (o *Orchestrator[T]) OpenCreate() {
	o.set(Create{})
}

func (o *Orchestrator[T]) OpenEdit(entity T) {
	o.set(Edit[T]{Entity: entity})
}

func (o *Orchestrator[T]) Close() {
	o.set(Closed{})
}

func (o *Orchestrator[T]) set(s State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.state = s
	o.lastErr = nil
}

func (o *Orchestrator[T]) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

func (o *Orchestrator[T]) IsOpen() bool {
	_, closed := o.State().(Closed)
	return !closed
}

// Mode returns the form mode of the open state, or "" when closed.
func (o *Orchestrator[T]) Mode() Mode {
	switch o.State().(type) {
	case Create:
		return ModeCreate
	case Edit[T]:
		return ModeEdit
	}
	return ""
}

// LastError is the error from the last failed submit since the modal was
// opened.
func (o *Orchestrator[T]) LastError() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastErr
}

// LastSaved is the entity returned by the last successful submit.
func (o *Orchestrator[T]) LastSaved() (T, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.lastSaved == nil {
		var zero T
		return zero, false
	}
	return *o.lastSaved, true
}

func (o *Orchestrator[T]) Submitting() bool {
	return o.submitting.Load()
}

// Submit validates payload and writes it. On success the modal closes; on
// failure it stays open and the error is kept in LastError. Failed writes are
// not retried.
func (o *Orchestrator[T]) Submit(ctx context.Context, payload any) (T, error) {
	var zero T
	if !o.submitting.CompareAndSwap(false, true) {
		return zero, ErrSubmitInProgress
	}
	defer o.submitting.Store(false)

	opened := o.State()
	var mode Mode
	switch opened.(type) {
	case Create:
		mode = ModeCreate
	case Edit[T]:
		mode = ModeEdit
	default:
		return zero, ErrClosed
	}

	if o.validate != nil {
		if err := o.validate(mode, payload); err != nil {
			o.fail(err)
			return zero, err
		}
	}

	var saved T
	var err error
	if edit, ok := opened.(Edit[T]); ok {
		id := o.idOf(edit.Entity)
		saved, err = o.writer.Update(ctx, id, payload)
	} else {
		saved, err = o.writer.Create(ctx, payload)
	}
	if err != nil {
		log(ctx).Warn("Modal submit failed", slog.String("mode", string(mode)), slog.Any("error", err))
		o.fail(err)
		return zero, err
	}

	o.mu.Lock()
	o.state = Closed{}
	o.lastErr = nil
	o.lastSaved = &saved
	o.mu.Unlock()
	return saved, nil
}

func (o *Orchestrator[T]) fail(err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastErr = err
}

func log(ctx context.Context) *slog.Logger {
	log := ctx.Value(config.LoggerContextKey)
	if log == nil {
		return slog.Default()
	} else {
		return log.(*slog.Logger)
	}
}
