package app

import (
	"sync"
	"sync/atomic"
	"time"
)

// ChangeType is the kind of write a ChangeMessage reports.
type ChangeType string

const (
	ChangeCreated ChangeType = "created"
	ChangeUpdated ChangeType = "updated"
	ChangeDeleted ChangeType = "deleted"
	ChangeCleared ChangeType = "cleared"
)

// ChangeMessage is published after every successful write to a resource.
// IDs increase by one per Publish across all resources, so a subscriber that
// sees a jump knows it missed messages.
type ChangeMessage struct {
	ID        uint64     `json:"id"`
	Type      ChangeType `json:"type"`
	Resource  string     `json:"resource"`
	RecordID  string     `json:"record_id,omitempty"`
	Origin    string     `json:"origin,omitempty"` // client that made the write, if known
	Timestamp time.Time  `json:"timestamp"`
}

const subscriberBufferSize = 64

// EventBus is an in-memory pub/sub bus for resource change notifications.
// It is a change feed, not a log: nothing is replayed to late subscribers and
// delivery is best effort. Subscribers that keep caches must treat a missed
// message as a missed invalidation, either by clearing on an ID gap or by
// relying on cache stale times to bound how long old data survives.
type EventBus struct {
	nextID      atomic.Uint64
	mu          sync.RWMutex
	subscribers map[chan ChangeMessage]struct{}
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[chan ChangeMessage]struct{}),
	}
}

// Subscribe returns a buffered channel that receives change messages and an
// unsubscribe function. The caller must call unsubscribe when done.
func (b *EventBus) Subscribe() (<-chan ChangeMessage, func()) {
	ch := make(chan ChangeMessage, subscriberBufferSize)

	b.mu.Lock()
	b.subscribers[ch] = struct{}{}
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		delete(b.subscribers, ch)
		b.mu.Unlock()
	}

	return ch, unsubscribe
}

// Publish assigns the next ID and sends the message to all subscribers with a
// non-blocking send. It never waits on a slow consumer: a subscriber whose
// buffer is full misses the message, and the next one it receives carries a
// higher ID than expected.
func (b *EventBus) Publish(msg ChangeMessage) {
	msg.ID = b.nextID.Add(1)
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message for slow consumer
		}
	}
}
