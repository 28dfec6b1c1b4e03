// Package broadcast propagates mutations between attached views.
//
// Views share no memory; a single named topic carries {type, payload,
// timestamp} events to every subscriber, including the sender's own queue.
// Senders recognize their own events by timestamp equality. That is an
// approximate de-duplication, not a unique one: two unrelated sends in the
// same millisecond could be skipped, which is acceptable for view refresh
// traffic. Consistency is eventual; handlers must be idempotent under
// re-application and under out-of-order arrival across independent event
// kinds.
package broadcast

import (
	"log/slog"
	"sync"
	"time"
)

// EventType names a kind of broadcast event.
type EventType string

const (
	MessagesUpdated EventType = "MESSAGES_UPDATED"
	AccountSwitched EventType = "ACCOUNT_SWITCHED"
	DarkModeToggled EventType = "DARK_MODE_TOGGLED"
)

// Event is one broadcast message.
type Event struct {
	Type      EventType `json:"type"`
	Payload   string    `json:"payload,omitempty"`
	Timestamp int64     `json:"timestamp"` // unix milliseconds, stamped at publish
}

// subscriberBuffer sizes each subscriber's inbound queue. A subscriber that
// falls further behind loses events rather than blocking the sender; its
// next refresh reconverges it.
const subscriberBuffer = 16

// Bus is the single named topic connecting all views in the process.
type Bus struct {
	topic  string
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[*Subscriber]struct{}
}

// NewBus creates a bus for the given topic name.
func NewBus(topic string, logger *slog.Logger) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{
		topic:  topic,
		logger: logger,
		subs:   make(map[*Subscriber]struct{}),
	}
}

// Topic returns the bus topic name.
func (b *Bus) Topic() string { return b.topic }

// Subscribe attaches a new view to the topic.
func (b *Bus) Subscribe() *Subscriber {
	s := &Subscriber{
		bus: b,
		ch:  make(chan Event, subscriberBuffer),
	}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s
}

// Publish stamps and delivers an event from outside any view (e.g. the sync
// loop). No echo tracking applies.
func (b *Bus) Publish(t EventType, payload string) Event {
	evt := Event{Type: t, Payload: payload, Timestamp: time.Now().UnixMilli()}
	b.deliver(evt)
	return evt
}

func (b *Bus) deliver(evt Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for s := range b.subs {
		select {
		case s.ch <- evt:
		default:
			b.logger.Debug("dropping event for slow subscriber", "type", evt.Type)
		}
	}
}

// Subscriber is one attached view's inbound event queue.
type Subscriber struct {
	bus *Bus
	ch  chan Event

	mu       sync.Mutex
	lastSent int64
	closed   bool
}

// Events returns the subscriber's inbound queue. The channel is closed by
// Close.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Publish stamps and delivers an event on behalf of this view, recording the
// timestamp for self-echo suppression.
func (s *Subscriber) Publish(t EventType, payload string) Event {
	evt := Event{Type: t, Payload: payload, Timestamp: time.Now().UnixMilli()}
	s.mu.Lock()
	s.lastSent = evt.Timestamp
	s.mu.Unlock()
	s.bus.deliver(evt)
	return evt
}

// IsEcho reports whether evt carries this view's own last-sent timestamp.
func (s *Subscriber) IsEcho(evt Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSent != 0 && evt.Timestamp == s.lastSent
}

// Close detaches the subscriber and closes its queue. Safe to call once.
func (s *Subscriber) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.bus.mu.Lock()
	delete(s.bus.subs, s)
	s.bus.mu.Unlock()
	close(s.ch)
}
