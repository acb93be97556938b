// Package notify carries toast notifications from the core to whoever
// renders them.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Severity of a notification
type Severity string

const (
	Success Severity = "success"
	Error   Severity = "error"
	Warning Severity = "warning"
	Info    Severity = "info"
)

// DefaultDuration is how long a toast stays visible unless told otherwise
const DefaultDuration = 3 * time.Second

// Event is a toast. An empty Session broadcasts to every subscriber.
type Event struct {
	Message  string   `json:"message"`
	Severity Severity `json:"type"`
	// DurationMS is the display time in milliseconds
	DurationMS int64  `json:"duration"`
	Session    string `json:"-"`
}

// Toast builds an event. A zero duration falls back to DefaultDuration.
func Toast(message string, severity Severity, d time.Duration) Event {
	if severity == "" {
		severity = Info
	}
	if d <= 0 {
		d = DefaultDuration
	}
	return Event{Message: message, Severity: severity, DurationMS: d.Milliseconds()}
}

// For addresses the event to one session
func (e Event) For(session string) Event {
	e.Session = session
	return e
}

// Publisher is what the core needs to raise notifications
type Publisher interface {
	Publish(e Event)
}

type subscriber struct {
	session string
	ch      chan Event
}

// Bus fans events out to subscribers. Slow subscribers lose events
// instead of blocking the publisher.
type Bus struct {
	mu     sync.RWMutex
	subs   map[int]*subscriber
	next   int
	buffer int
	closed bool
	logger *slog.Logger
}

// NewBus creates a bus whose subscriber channels hold buffer events
func NewBus(buffer int, logger *slog.Logger) *Bus {
	if buffer <= 0 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Bus{subs: map[int]*subscriber{}, buffer: buffer, logger: logger}
}

// Subscribe receives broadcasts plus the events addressed to session.
// The returned cancel func closes the channel.
func (b *Bus) Subscribe(session string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, b.buffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = &subscriber{session: session, ch: ch}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if sub, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(sub.ch)
			}
		})
	}
}

// Publish delivers e without blocking
func (b *Bus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs {
		if e.Session != "" && sub.session != e.Session {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			b.logger.Warn("notification dropped for slow subscriber",
				slog.String("session", sub.session),
				slog.String("message", e.Message),
			)
		}
	}
}

// Subscribers returns the number of live subscriptions
func (b *Bus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
	b.closed = true
}
