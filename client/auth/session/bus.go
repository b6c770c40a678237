package session

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Event describes one session-ended broadcast.
type Event struct {
	ID     string
	Reason error
	Time   time.Time
}

// Listener reacts to a session-ended event. Listeners run synchronously on
// the emitting goroutine and must not block on requests sent through the
// authenticated transport.
type Listener func(ctx context.Context, event *Event)

type subscription struct {
	id       uint64
	listener Listener
}

// Bus fans session-ended events out to its subscribers in subscription order.
type Bus struct {
	mux           sync.RWMutex
	subscriptions []*subscription
	seq           uint64
	emitted       atomic.Int64
	logger        *slog.Logger
}

type Option func(*Bus)

// WithLogger sets logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// New creates a bus
func New(options ...Option) *Bus {
	ret := &Bus{logger: slog.Default()}
	for _, opt := range options {
		opt(ret)
	}
	return ret
}

// Subscribe registers listener and returns a function removing it.
func (b *Bus) Subscribe(listener Listener) (unsubscribe func()) {
	b.mux.Lock()
	defer b.mux.Unlock()
	b.seq++
	id := b.seq
	b.subscriptions = append(b.subscriptions, &subscription{id: id, listener: listener})
	var once sync.Once
	return func() {
		once.Do(func() { b.remove(id) })
	}
}

func (b *Bus) remove(id uint64) {
	b.mux.Lock()
	defer b.mux.Unlock()
	for i, sub := range b.subscriptions {
		if sub.id == id {
			b.subscriptions = append(b.subscriptions[:i:i], b.subscriptions[i+1:]...)
			return
		}
	}
}

// EmitLogout broadcasts a session-ended event carrying reason.
func (b *Bus) EmitLogout(ctx context.Context, reason error) {
	event := &Event{ID: uuid.NewString(), Reason: reason, Time: time.Now()}
	b.mux.RLock()
	subscriptions := make([]*subscription, len(b.subscriptions))
	copy(subscriptions, b.subscriptions)
	b.mux.RUnlock()

	b.emitted.Add(1)
	attrs := []any{
		slog.String("component", "authgate-session"),
		slog.String("event", event.ID),
		slog.Int("listeners", len(subscriptions)),
	}
	if reason != nil {
		attrs = append(attrs, slog.String("reason", reason.Error()))
	}
	b.logger.Info("session ended", attrs...)
	for _, sub := range subscriptions {
		sub.listener(ctx, event)
	}
}

// Emitted returns the number of events broadcast so far.
func (b *Bus) Emitted() int {
	return int(b.emitted.Load())
}
