// Package eventbus is the in-process publish/subscribe bus.
//
// Listeners are kept per event in descending priority; listeners with equal
// priority keep their registration order. Emit runs listeners inline and does
// not wait for listeners registered with Async. EmitAsync runs every listener
// in order, waiting for each, and returns what each one reported.
//
// Both emit paths iterate a copy of the listener list, so listeners may
// register, unregister or emit from inside a callback.
package eventbus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// MaxHistory bounds the emission history.
const MaxHistory = 100

// Handler receives an event payload. Returned errors and panics are logged
// and never reach the emitter.
type Handler func(ctx context.Context, payload any) error

// Result is one listener's outcome from EmitAsync.
type Result struct {
	ListenerID string
	Err        error
}

// HistoryEntry records one emission.
type HistoryEntry struct {
	Event     Event
	Payload   any
	At        time.Time
	Listeners int
}

// ListenOption configures a registration.
type ListenOption func(*listener)

// Priority orders the listener; higher runs first.
func Priority(p int) ListenOption {
	return func(l *listener) { l.priority = p }
}

// OneShot removes the listener after its first invocation.
func OneShot() ListenOption {
	return func(l *listener) { l.once = true }
}

// Async marks the listener as fire-and-forget for Emit.
func Async() ListenOption {
	return func(l *listener) { l.async = true }
}

type listener struct {
	id       string
	handler  Handler
	priority int
	once     bool
	async    bool
}

// Subscription identifies a registered listener.
type Subscription struct {
	ID     string
	cancel func()
}

// Unsubscribe removes the listener. Calling it again is a no-op.
func (s Subscription) Unsubscribe() {
	if s.cancel != nil {
		s.cancel()
	}
}

// Bus is the event bus. The zero value is not usable; call New.
type Bus struct {
	mu        sync.Mutex
	listeners map[Event][]*listener
	history   []HistoryEntry

	debug atomic.Bool
	log   zerolog.Logger
	now   func() time.Time
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{
		listeners: make(map[Event][]*listener),
		log:       log.Logger.With().Str("component", "eventbus").Logger(),
		now:       time.Now,
	}
}

// WithLogger replaces the bus logger.
func (b *Bus) WithLogger(l zerolog.Logger) *Bus {
	b.log = l
	return b
}

// SetDebug toggles logging of every emission.
func (b *Bus) SetDebug(on bool) {
	b.debug.Store(on)
}

// Debug reports whether debug logging is on.
func (b *Bus) Debug() bool {
	return b.debug.Load()
}

// On registers h for event.
func (b *Bus) On(event Event, h Handler, opts ...ListenOption) Subscription {
	l := &listener{id: uuid.Must(uuid.NewV7()).String(), handler: h}
	for _, opt := range opts {
		opt(l)
	}

	b.mu.Lock()
	current := b.listeners[event]
	pos := len(current)
	for i, existing := range current {
		if existing.priority < l.priority {
			pos = i
			break
		}
	}
	next := make([]*listener, 0, len(current)+1)
	next = append(next, current[:pos]...)
	next = append(next, l)
	next = append(next, current[pos:]...)
	b.listeners[event] = next
	b.mu.Unlock()

	var once sync.Once
	return Subscription{
		ID:     l.id,
		cancel: func() { once.Do(func() { b.remove(event, l.id) }) },
	}
}

// Once registers h to run for the next emission of event only.
func (b *Bus) Once(event Event, h Handler, opts ...ListenOption) Subscription {
	return b.On(event, h, append(opts, OneShot())...)
}

// Off removes the listener with the given id. It reports whether one was
// removed.
func (b *Bus) Off(event Event, id string) bool {
	return b.remove(event, id)
}

// Emit delivers payload to every listener of event.
func (b *Bus) Emit(ctx context.Context, event Event, payload any) {
	snapshot := b.begin(event, payload)
	for _, l := range snapshot {
		if l.once && !b.remove(event, l.id) {
			continue
		}
		if l.async {
			go func(l *listener) { _ = b.invoke(ctx, event, l, payload) }(l)
			continue
		}
		_ = b.invoke(ctx, event, l, payload)
	}
}

// EmitAsync delivers payload to every listener of event one after another,
// waiting for each, and returns their outcomes in invocation order. A failing
// listener does not stop the fan-out.
func (b *Bus) EmitAsync(ctx context.Context, event Event, payload any) []Result {
	snapshot := b.begin(event, payload)
	results := make([]Result, 0, len(snapshot))
	for _, l := range snapshot {
		if l.once && !b.remove(event, l.id) {
			continue
		}
		results = append(results, Result{ListenerID: l.id, Err: b.invoke(ctx, event, l, payload)})
	}
	return results
}

// HasListeners reports whether event has any listener.
func (b *Bus) HasListeners(event Event) bool {
	return b.ListenerCount(event) > 0
}

// ListenerCount returns the number of listeners for event.
func (b *Bus) ListenerCount(event Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners[event])
}

// RemoveAllListeners drops the listeners of the given events, or of every
// event when none are given.
func (b *Bus) RemoveAllListeners(events ...Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(events) == 0 {
		b.listeners = make(map[Event][]*listener)
		return
	}
	for _, e := range events {
		delete(b.listeners, e)
	}
}

// GetHistory returns recorded emissions, oldest first. A non-empty filter keeps
// entries whose name equals it or starts with it; a trailing "*" is ignored,
// so "auth:*" and "auth:" both select the auth namespace.
func (b *Bus) GetHistory(filter string) []HistoryEntry {
	prefix := strings.TrimSuffix(filter, "*")

	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]HistoryEntry, 0, len(b.history))
	for _, h := range b.history {
		if prefix == "" || strings.HasPrefix(string(h.Event), prefix) {
			out = append(out, h)
		}
	}
	return out
}

// begin snapshots the listeners of event and records the emission.
func (b *Bus) begin(event Event, payload any) []*listener {
	b.mu.Lock()
	snapshot := b.listeners[event]
	b.history = append(b.history, HistoryEntry{
		Event:     event,
		Payload:   payload,
		At:        b.now(),
		Listeners: len(snapshot),
	})
	if over := len(b.history) - MaxHistory; over > 0 {
		b.history = append([]HistoryEntry(nil), b.history[over:]...)
	}
	b.mu.Unlock()

	if b.debug.Load() {
		b.log.Debug().
			Str("event", string(event)).
			Interface("payload", payload).
			Int("listeners", len(snapshot)).
			Msg("emit")
	}
	return snapshot
}

func (b *Bus) invoke(ctx context.Context, event Event, l *listener, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
		if err != nil {
			b.log.Error().Err(err).Str("event", string(event)).Str("listener", l.id).Msg("listener failed")
		}
	}()
	return l.handler(ctx, payload)
}

func (b *Bus) remove(event Event, id string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	current := b.listeners[event]
	for i, l := range current {
		if l.id != id {
			continue
		}
		if len(current) == 1 {
			delete(b.listeners, event)
			return true
		}
		next := make([]*listener, 0, len(current)-1)
		next = append(next, current[:i]...)
		next = append(next, current[i+1:]...)
		b.listeners[event] = next
		return true
	}
	return false
}
