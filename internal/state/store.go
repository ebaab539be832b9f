package state

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vicoolz/palimpseste/internal/persist"
	"github.com/vicoolz/palimpseste/internal/tree"
)

const persistTimeout = 2 * time.Second

// Listener receives the new and previous state after every accepted update.
type Listener func(next, prev tree.Tree)

// Selector projects the part of the state a subscriber cares about.
type Selector func(tree.Tree) any

// HistoryEntry records one accepted update.
type HistoryEntry struct {
	Action string
	At     time.Time
}

type subscription struct {
	listener Listener
	selector Selector
}

// Options configure a Store.
type Options struct {
	// Defaults builds the initial state; nil uses Default.
	Defaults func() tree.Tree
	// Persist enables snapshot persistence when non-nil.
	Persist *persist.Adapter
	Logger  *zerolog.Logger
	Now     func() time.Time
}

// Store is the single holder of application state.
type Store struct {
	mu      sync.Mutex
	state   tree.Tree
	version uint64
	subs    []*subscription
	history []HistoryEntry

	// persistMu orders snapshot writes; persisted is the version last written.
	persistMu sync.Mutex
	persisted uint64

	defaults func() tree.Tree
	persist  *persist.Adapter
	log      zerolog.Logger
	now      func() time.Time
}

// New builds a Store whose state is the defaults merged with any persisted
// snapshot.
func New(ctx context.Context, opts Options) *Store {
	s := &Store{
		defaults: opts.Defaults,
		persist:  opts.Persist,
		now:      opts.Now,
	}
	if s.defaults == nil {
		s.defaults = Default
	}
	if s.now == nil {
		s.now = time.Now
	}
	if opts.Logger != nil {
		s.log = *opts.Logger
	} else {
		s.log = log.Logger.With().Str("component", "store").Logger()
	}

	initial := s.defaults()
	if s.persist != nil {
		initial = s.persist.Restore(ctx, initial)
	}
	s.state = initial
	return s
}

// GetState returns a shallow copy of the current state. Nested values are
// shared and must not be modified.
func (s *Store) GetState() tree.Tree {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Select resolves a dot-separated path against the current state.
func (s *Store) Select(path string) (any, bool) {
	s.mu.Lock()
	current := s.state
	s.mu.Unlock()
	return tree.Lookup(current, path)
}

// SetState merges partial into the state and records action in the history.
func (s *Store) SetState(partial tree.Tree, action string) {
	_ = s.commit(func(tree.Tree) (tree.Tree, error) { return partial, nil }, action)
}

// UpdateState computes the partial update from the previous state. fn may run
// more than once if another update lands while it is computing, so it must
// be free of side effects.
func (s *Store) UpdateState(fn func(prev tree.Tree) tree.Tree, action string) {
	_ = s.commit(func(prev tree.Tree) (tree.Tree, error) { return fn(prev), nil }, action)
}

// Dispatch runs the reducer for a and applies its result.
func (s *Store) Dispatch(a Action, payload any) error {
	err := s.commit(func(prev tree.Tree) (tree.Tree, error) {
		return reduce(prev, a, payload, s.now())
	}, a.String())
	if err != nil {
		s.log.Warn().Err(err).Str("action", a.String()).Msg("dispatch rejected")
	}
	return err
}

// Subscribe registers listener. With a selector, the listener only fires
// when the selected value changes by shallow equality. The returned function
// removes the subscription and is safe to call more than once.
func (s *Store) Subscribe(listener Listener, selector Selector) func() {
	sub := &subscription{listener: listener, selector: selector}

	s.mu.Lock()
	subs := make([]*subscription, 0, len(s.subs)+1)
	subs = append(subs, s.subs...)
	s.subs = append(subs, sub)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			kept := make([]*subscription, 0, len(s.subs))
			for _, existing := range s.subs {
				if existing != sub {
					kept = append(kept, existing)
				}
			}
			s.subs = kept
		})
	}
}

// Reset restores the default state, notifies every subscriber with
// (initial, initial) and clears the persisted snapshot.
func (s *Store) Reset() {
	initial := s.defaults()

	s.mu.Lock()
	s.state = initial
	s.version++
	version := s.version
	subs := s.subs
	s.mu.Unlock()

	for _, sub := range subs {
		s.invoke(sub, initial, initial)
	}

	if s.persist == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if version <= s.persisted {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persist.Clear(ctx); err != nil {
		s.log.Error().Err(err).Msg("clear persisted state")
	}
	s.persisted = version
}

// GetHistory returns a copy of the action log, oldest first.
func (s *Store) GetHistory() []HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]HistoryEntry, len(s.history))
	copy(out, s.history)
	return out
}

// commit computes the next state outside the lock and publishes it only if
// no other update landed in between. Subscribers and persistence run after
// the lock is released so they may call back into the Store.
func (s *Store) commit(compute func(prev tree.Tree) (tree.Tree, error), action string) error {
	var (
		next      tree.Tree
		committed uint64
	)
	for {
		s.mu.Lock()
		prev, version := s.state, s.version
		s.mu.Unlock()

		partial, err := compute(prev.Clone())
		if err != nil {
			return err
		}
		if partial == nil {
			return nil
		}
		candidate := tree.Merge(prev, partial)

		s.mu.Lock()
		if s.version != version {
			s.mu.Unlock()
			continue
		}
		s.state = candidate
		s.version++
		committed = s.version
		s.history = append(s.history, HistoryEntry{Action: action, At: s.now()})
		if over := len(s.history) - MaxHistory; over > 0 {
			s.history = append([]HistoryEntry(nil), s.history[over:]...)
		}
		subs := s.subs
		s.mu.Unlock()

		next = candidate
		s.notify(subs, next, prev)
		break
	}

	s.write(next, committed, action)
	return nil
}

// write persists next unless a newer version has already been written.
func (s *Store) write(next tree.Tree, version uint64, action string) {
	if s.persist == nil {
		return
	}
	s.persistMu.Lock()
	defer s.persistMu.Unlock()
	if version <= s.persisted {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := s.persist.Write(ctx, next); err != nil {
		s.log.Error().Err(err).Str("action", action).Msg("persist state")
	}
	s.persisted = version
}

func (s *Store) notify(subs []*subscription, next, prev tree.Tree) {
	for _, sub := range subs {
		if sub.selector != nil {
			changed, err := s.selectionChanged(sub.selector, next, prev)
			if err != nil {
				s.log.Error().Err(err).Msg("subscriber selector failed")
				continue
			}
			if !changed {
				continue
			}
		}
		s.invoke(sub, next, prev)
	}
}

func (s *Store) selectionChanged(sel Selector, next, prev tree.Tree) (changed bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("selector panicked: %v", r)
		}
	}()
	return !tree.ShallowEqual(sel(next), sel(prev)), nil
}

func (s *Store) invoke(sub *subscription, next, prev tree.Tree) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Msg("subscriber panicked")
		}
	}()
	sub.listener(next, prev)
}
