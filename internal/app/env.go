package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vicoolz/palimpseste/internal/eventbus"
)

const defaultConnectivityPoll = 30 * time.Second

// Prober reports whether the network is usable.
type Prober func(ctx context.Context) error

// HTTPProber probes url with a HEAD request. Any response counts as online.
func HTTPProber(client *http.Client, url string) Prober {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}
	return func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
		if err != nil {
			return fmt.Errorf("create probe: %w", err)
		}
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		_ = resp.Body.Close()
		return nil
	}
}

// Environment turns process-wide conditions into bus events: terminal focus
// (app:background / app:foreground), connectivity (network:online /
// network:offline) and failures escaping background goroutines
// (error:unhandled). Only transitions are emitted.
type Environment struct {
	probe    Prober
	interval time.Duration
	log      zerolog.Logger

	mu      sync.Mutex
	bus     *eventbus.Bus
	ctx     context.Context
	visible *bool
	online  *bool
}

// NewEnvironment returns an Environment. A nil probe disables connectivity
// polling; SetOnline still works.
func NewEnvironment(probe Prober, interval time.Duration) *Environment {
	if interval <= 0 {
		interval = defaultConnectivityPoll
	}
	return &Environment{
		probe:    probe,
		interval: interval,
		log:      log.Logger.With().Str("component", "environment").Logger(),
		ctx:      context.Background(),
	}
}

// Start attaches the environment to bus and launches the connectivity
// poller. The returned function stops it.
func (e *Environment) Start(ctx context.Context, bus *eventbus.Bus) func() {
	ctx, cancel := context.WithCancel(ctx)
	e.mu.Lock()
	e.bus = bus
	e.ctx = ctx
	e.mu.Unlock()

	var wg sync.WaitGroup
	if e.probe != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(e.interval)
			defer ticker.Stop()

			for {
				e.check(ctx)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}

	return func() {
		cancel()
		wg.Wait()
		e.mu.Lock()
		e.bus = nil
		e.mu.Unlock()
	}
}

func (e *Environment) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, e.interval)
	defer cancel()
	err := e.probe(probeCtx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		e.log.Debug().Err(err).Msg("connectivity probe failed")
	}
	e.SetOnline(err == nil)
}

// SetVisible records whether the user is looking at the app.
func (e *Environment) SetVisible(visible bool) {
	if ev, ok := e.transition(&e.visible, visible, eventbus.AppForeground, eventbus.AppBackground); ok {
		e.emit(ev, map[string]any{"visible": visible})
	}
}

// SetOnline records connectivity.
func (e *Environment) SetOnline(online bool) {
	if ev, ok := e.transition(&e.online, online, eventbus.NetworkOnline, eventbus.NetworkOffline); ok {
		e.emit(ev, map[string]any{"online": online})
	}
}

// Online reports the last known connectivity; unknown counts as online.
func (e *Environment) Online() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.online == nil || *e.online
}

// ReportUnhandled publishes err as error:unhandled.
func (e *Environment) ReportUnhandled(err error) {
	if err == nil {
		return
	}
	e.log.Error().Err(err).Msg("unhandled error")
	e.emit(eventbus.ErrorUnhandled, err)
}

// Go runs fn on a new goroutine; an error or panic is reported as unhandled.
func (e *Environment) Go(fn func(ctx context.Context) error) {
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	go func() {
		defer func() {
			if r := recover(); r != nil {
				e.ReportUnhandled(fmt.Errorf("goroutine panicked: %v", r))
			}
		}()
		if err := fn(ctx); err != nil && !errors.Is(err, context.Canceled) {
			e.ReportUnhandled(err)
		}
	}()
}

func (e *Environment) transition(slot **bool, value bool, on, off eventbus.Event) (eventbus.Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if *slot != nil && **slot == value {
		return "", false
	}
	first := *slot == nil
	v := value
	*slot = &v
	// A first healthy observation is the baseline, not a transition.
	if first && value {
		return "", false
	}
	if value {
		return on, true
	}
	return off, true
}

func (e *Environment) emit(ev eventbus.Event, payload any) {
	e.mu.Lock()
	bus, ctx := e.bus, e.ctx
	e.mu.Unlock()
	if bus == nil {
		return
	}
	bus.Emit(ctx, ev, payload)
}
