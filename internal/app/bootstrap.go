package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vicoolz/palimpseste/internal/eventbus"
	"github.com/vicoolz/palimpseste/internal/session"
	"github.com/vicoolz/palimpseste/internal/state"
)

var (
	// ErrCoreMissing is the fatal bootstrap error: the store or bus is absent.
	ErrCoreMissing = errors.New("core dependency missing")
	// ErrSessionTimeout is recorded when the auth provider never became
	// available.
	ErrSessionTimeout = errors.New("session provider unavailable")
)

const (
	defaultSessionTimeout = 5 * time.Second
	defaultSessionPoll    = 100 * time.Millisecond
)

// Phase is a bootstrap step.
type Phase int

const (
	PhaseCore Phase = iota + 1
	PhaseSession
	PhaseModules
	PhaseWiring
)

func (p Phase) String() string {
	switch p {
	case PhaseCore:
		return "core"
	case PhaseSession:
		return "session"
	case PhaseModules:
		return "modules"
	case PhaseWiring:
		return "wiring"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// ModuleFailure records a module whose init failed.
type ModuleFailure struct {
	Module string
	Err    error
}

// Result is the outcome of Init.
type Result struct {
	// Ready is false only when the core phase failed.
	Ready bool
	// Err is the fatal error when Ready is false.
	Err error
	// Phase is the last phase that ran.
	Phase Phase
	// SessionErr is set when the auth provider could not be used.
	SessionErr error
	Failures   []ModuleFailure
	Elapsed    time.Duration
}

// BootstrapOptions configure a Bootstrap.
type BootstrapOptions struct {
	Store *state.Store
	Bus   *eventbus.Bus

	// SDK is optional; nil skips the session phase.
	SDK            session.SDK
	URL, Key       string
	SessionTimeout time.Duration
	SessionPoll    time.Duration

	Modules *Registry
	// Env is optional; nil installs no environment listeners.
	Env *Environment

	// OnFatal receives the fatal error so it can be shown.
	OnFatal func(error)
	Logger  *zerolog.Logger
}

// Bootstrap runs the startup sequence once.
type Bootstrap struct {
	opts BootstrapOptions
	log  zerolog.Logger

	once   sync.Once
	result Result

	mu       sync.Mutex
	client   session.Client
	teardown []func()
}

// NewBootstrap returns a sequencer for opts.
func NewBootstrap(opts BootstrapOptions) *Bootstrap {
	logger := log.Logger.With().Str("component", "bootstrap").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = defaultSessionTimeout
	}
	if opts.SessionPoll <= 0 {
		opts.SessionPoll = defaultSessionPoll
	}
	return &Bootstrap{opts: opts, log: logger}
}

// Init runs the four phases: core check, session provider, modules, then
// wiring and environment listeners. Concurrent and repeated calls share the
// first call's result.
func (b *Bootstrap) Init(ctx context.Context) Result {
	b.once.Do(func() {
		start := time.Now()
		b.result = b.run(ctx)
		b.result.Elapsed = time.Since(start)
	})
	return b.result
}

// Session returns the session client, or nil before the session phase
// succeeded.
func (b *Bootstrap) Session() session.Client {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client
}

// Close undoes the wiring and module registrations, newest first.
func (b *Bootstrap) Close() {
	b.mu.Lock()
	teardown := b.teardown
	b.teardown = nil
	b.mu.Unlock()
	for i := len(teardown) - 1; i >= 0; i-- {
		teardown[i]()
	}
}

func (b *Bootstrap) onClose(fn func()) {
	if fn == nil {
		return
	}
	b.mu.Lock()
	b.teardown = append(b.teardown, fn)
	b.mu.Unlock()
}

func (b *Bootstrap) run(ctx context.Context) Result {
	res := Result{Phase: PhaseCore}
	if err := b.checkCore(); err != nil {
		b.log.Error().Err(err).Msg("bootstrap aborted")
		if b.opts.OnFatal != nil {
			b.opts.OnFatal(err)
		}
		res.Err = err
		return res
	}

	res.Phase = PhaseSession
	if b.opts.SDK != nil {
		if err := b.initSession(ctx); err != nil {
			b.log.Warn().Err(err).Msg("continuing without session provider")
			res.SessionErr = err
		}
	} else {
		b.log.Info().Msg("no session provider configured")
	}

	res.Phase = PhaseModules
	res.Failures = b.initModules(ctx)

	res.Phase = PhaseWiring
	b.onClose(Wire(ctx, b.opts.Store, b.opts.Bus, b.log))
	if b.opts.Env != nil {
		b.onClose(b.opts.Env.Start(ctx, b.opts.Bus))
	}

	res.Ready = true
	b.opts.Bus.Emit(ctx, eventbus.AppInitialized, map[string]any{
		"modules":  len(b.opts.Modules.Ordered()),
		"failures": len(res.Failures),
	})
	b.log.Info().Int("module_failures", len(res.Failures)).Bool("session", res.SessionErr == nil && b.opts.SDK != nil).Msg("bootstrap complete")
	return res
}

func (b *Bootstrap) checkCore() error {
	switch {
	case b.opts.Store == nil:
		return fmt.Errorf("%w: store", ErrCoreMissing)
	case b.opts.Bus == nil:
		return fmt.Errorf("%w: event bus", ErrCoreMissing)
	}
	return nil
}

func (b *Bootstrap) initSession(ctx context.Context) error {
	if err := b.waitForSDK(ctx); err != nil {
		return err
	}
	client, err := b.opts.SDK.NewClient(b.opts.URL, b.opts.Key)
	if err != nil {
		return fmt.Errorf("create session client: %w", err)
	}

	store, bus := b.opts.Store, b.opts.Bus
	b.onClose(client.OnAuthStateChange(func(event session.AuthEvent, sess *session.Session) {
		switch {
		case event == session.EventSignedOut || sess == nil:
			if err := store.Dispatch(state.ActionAuthLogout, nil); err != nil {
				b.log.Warn().Err(err).Msg("logout dispatch failed")
			}
			bus.Emit(ctx, eventbus.AuthLogout, nil)
		case event == session.EventTokenRefreshed:
			if err := store.Dispatch(state.ActionAuthLogin, sess.User.Tree()); err != nil {
				b.log.Warn().Err(err).Msg("refresh dispatch failed")
			}
		default:
			if err := store.Dispatch(state.ActionAuthLogin, sess.User.Tree()); err != nil {
				b.log.Warn().Err(err).Msg("login dispatch failed")
			}
			bus.Emit(ctx, eventbus.AuthLogin, sess.User)
		}
	}))

	b.mu.Lock()
	b.client = client
	b.mu.Unlock()

	sess, err := client.GetSession(ctx)
	if err != nil {
		return fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		// A restored snapshot may still claim a user the provider no longer knows.
		if state.IsAuthenticated(store.GetState()) {
			if err := store.Dispatch(state.ActionAuthLogout, nil); err != nil {
				return fmt.Errorf("clear stale session: %w", err)
			}
			b.log.Info().Msg("stored login has no session, signed out")
		}
		return nil
	}
	if err := store.Dispatch(state.ActionAuthLogin, sess.User.Tree()); err != nil {
		return fmt.Errorf("seed session: %w", err)
	}
	b.log.Info().Str("user", sess.User.ID).Msg("session restored")
	return nil
}

// waitForSDK polls the SDK until it is available or the session timeout
// expires.
func (b *Bootstrap) waitForSDK(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.SessionTimeout)
	defer cancel()

	ticker := time.NewTicker(b.opts.SessionPoll)
	defer ticker.Stop()

	var last error
	for {
		if last = b.opts.SDK.Available(ctx); last == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w after %s: %v", ErrSessionTimeout, b.opts.SessionTimeout, last)
		case <-ticker.C:
		}
	}
}

func (b *Bootstrap) initModules(ctx context.Context) []ModuleFailure {
	deps := Deps{
		Store:   b.opts.Store,
		Bus:     b.opts.Bus,
		Session: b.Session(),
		OnClose: b.onClose,
	}
	var failures []ModuleFailure
	for _, m := range b.opts.Modules.Ordered() {
		started := time.Now()
		if err := runModule(ctx, m, deps); err != nil {
			b.log.Error().Err(err).Str("module", m.Name).Msg("module init failed")
			failures = append(failures, ModuleFailure{Module: m.Name, Err: err})
			continue
		}
		b.log.Debug().Str("module", m.Name).Dur("took", time.Since(started)).Msg("module ready")
	}
	return failures
}

func runModule(ctx context.Context, m Module, deps Deps) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("module %s panicked: %v", m.Name, r)
		}
	}()
	return m.Init(ctx, deps)
}
