package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vicoolz/palimpseste/internal/config"
	"github.com/vicoolz/palimpseste/internal/eventbus"
	"github.com/vicoolz/palimpseste/internal/library"
	"github.com/vicoolz/palimpseste/internal/logging"
	"github.com/vicoolz/palimpseste/internal/persist"
	"github.com/vicoolz/palimpseste/internal/session"
	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/storage"
	"github.com/vicoolz/palimpseste/internal/ui"
)

// Name is the application name; it also keys the persisted snapshot.
const Name = "palimpseste"

// Options configure Run.
type Options struct {
	ConfigPath string
	// Debug logs every bus emission.
	Debug bool
}

// Runtime is the assembled client: one store, one bus, and everything wired
// to them.
type Runtime struct {
	Config    config.Config
	Backend   storage.Backend
	Persist   *persist.Adapter
	Store     *state.Store
	Bus       *eventbus.Bus
	Env       *Environment
	Bootstrap *Bootstrap

	closeBackend func() error
}

// Assemble builds the runtime for cfg without starting it.
func Assemble(ctx context.Context, cfg config.Config, opts Options) (*Runtime, error) {
	backend, closeBackend, err := storage.Open(cfg.Storage, cfg.StateDir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	var adapter *persist.Adapter
	if cfg.Persist {
		adapter = persist.NewAdapter(backend, persist.KeyFor(Name))
	}
	storeLog := logging.Component("store")
	store := state.New(ctx, state.Options{Persist: adapter, Logger: &storeLog})
	if theme := strings.TrimSpace(cfg.Theme); theme != "" && theme != state.Theme(store.GetState()) {
		_ = store.Dispatch(state.ActionUISetTheme, theme)
	}

	bus := eventbus.New().WithLogger(logging.Component("eventbus"))
	bus.SetDebug(opts.Debug)

	env := NewEnvironment(connectivityProbe(cfg), cfg.ConnectivityPoll)

	reg := &Registry{}
	libLog := logging.Component("library")
	loader := &library.Loader{Store: store, FeedURL: cfg.FeedURL, Log: &libLog}
	if err := reg.Register(LibraryModule(loader)); err != nil {
		_ = closeBackend()
		return nil, err
	}
	if err := reg.Register(GamificationModule(DefaultMilestones, logging.Component("gamification"))); err != nil {
		_ = closeBackend()
		return nil, err
	}

	var sdk session.SDK
	if cfg.SessionConfigured() {
		sessionLog := logging.Component("session")
		sdk = &session.HTTPSDK{URL: cfg.SupabaseURL, Store: backend, Log: &sessionLog}
	}

	bootLog := logging.Component("bootstrap")
	boot := NewBootstrap(BootstrapOptions{
		Store:          store,
		Bus:            bus,
		SDK:            sdk,
		URL:            cfg.SupabaseURL,
		Key:            cfg.SupabaseKey,
		SessionTimeout: cfg.SessionTimeout,
		SessionPoll:    cfg.SessionPoll,
		Modules:        reg,
		Env:            env,
		Logger:         &bootLog,
	})

	return &Runtime{
		Config:       cfg,
		Backend:      backend,
		Persist:      adapter,
		Store:        store,
		Bus:          bus,
		Env:          env,
		Bootstrap:    boot,
		closeBackend: closeBackend,
	}, nil
}

// Close tears down the wiring and closes storage.
func (r *Runtime) Close() error {
	r.Bootstrap.Close()
	return r.closeBackend()
}

// Boot runs the bootstrap and turns a negative result into an error.
func (r *Runtime) Boot(ctx context.Context) error {
	res := r.Bootstrap.Init(ctx)
	if !res.Ready {
		return res.Err
	}
	return nil
}

// Run boots the reader until the user quits or the context is cancelled.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	closer, err := logging.Configure(logging.ProfileTUI, cfg.LogPath())
	if err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer closer.Close()

	rt, err := Assemble(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := rt.Close(); cerr != nil {
			l := logging.Component("app")
			l.Warn().Err(cerr).Msg("close storage")
		}
	}()

	return ui.Run(ui.Options{
		Context: ctx,
		Store:   rt.Store,
		Bus:     rt.Bus,
		Env:     rt.Env,
		Boot:    rt.Boot,
		LogPath: cfg.LogPath(),
	})
}

// LibraryModule loads the text pool during bootstrap.
func LibraryModule(l *library.Loader) Module {
	return Module{
		Name:     "library",
		Priority: 100,
		Init: func(ctx context.Context, deps Deps) error {
			_ = deps.Store.Dispatch(state.ActionUISetLoading, true)
			defer func() { _ = deps.Store.Dispatch(state.ActionUISetLoading, false) }()

			res, err := l.Load(ctx)
			if err != nil {
				return err
			}
			deps.Bus.Emit(ctx, eventbus.FeedLoaded, map[string]any{
				"texts":  res.Texts,
				"remote": res.Remote,
				"cached": res.Cached,
			})
			if res.FeedErr != nil && !errors.Is(res.FeedErr, context.Canceled) {
				deps.Bus.Emit(ctx, eventbus.ErrorNetwork, res.FeedErr)
			}
			return nil
		},
	}
}

func connectivityProbe(cfg config.Config) Prober {
	switch {
	case cfg.SupabaseURL != "":
		return HTTPProber(nil, strings.TrimRight(cfg.SupabaseURL, "/")+"/auth/v1/health")
	case cfg.FeedURL != "":
		return HTTPProber(nil, cfg.FeedURL)
	default:
		return nil
	}
}
