package app

import (
	"context"
	"testing"

	"github.com/vicoolz/palimpseste/internal/config"
	"github.com/vicoolz/palimpseste/internal/eventbus"
	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/storage"
)

func testConfig(t *testing.T, kind storage.Kind) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.StateDir = t.TempDir()
	cfg.Storage = kind
	return cfg
}

func TestAssemble_BootLoadsLibraryAndWires(t *testing.T) {
	ctx := context.Background()
	rt, err := Assemble(ctx, testConfig(t, storage.KindMemory), Options{Debug: true})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })

	var loaded int
	rt.Bus.On(eventbus.FeedLoaded, func(_ context.Context, p any) error {
		loaded = p.(map[string]any)["texts"].(int)
		return nil
	})

	if err := rt.Boot(ctx); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	if loaded == 0 || len(state.TextPool(rt.Store.GetState())) != loaded {
		t.Fatalf("library not loaded: %d", loaded)
	}
	if state.Loading(rt.Store.GetState()) {
		t.Fatalf("still loading after boot")
	}

	rt.Bus.Emit(ctx, eventbus.ExtraitRead, "verlaine-chanson-automne")
	s := rt.Store.GetState()
	if state.ReadCount(s) != 1 || len(state.Achievements(s)) != 1 {
		t.Fatalf("readCount = %d achievements = %d", state.ReadCount(s), len(state.Achievements(s)))
	}
	if !rt.Bus.Debug() {
		t.Fatalf("debug flag not applied")
	}
}

func TestAssemble_PersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, storage.KindSQLite)
	cfg.Theme = "Slate"

	first, err := Assemble(ctx, cfg, Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	if err := first.Boot(ctx); err != nil {
		t.Fatalf("Boot: %v", err)
	}
	first.Bus.Emit(ctx, eventbus.ExtraitLike, "hugo-demain-des-l-aube")
	if err := first.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	second, err := Assemble(ctx, cfg, Options{})
	if err != nil {
		t.Fatalf("Assemble again: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	s := second.Store.GetState()
	if !state.Likes(s).Has("hugo-demain-des-l-aube") {
		t.Fatalf("like not restored: %v", state.Likes(s).Values())
	}
	if state.Theme(s) != "Slate" {
		t.Fatalf("theme = %q", state.Theme(s))
	}
}

func TestAssemble_PersistDisabled(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, storage.KindFile)
	cfg.Persist = false

	rt, err := Assemble(ctx, cfg, Options{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	t.Cleanup(func() { _ = rt.Close() })
	if rt.Persist != nil {
		t.Fatalf("persistence enabled")
	}
	_ = rt.Store.Dispatch(state.ActionLikeAdd, state.LikePayload{ExtraitID: "x"})
	if _, err := rt.Backend.Load(ctx, "palimpseste_state"); err == nil {
		t.Fatalf("snapshot written with persistence off")
	}
}

func TestConnectivityProbe(t *testing.T) {
	if connectivityProbe(config.Config{}) != nil {
		t.Fatalf("probe without any url")
	}
	if connectivityProbe(config.Config{FeedURL: "https://example.org/f.json"}) == nil {
		t.Fatalf("feed url ignored")
	}
}
