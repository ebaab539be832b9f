package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vicoolz/palimpseste/internal/eventbus"
	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/tree"
)

type visibility struct{ calls []bool }

func (v *visibility) SetVisible(b bool) { v.calls = append(v.calls, b) }

func newTestModel(t *testing.T, texts ...tree.Tree) (Model, *state.Store, *eventbus.Bus) {
	t.Helper()
	store := state.New(context.Background(), state.Options{})
	if len(texts) > 0 {
		if err := store.Dispatch(state.ActionTextsSet, texts); err != nil {
			t.Fatalf("TEXTS_SET: %v", err)
		}
	}
	bus := eventbus.New()
	m, err := New(Options{Store: store, Bus: bus})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Close)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model), store, bus
}

func press(t *testing.T, m Model, keys string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)})
	return next.(Model)
}

func text(id, genre string) tree.Tree {
	return tree.Tree{"id": id, "title": "Titre " + id, "author": "Auteur", "genre": genre, "body": "corps " + id}
}

func TestNew_RequiresCore(t *testing.T) {
	if _, err := New(Options{}); err == nil {
		t.Fatalf("New without store succeeded")
	}
}

func TestModel_NextEmitsReadAndAdvances(t *testing.T) {
	m, store, bus := newTestModel(t, text("a", "poésie"), text("b", "roman"))
	var read []any
	bus.On(eventbus.ExtraitRead, func(_ context.Context, p any) error {
		read = append(read, p.(tree.Tree)["extraitId"])
		return nil
	})

	m = press(t, m, "n")

	if len(read) != 1 || read[0] != "a" {
		t.Fatalf("read events = %v", read)
	}
	if state.TextIndex(store.GetState()) != 1 {
		t.Fatalf("index = %d, want 1", state.TextIndex(store.GetState()))
	}
	if !strings.Contains(m.View(), "Titre b") {
		t.Fatalf("view does not show next text")
	}
}

func TestModel_LikeTogglesThroughBus(t *testing.T) {
	m, store, bus := newTestModel(t, text("a", "poésie"))
	var events []eventbus.Event
	for _, e := range []eventbus.Event{eventbus.ExtraitLike, eventbus.ExtraitUnlike} {
		e := e
		bus.On(e, func(_ context.Context, p any) error {
			events = append(events, e)
			id := p.(tree.Tree)["extraitId"].(string)
			action := state.ActionLikeAdd
			if e == eventbus.ExtraitUnlike {
				action = state.ActionLikeRemove
			}
			return store.Dispatch(action, state.LikePayload{ExtraitID: id})
		})
	}

	m = press(t, m, "l")
	if !state.Likes(store.GetState()).Has("a") {
		t.Fatalf("like not recorded")
	}
	m = press(t, m, "l")
	if state.Likes(store.GetState()).Has("a") {
		t.Fatalf("unlike not recorded")
	}
	if len(events) != 2 || events[0] != eventbus.ExtraitLike || events[1] != eventbus.ExtraitUnlike {
		t.Fatalf("events = %v", events)
	}
}

func TestModel_GenreFilterSkipsOtherGenres(t *testing.T) {
	m, store, _ := newTestModel(t, text("a", "poésie"), text("b", "roman"), text("c", "poésie"))

	m = press(t, m, "f")
	m = press(t, m, "n")

	if got := state.TextIndex(store.GetState()); got != 2 {
		t.Fatalf("index = %d, want 2", got)
	}
	if !strings.Contains(m.View(), "filtre poésie") {
		t.Fatalf("header does not show filter")
	}
}

func TestModel_CycleThemeDispatches(t *testing.T) {
	m, store, _ := newTestModel(t)
	m = press(t, m, "T")

	if got := state.Theme(store.GetState()); got != "Kanagawa" {
		t.Fatalf("theme = %q, want Kanagawa", got)
	}
	if m.theme.Name != "Kanagawa" {
		t.Fatalf("model theme = %q", m.theme.Name)
	}
}

func TestModel_JournalAndPathViews(t *testing.T) {
	m, store, _ := newTestModel(t, text("a", "poésie"))
	_ = store.Dispatch(state.ActionReadIncrement, state.ReadPayload{ExtraitID: "a"})

	m = press(t, m, "p")
	if !strings.Contains(m.View(), "Parcours de lecture") || !strings.Contains(m.View(), "Titre a") {
		t.Fatalf("path view missing")
	}

	m = press(t, m, "j")
	if !state.PanelOpen(store.GetState()) {
		t.Fatalf("panel not open")
	}
	next, _ := m.Update(journalMsg{"ligne du journal"})
	if !strings.Contains(next.(Model).View(), "ligne du journal") {
		t.Fatalf("journal content not shown")
	}
}

func TestModel_FocusReportsVisibility(t *testing.T) {
	store := state.New(context.Background(), state.Options{})
	vis := &visibility{}
	m, err := New(Options{Store: store, Bus: eventbus.New(), Env: vis})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(m.Close)

	next, _ := m.Update(tea.BlurMsg{})
	next, _ = next.Update(tea.FocusMsg{})
	_ = next

	if len(vis.calls) != 2 || vis.calls[0] || !vis.calls[1] {
		t.Fatalf("visibility calls = %v", vis.calls)
	}
}

func TestModel_FatalBootShowsErrorView(t *testing.T) {
	m, _, _ := newTestModel(t)
	next, _ := m.Update(bootMsg{err: errors.New("core dependency missing: store")})
	m = next.(Model)

	view := m.View()
	if !strings.Contains(view, "Impossible de démarrer") || !strings.Contains(view, "core dependency missing") {
		t.Fatalf("fatal view = %q", view)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("quit key ignored")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit key did not quit")
	}
}

func TestModel_StateMsgUpdatesSnapshot(t *testing.T) {
	m, store, _ := newTestModel(t)
	_ = store.Dispatch(state.ActionAuthLogin, tree.Tree{"id": "u1", "email": "ada@example.org"})

	next, cmd := m.Update(stateMsg(store.GetState()))
	if cmd == nil {
		t.Fatalf("state wait not re-armed")
	}
	if !strings.Contains(next.(Model).View(), "ada@example.org") {
		t.Fatalf("header does not show user")
	}
}

func TestThemes(t *testing.T) {
	names := ThemeNames()
	if len(names) != 3 || names[0] != state.DefaultTheme {
		t.Fatalf("ThemeNames() = %v", names)
	}
	if NextTheme("Slate") != "Nightfox" || NextTheme("unknown") != "Nightfox" {
		t.Fatalf("NextTheme cycle wrong")
	}
	if GetTheme("nope").Name != "Nightfox" {
		t.Fatalf("GetTheme fallback wrong")
	}
	for _, n := range names {
		th := GetTheme(n)
		if th.Danger == "" || len(th.GenreColors) == 0 {
			t.Fatalf("theme %s incomplete", n)
		}
	}
}

func TestRenderFatal_WithoutSize(t *testing.T) {
	out := RenderFatal(GetTheme("Slate"), errors.New("boom"), 0, 0)
	if !strings.Contains(out, "boom") {
		t.Fatalf("RenderFatal = %q", out)
	}
}
