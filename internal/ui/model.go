// Package ui is the terminal reader: one text at a time, likes, genre
// filter, reading path, theme cycling and a journal panel showing the
// client's own log.
package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vicoolz/palimpseste/internal/eventbus"
	"github.com/vicoolz/palimpseste/internal/logtail"
	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/tree"
)

const (
	defaultJournalRefresh = 2 * time.Second
	journalLines          = 200
	toastLifetime         = 5 * time.Second

	viewPath = "path"
)

// VisibilityReporter receives terminal focus changes.
type VisibilityReporter interface {
	SetVisible(visible bool)
}

// Options configures the UI.
type Options struct {
	Context context.Context
	Store   *state.Store
	Bus     *eventbus.Bus
	// Env is optional.
	Env VisibilityReporter
	// Boot runs once when the program starts; an error switches to the
	// fatal view.
	Boot           func(ctx context.Context) error
	LogPath        string
	JournalRefresh time.Duration
	// Now defaults to time.Now.
	Now func() time.Time
}

type (
	stateMsg       tree.Tree
	bootMsg        struct{ err error }
	journalMsg     []string
	journalTickMsg struct{}
)

// Model is the root Bubble Tea model.
type Model struct {
	ctx     context.Context
	store   *state.Store
	bus     *eventbus.Bus
	env     VisibilityReporter
	boot    func(ctx context.Context) error
	logPath string
	refresh time.Duration
	now     func() time.Time

	changes     chan struct{}
	unsubscribe func()

	keys    keyMap
	help    help.Model
	theme   Theme
	snap    tree.Tree
	journal viewport.Model

	width   int
	height  int
	ready   bool
	booting bool
	fatal   error
}

// New builds the model and subscribes it to the store.
func New(opts Options) (Model, error) {
	if opts.Store == nil || opts.Bus == nil {
		return Model{}, fmt.Errorf("ui requires a store and an event bus")
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	refresh := opts.JournalRefresh
	if refresh <= 0 {
		refresh = defaultJournalRefresh
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	changes := make(chan struct{}, 1)
	unsubscribe := opts.Store.Subscribe(func(tree.Tree, tree.Tree) {
		select {
		case changes <- struct{}{}:
		default:
		}
	}, nil)

	snap := opts.Store.GetState()
	return Model{
		ctx:         ctx,
		store:       opts.Store,
		bus:         opts.Bus,
		env:         opts.Env,
		boot:        opts.Boot,
		logPath:     opts.LogPath,
		refresh:     refresh,
		now:         now,
		changes:     changes,
		unsubscribe: unsubscribe,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		theme:       GetTheme(state.Theme(snap)),
		snap:        snap,
		journal:     viewport.New(0, 0),
		booting:     opts.Boot != nil,
	}, nil
}

// Close detaches the model from the store.
func (m Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForState(m.ctx, m.changes, m.store), journalTick(m.refresh)}
	if m.boot != nil {
		cmds = append(cmds, bootCmd(m.ctx, m.boot))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		m.resizeJournal()
		return m, nil

	case tea.FocusMsg:
		if m.env != nil {
			m.env.SetVisible(true)
		}
		return m, nil

	case tea.BlurMsg:
		if m.env != nil {
			m.env.SetVisible(false)
		}
		return m, nil

	case bootMsg:
		m.booting = false
		m.fatal = msg.err
		m.snap = m.store.GetState()
		return m, nil

	case stateMsg:
		m.setSnapshot(tree.Tree(msg))
		return m, waitForState(m.ctx, m.changes, m.store)

	case journalTickMsg:
		cmds := []tea.Cmd{journalTick(m.refresh)}
		if state.PanelOpen(m.snap) {
			cmds = append(cmds, readJournal(m.logPath))
		}
		return m, tea.Batch(cmds...)

	case journalMsg:
		m.journal.SetContent(joinLines(msg))
		m.journal.GotoBottom()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.fatal != nil {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Next):
		m.advance()

	case key.Matches(msg, m.keys.Like):
		m.toggleLike()

	case key.Matches(msg, m.keys.FilterGenre):
		if cur, ok := state.CurrentText(m.snap); ok {
			if genre, _ := cur["genre"].(string); genre != "" {
				_ = m.store.Dispatch(state.ActionFilterToggle, state.FilterPayload{Category: "genre", Value: genre})
			}
		}

	case key.Matches(msg, m.keys.CycleTheme):
		_ = m.store.Dispatch(state.ActionUISetTheme, NextTheme(m.theme.Name))

	case key.Matches(msg, m.keys.Journal):
		_ = m.store.Dispatch(state.ActionUITogglePanel, nil)
		m.setSnapshot(m.store.GetState())
		m.resizeJournal()
		if state.PanelOpen(m.snap) {
			return m, readJournal(m.logPath)
		}
		return m, nil

	case key.Matches(msg, m.keys.ViewPath):
		view := viewPath
		if currentView(m.snap) == viewPath {
			view = state.DefaultView
		}
		_ = m.store.Dispatch(state.ActionUISetView, view)

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		var cmd tea.Cmd
		m.journal, cmd = m.journal.Update(msg)
		return m, cmd
	}

	m.setSnapshot(m.store.GetState())
	return m, nil
}

// advance records the current text as read and moves to the next text
// matching the genre filter.
func (m *Model) advance() {
	cur, ok := state.CurrentText(m.snap)
	if !ok {
		return
	}
	m.bus.Emit(m.ctx, eventbus.ExtraitRead, tree.Tree{
		"extraitId": cur["id"],
		"author":    cur["author"],
		"genre":     cur["genre"],
	})

	genres := genreFilter(m.store.GetState())
	pool := len(state.TextPool(m.snap))
	for i := 0; i < pool; i++ {
		_ = m.store.Dispatch(state.ActionTextNext, nil)
		next, _ := state.CurrentText(m.store.GetState())
		if genre, _ := next["genre"].(string); genres.Len() == 0 || genres.Has(genre) {
			break
		}
	}
	m.setSnapshot(m.store.GetState())
}

func (m *Model) toggleLike() {
	cur, ok := state.CurrentText(m.snap)
	if !ok {
		return
	}
	id, _ := cur["id"].(string)
	event := eventbus.ExtraitLike
	if state.Likes(m.snap).Has(id) {
		event = eventbus.ExtraitUnlike
	}
	m.bus.Emit(m.ctx, event, tree.Tree{"extraitId": id})
}

func (m *Model) setSnapshot(s tree.Tree) {
	m.snap = s
	m.theme = GetTheme(state.Theme(s))
}

func (m *Model) resizeJournal() {
	m.journal.Width = m.width / 3
	m.journal.Height = max(m.height-4, 1)
}

func genreFilter(s tree.Tree) *tree.Set {
	v, _ := tree.Lookup(s, state.KeyFilters+".genre")
	set, _ := v.(*tree.Set)
	return set
}

func currentView(s tree.Tree) string {
	v, _ := tree.Lookup(s, state.KeyUI+".view")
	view, _ := v.(string)
	if view == "" {
		return state.DefaultView
	}
	return view
}

func waitForState(ctx context.Context, changes <-chan struct{}, store *state.Store) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			return stateMsg(store.GetState())
		}
	}
}

func bootCmd(ctx context.Context, boot func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return bootMsg{err: boot(ctx)}
	}
}

func journalTick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return journalTickMsg{} })
}

func readJournal(path string) tea.Cmd {
	if path == "" {
		return nil
	}
	return func() tea.Msg {
		entries, err := logtail.Tail(path, journalLines)
		if err != nil {
			return journalMsg{fmt.Sprintf("journal indisponible : %v", err)}
		}
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = logtail.Format(e)
		}
		return journalMsg(lines)
	}
}
