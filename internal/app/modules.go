package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/vicoolz/palimpseste/internal/eventbus"
	"github.com/vicoolz/palimpseste/internal/session"
	"github.com/vicoolz/palimpseste/internal/state"
)

// Deps is what a module receives at init.
type Deps struct {
	Store *state.Store
	Bus   *eventbus.Bus
	// Session is nil when the auth provider never became available.
	Session session.Client
	// OnClose registers teardown run by Bootstrap.Close.
	OnClose func(func())
}

// Module is a unit of work run during the module phase.
type Module struct {
	Name     string
	Priority int
	Init     func(ctx context.Context, deps Deps) error
}

// Registry collects modules before bootstrap.
type Registry struct {
	mu      sync.Mutex
	modules []Module
}

// Register adds m. Names must be unique.
func (r *Registry) Register(m Module) error {
	name := strings.TrimSpace(m.Name)
	if name == "" {
		return fmt.Errorf("module name required")
	}
	if m.Init == nil {
		return fmt.Errorf("module %s: init required", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.modules {
		if existing.Name == name {
			return fmt.Errorf("module %s already registered", name)
		}
	}
	m.Name = name
	r.modules = append(r.modules, m)
	return nil
}

// Ordered returns the modules in descending priority, registration order
// among equals.
func (r *Registry) Ordered() []Module {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	out := make([]Module, len(r.modules))
	copy(out, r.modules)
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
