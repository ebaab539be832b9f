// Package state provides the single store of application state for Palimpseste.
//
// # Overview
//
// The Store owns one state tree (see package tree) and is the only way to
// read or change it. The UI, the session provider and the bootstrap modules
// all go through the same five operations:
//
//	GetState()         shallow copy of the current tree
//	Select(path)       dot-path lookup, ("ui.theme")
//	SetState(partial)  merge a partial tree
//	Dispatch(action)   run a named reducer, then SetState its result
//	Subscribe(fn, sel) observe replacements, optionally gated by a selector
//
// # State Layout
//
//	user, isAuthenticated                         identity
//	likes, readCount, shownItems,
//	authorStats, genreStats                       reading progress
//	achievements, readingPath, readingStats       gamification
//	cache                                         bounded response cache
//	ui {loading, theme, view, panelOpen, toast}   UI flags
//	filters {category -> Set}                     exploration filters
//	textPool, textIndex                           text pool and cursor
//
// # Update Semantics
//
// Every accepted update builds a new tree with tree.Merge; the previous tree
// is never written to. A caller holding an older snapshot keeps seeing exactly
// what it saw. Containers touched by an update are always fresh instances.
//
// After the new tree is published:
//
//  1. The action label is appended to the history (last 50 kept)
//  2. Each subscriber runs; selector subscribers only when their selection
//     changed by tree.ShallowEqual
//  3. The snapshot is written to the persistence adapter, if any
//
// A panicking subscriber is logged and skipped. A failed write is logged and
// the in-memory state stays as published.
//
// # Actions
//
// Dispatch takes an Action from a closed enumeration. The wire names
// ("AUTH_LOGIN", "LIKE_ADD", ...) only appear in history labels and logs.
// Unknown actions and malformed payloads are rejected without touching the
// state.
//
// # Concurrency Model
//
// A mutex guards the tree, the subscriber list and the history, but it is
// never held while user code runs. Reducers compute against a snapshot and
// the result is committed only if no other update landed meanwhile;
// otherwise the reducer runs again on the newer state. Subscribers are
// invoked on a copy of the subscriber list, so they may subscribe,
// unsubscribe or dispatch from inside a notification.
package state
