package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vicoolz/palimpseste/internal/eventbus"
	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/tree"
)

// Wire installs the two-way sync between store and bus and returns a
// function removing it.
//
// Store to bus: auth transitions emit auth:changed, theme changes
// ui:theme-changed, loading transitions ui:loading and each newly unlocked
// achievement gamification:achievement.
//
// Bus to store: extrait:like, extrait:unlike and extrait:read dispatch
// LIKE_ADD, LIKE_REMOVE and READ_INCREMENT.
func Wire(ctx context.Context, store *state.Store, bus *eventbus.Bus, logger zerolog.Logger) func() {
	var undo []func()

	undo = append(undo,
		store.Subscribe(func(next, _ tree.Tree) {
			user, _ := state.User(next)
			bus.Emit(ctx, eventbus.AuthChanged, map[string]any{
				"isAuthenticated": state.IsAuthenticated(next),
				"user":            user,
			})
		}, func(s tree.Tree) any { return state.IsAuthenticated(s) }),

		store.Subscribe(func(next, _ tree.Tree) {
			bus.Emit(ctx, eventbus.UIThemeChanged, state.Theme(next))
		}, func(s tree.Tree) any { return state.Theme(s) }),

		store.Subscribe(func(next, _ tree.Tree) {
			bus.Emit(ctx, eventbus.UILoading, state.Loading(next))
		}, func(s tree.Tree) any { return state.Loading(s) }),

		store.Subscribe(func(next, prev tree.Tree) {
			for _, a := range newAchievements(prev, next) {
				bus.Emit(ctx, eventbus.GamificationAchievement, a)
			}
		}, func(s tree.Tree) any { return len(state.Achievements(s)) }),
	)

	dispatch := func(a state.Action, payload any) {
		if err := store.Dispatch(a, payload); err != nil {
			logger.Warn().Err(err).Str("action", a.String()).Msg("event dispatch rejected")
		}
	}
	subs := []eventbus.Subscription{
		bus.On(eventbus.ExtraitLike, func(_ context.Context, payload any) error {
			dispatch(state.ActionLikeAdd, state.LikePayload{ExtraitID: extraitOf(payload).ExtraitID})
			return nil
		}),
		bus.On(eventbus.ExtraitUnlike, func(_ context.Context, payload any) error {
			dispatch(state.ActionLikeRemove, state.LikePayload{ExtraitID: extraitOf(payload).ExtraitID})
			return nil
		}),
		bus.On(eventbus.ExtraitRead, func(_ context.Context, payload any) error {
			dispatch(state.ActionReadIncrement, extraitOf(payload))
			return nil
		}),
	}
	for _, sub := range subs {
		undo = append(undo, sub.Unsubscribe)
	}

	return func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}
}

func newAchievements(prev, next tree.Tree) []tree.Tree {
	seen := make(map[any]bool)
	for _, a := range state.Achievements(prev) {
		seen[a["id"]] = true
	}
	var out []tree.Tree
	for _, a := range state.Achievements(next) {
		if !seen[a["id"]] {
			out = append(out, a)
		}
	}
	return out
}

// extraitOf accepts the payload shapes producers use for extrait events: a
// bare id, the state payload structs, or a record with extraitId (or id),
// author and genre.
func extraitOf(payload any) state.ReadPayload {
	switch p := payload.(type) {
	case string:
		return state.ReadPayload{ExtraitID: p}
	case state.ReadPayload:
		return p
	case state.LikePayload:
		return state.ReadPayload{ExtraitID: p.ExtraitID}
	}
	rec, ok := tree.AsTree(payload)
	if !ok {
		return state.ReadPayload{}
	}
	id, _ := rec["extraitId"].(string)
	if id == "" {
		id, _ = rec["id"].(string)
	}
	author, _ := rec["author"].(string)
	genre, _ := rec["genre"].(string)
	return state.ReadPayload{ExtraitID: id, Author: author, Genre: genre}
}
