package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/tree"
)

// Milestone unlocks an achievement once metric reaches Threshold.
type Milestone struct {
	ID        string
	Title     string
	Metric    func(tree.Tree) int
	Threshold int
}

func readCount(s tree.Tree) int { return state.ReadCount(s) }

func authorsDiscovered(s tree.Tree) int {
	v, _ := tree.Lookup(s, state.KeyReadingStats+".authorsDiscovered")
	return state.IntOf(v)
}

// DefaultMilestones are the reading achievements.
var DefaultMilestones = []Milestone{
	{ID: "premiere-lecture", Title: "Première lecture", Metric: readCount, Threshold: 1},
	{ID: "lecteur-curieux", Title: "Lecteur curieux", Metric: readCount, Threshold: 10},
	{ID: "grand-lecteur", Title: "Grand lecteur", Metric: readCount, Threshold: 50},
	{ID: "bibliophile", Title: "Bibliophile", Metric: readCount, Threshold: 100},
	{ID: "explorateur", Title: "Explorateur", Metric: authorsDiscovered, Threshold: 5},
}

// GamificationModule unlocks milestones as reading progresses and toasts
// each one.
func GamificationModule(milestones []Milestone, logger zerolog.Logger) Module {
	return Module{
		Name:     "gamification",
		Priority: 50,
		Init: func(_ context.Context, deps Deps) error {
			check := func(s tree.Tree) {
				unlocked := make(map[string]bool)
				for _, a := range state.Achievements(s) {
					if id, ok := a["id"].(string); ok {
						unlocked[id] = true
					}
				}
				for _, m := range milestones {
					if unlocked[m.ID] || m.Metric(s) < m.Threshold {
						continue
					}
					if err := deps.Store.Dispatch(state.ActionAchievementUnlock, state.AchievementPayload{ID: m.ID, Title: m.Title}); err != nil {
						logger.Warn().Err(err).Str("achievement", m.ID).Msg("unlock failed")
						continue
					}
					_ = deps.Store.Dispatch(state.ActionUIToast, state.ToastPayload{
						Message: fmt.Sprintf("Succès débloqué : %s", m.Title),
						Kind:    "success",
					})
				}
			}
			unsub := deps.Store.Subscribe(func(next, _ tree.Tree) { check(next) }, func(s tree.Tree) any {
				return fmt.Sprintf("%d/%d", readCount(s), authorsDiscovered(s))
			})
			if deps.OnClose != nil {
				deps.OnClose(unsub)
			}
			check(deps.Store.GetState())
			return nil
		},
	}
}
