package state

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vicoolz/palimpseste/internal/tree"
)

var (
	// ErrUnknownAction is returned by Dispatch for an action outside the table.
	ErrUnknownAction = errors.New("state: unknown action")
	// ErrInvalidPayload is returned when a payload has the wrong shape.
	ErrInvalidPayload = errors.New("state: invalid payload")
)

// Action enumerates the reducers Dispatch knows about.
type Action int

const (
	ActionAuthLogin Action = iota + 1
	ActionAuthLogout
	ActionLikeAdd
	ActionLikeRemove
	ActionLikesSet
	ActionReadIncrement
	ActionReadingStatsUpdate
	ActionAchievementUnlock
	ActionUISetLoading
	ActionUISetTheme
	ActionUIToast
	ActionCacheSet
	ActionCacheClear
	ActionTextsSet
	ActionTextNext
	ActionFilterToggle
	ActionUISetView
	ActionUITogglePanel
)

var actionNames = map[Action]string{
	ActionAuthLogin:          "AUTH_LOGIN",
	ActionAuthLogout:         "AUTH_LOGOUT",
	ActionLikeAdd:            "LIKE_ADD",
	ActionLikeRemove:         "LIKE_REMOVE",
	ActionLikesSet:           "LIKES_SET",
	ActionReadIncrement:      "READ_INCREMENT",
	ActionReadingStatsUpdate: "READING_STATS_UPDATE",
	ActionAchievementUnlock:  "ACHIEVEMENT_UNLOCK",
	ActionUISetLoading:       "UI_SET_LOADING",
	ActionUISetTheme:         "UI_SET_THEME",
	ActionUIToast:            "UI_TOAST",
	ActionCacheSet:           "CACHE_SET",
	ActionCacheClear:         "CACHE_CLEAR",
	ActionTextsSet:           "TEXTS_SET",
	ActionTextNext:           "TEXT_NEXT",
	ActionFilterToggle:       "FILTER_TOGGLE",
	ActionUISetView:          "UI_SET_VIEW",
	ActionUITogglePanel:      "UI_TOGGLE_PANEL",
}

// String returns the wire name of a.
func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction maps a wire name back to its Action.
func ParseAction(name string) (Action, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name {
			return a, true
		}
	}
	return 0, false
}

// Actions lists every known action in declaration order.
func Actions() []Action {
	out := make([]Action, 0, len(actionNames))
	for a := ActionAuthLogin; a <= ActionUITogglePanel; a++ {
		out = append(out, a)
	}
	return out
}

// Payloads.

type LikePayload struct {
	ExtraitID string
}

type LikesPayload struct {
	IDs []string
}

type ReadPayload struct {
	ExtraitID string
	Author    string
	Genre     string
}

type AchievementPayload struct {
	ID    string
	Title string
}

type ToastPayload struct {
	Message string
	Kind    string
}

type CachePayload struct {
	Key  string
	Data any
}

type FilterPayload struct {
	Category string
	Value    string
}

// reduce computes the partial update for a. A nil partial means the action
// leaves the state as it is.
func reduce(prev tree.Tree, a Action, payload any, now time.Time) (tree.Tree, error) {
	switch a {
	case ActionAuthLogin:
		user, ok := tree.AsTree(payload)
		if !ok {
			return nil, invalid(a, payload)
		}
		return tree.Tree{KeyUser: user, KeyIsAuthenticated: true}, nil

	case ActionAuthLogout:
		return tree.Tree{KeyUser: nil, KeyIsAuthenticated: false}, nil

	case ActionLikeAdd, ActionLikeRemove:
		p, ok := payload.(LikePayload)
		if !ok || p.ExtraitID == "" {
			return nil, invalid(a, payload)
		}
		likes := Likes(prev)
		if a == ActionLikeAdd {
			return tree.Tree{KeyLikes: likes.With(p.ExtraitID)}, nil
		}
		return tree.Tree{KeyLikes: likes.Without(p.ExtraitID)}, nil

	case ActionLikesSet:
		p, ok := payload.(LikesPayload)
		if !ok {
			return nil, invalid(a, payload)
		}
		return tree.Tree{KeyLikes: tree.NewSet(p.IDs...)}, nil

	case ActionReadIncrement:
		p, _ := payload.(ReadPayload)
		return reduceRead(prev, p, now), nil

	case ActionReadingStatsUpdate:
		stats, ok := tree.AsTree(payload)
		if !ok {
			return nil, invalid(a, payload)
		}
		return tree.Tree{KeyReadingStats: stats}, nil

	case ActionAchievementUnlock:
		p, ok := payload.(AchievementPayload)
		if !ok || p.ID == "" {
			return nil, invalid(a, payload)
		}
		current := Achievements(prev)
		for _, existing := range current {
			if existing["id"] == p.ID {
				return nil, nil
			}
		}
		next := make([]any, 0, len(current)+1)
		for _, existing := range current {
			next = append(next, existing)
		}
		next = append(next, tree.Tree{"id": p.ID, "title": p.Title, "unlockedAt": int(now.UnixMilli())})
		return tree.Tree{KeyAchievements: next}, nil

	case ActionUISetLoading:
		v, ok := payload.(bool)
		if !ok {
			return nil, invalid(a, payload)
		}
		return tree.Tree{KeyUI: tree.Tree{"loading": v}}, nil

	case ActionUISetTheme:
		v, ok := payload.(string)
		if !ok || strings.TrimSpace(v) == "" {
			return nil, invalid(a, payload)
		}
		return tree.Tree{KeyUI: tree.Tree{"theme": v}}, nil

	case ActionUIToast:
		p, ok := payload.(ToastPayload)
		if !ok {
			return nil, invalid(a, payload)
		}
		if p.Kind == "" {
			p.Kind = "info"
		}
		toast := tree.Tree{"message": p.Message, "kind": p.Kind, "at": int(now.UnixMilli())}
		return tree.Tree{KeyUI: tree.Tree{"toast": toast}}, nil

	case ActionCacheSet:
		p, ok := payload.(CachePayload)
		if !ok || p.Key == "" {
			return nil, invalid(a, payload)
		}
		cache := Cache(prev).Without(p.Key).With(p.Key, tree.Tree{
			"data":      p.Data,
			"timestamp": int(now.UnixMilli()),
		})
		for cache.Len() > MaxCacheEntries {
			oldest, _ := cache.Oldest()
			cache = cache.Without(oldest)
		}
		return tree.Tree{KeyCache: cache}, nil

	case ActionCacheClear:
		return tree.Tree{KeyCache: tree.NewOrderedMap()}, nil

	case ActionTextsSet:
		texts, ok := payload.([]tree.Tree)
		if !ok {
			return nil, invalid(a, payload)
		}
		pool := make([]any, len(texts))
		for i, t := range texts {
			pool[i] = t
		}
		return tree.Tree{KeyTextPool: pool, KeyTextIndex: 0}, nil

	case ActionTextNext:
		n := len(TextPool(prev))
		if n == 0 {
			return nil, nil
		}
		return tree.Tree{KeyTextIndex: (TextIndex(prev) + 1) % n}, nil

	case ActionFilterToggle:
		p, ok := payload.(FilterPayload)
		if !ok || p.Category == "" || p.Value == "" {
			return nil, invalid(a, payload)
		}
		v, _ := tree.Lookup(prev, KeyFilters+"."+p.Category)
		selected, _ := v.(*tree.Set)
		if selected.Has(p.Value) {
			selected = selected.Without(p.Value)
		} else {
			selected = selected.With(p.Value)
		}
		return tree.Tree{KeyFilters: tree.Tree{p.Category: selected}}, nil

	case ActionUISetView:
		v, ok := payload.(string)
		if !ok || v == "" {
			return nil, invalid(a, payload)
		}
		return tree.Tree{KeyUI: tree.Tree{"view": v}}, nil

	case ActionUITogglePanel:
		return tree.Tree{KeyUI: tree.Tree{"panelOpen": !PanelOpen(prev)}}, nil
	}
	return nil, fmt.Errorf("%w: %v", ErrUnknownAction, a)
}

func reduceRead(prev tree.Tree, p ReadPayload, now time.Time) tree.Tree {
	partial := tree.Tree{KeyReadCount: ReadCount(prev) + 1}

	statsPrev, _ := tree.AsTree(prev[KeyReadingStats])
	stats := tree.Tree{
		"totalRead":  IntOf(statsPrev["totalRead"]) + 1,
		"lastReadAt": int(now.UnixMilli()),
	}

	if p.ExtraitID != "" {
		partial[KeyShownItems] = ShownItems(prev).With(p.ExtraitID)
		prevPath := ReadingPath(prev)
		path := make([]any, 0, MaxReadingPath)
		start := 0
		if len(prevPath)+1 > MaxReadingPath {
			start = len(prevPath) + 1 - MaxReadingPath
		}
		for _, id := range prevPath[start:] {
			path = append(path, id)
		}
		partial[KeyReadingPath] = append(path, p.ExtraitID)
	}
	if p.Author != "" {
		authors, _ := tree.AsTree(prev[KeyAuthorStats])
		count := IntOf(authors[p.Author])
		if count == 0 {
			stats["authorsDiscovered"] = IntOf(statsPrev["authorsDiscovered"]) + 1
		}
		partial[KeyAuthorStats] = tree.Tree{p.Author: count + 1}
	}
	if p.Genre != "" {
		genres, _ := tree.AsTree(prev[KeyGenreStats])
		count := IntOf(genres[p.Genre])
		if count == 0 {
			stats["genresDiscovered"] = IntOf(statsPrev["genresDiscovered"]) + 1
		}
		partial[KeyGenreStats] = tree.Tree{p.Genre: count + 1}
	}
	partial[KeyReadingStats] = stats
	return partial
}

func invalid(a Action, payload any) error {
	return fmt.Errorf("%w for %v: %T", ErrInvalidPayload, a, payload)
}
