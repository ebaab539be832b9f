package state

import "github.com/vicoolz/palimpseste/internal/tree"

// Top-level keys of the application state.
const (
	KeyUser            = "user"
	KeyIsAuthenticated = "isAuthenticated"
	KeyLikes           = "likes"
	KeyReadCount       = "readCount"
	KeyShownItems      = "shownItems"
	KeyAuthorStats     = "authorStats"
	KeyGenreStats      = "genreStats"
	KeyAchievements    = "achievements"
	KeyReadingPath     = "readingPath"
	KeyReadingStats    = "readingStats"
	KeyCache           = "cache"
	KeyUI              = "ui"
	KeyFilters         = "filters"
	KeyTextPool        = "textPool"
	KeyTextIndex       = "textIndex"
)

const (
	// MaxReadingPath bounds the reading-path sequence.
	MaxReadingPath = 8
	// MaxCacheEntries bounds the response cache.
	MaxCacheEntries = 200
	// MaxHistory bounds the action log.
	MaxHistory = 50

	DefaultTheme = "Nightfox"
	DefaultView  = "feed"
)

// Default returns a fresh default state. Every call builds new containers.
func Default() tree.Tree {
	return tree.Tree{
		KeyUser:            nil,
		KeyIsAuthenticated: false,

		KeyLikes:       tree.NewSet(),
		KeyReadCount:   0,
		KeyShownItems:  tree.NewSet(),
		KeyAuthorStats: tree.Tree{},
		KeyGenreStats:  tree.Tree{},

		KeyAchievements: []any{},
		KeyReadingPath:  []any{},
		KeyReadingStats: tree.Tree{
			"totalRead":         0,
			"authorsDiscovered": 0,
			"genresDiscovered":  0,
			"lastReadAt":        0,
		},

		KeyCache: tree.NewOrderedMap(),

		KeyUI: tree.Tree{
			"loading":   false,
			"theme":     DefaultTheme,
			"view":      DefaultView,
			"panelOpen": false,
			"toast":     nil,
		},

		KeyFilters:   tree.Tree{},
		KeyTextPool:  []any{},
		KeyTextIndex: 0,
	}
}
