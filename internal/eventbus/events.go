package eventbus

import (
	"sort"
	"strings"
)

// Event names an occurrence on the bus. The string values are a public
// contract shared with existing listeners.
type Event string

const (
	AuthLogin   Event = "auth:login"
	AuthLogout  Event = "auth:logout"
	AuthChanged Event = "auth:changed"
	AuthError   Event = "auth:error"

	UserUpdated       Event = "user:updated"
	UserProfileLoaded Event = "user:profile-loaded"

	ExtraitLike   Event = "extrait:like"
	ExtraitUnlike Event = "extrait:unlike"
	ExtraitRead   Event = "extrait:read"
	ExtraitShare  Event = "extrait:share"
	ExtraitLoaded Event = "extrait:loaded"

	CommentAdded   Event = "comment:added"
	CommentDeleted Event = "comment:deleted"

	SocialFollow   Event = "social:follow"
	SocialUnfollow Event = "social:unfollow"

	ReadingProgress     Event = "reading:progress"
	ReadingStatsUpdated Event = "reading:stats-updated"

	GamificationAchievement Event = "gamification:achievement"
	GamificationLevelUp     Event = "gamification:level-up"

	NavChange Event = "nav:change"

	UIThemeChanged Event = "ui:theme-changed"
	UILoading      Event = "ui:loading"
	UIToast        Event = "ui:toast"
	UIPanelToggled Event = "ui:panel-toggled"

	FeedLoaded  Event = "feed:loaded"
	FeedRefresh Event = "feed:refresh"

	ExplorationFilterChanged Event = "exploration:filter-changed"

	ErrorUnhandled Event = "error:unhandled"
	ErrorNetwork   Event = "error:network"

	RealtimeConnected    Event = "realtime:connected"
	RealtimeDisconnected Event = "realtime:disconnected"

	AppInitialized Event = "app:initialized"
	AppBackground  Event = "app:background"
	AppForeground  Event = "app:foreground"

	NetworkOnline  Event = "network:online"
	NetworkOffline Event = "network:offline"
)

var catalog = []Event{
	AuthLogin, AuthLogout, AuthChanged, AuthError,
	UserUpdated, UserProfileLoaded,
	ExtraitLike, ExtraitUnlike, ExtraitRead, ExtraitShare, ExtraitLoaded,
	CommentAdded, CommentDeleted,
	SocialFollow, SocialUnfollow,
	ReadingProgress, ReadingStatsUpdated,
	GamificationAchievement, GamificationLevelUp,
	NavChange,
	UIThemeChanged, UILoading, UIToast, UIPanelToggled,
	FeedLoaded, FeedRefresh,
	ExplorationFilterChanged,
	ErrorUnhandled, ErrorNetwork,
	RealtimeConnected, RealtimeDisconnected,
	AppInitialized, AppBackground, AppForeground,
	NetworkOnline, NetworkOffline,
}

// Catalog returns every known event.
func Catalog() []Event {
	out := make([]Event, len(catalog))
	copy(out, catalog)
	return out
}

// Known reports whether e is part of the catalog.
func Known(e Event) bool {
	for _, c := range catalog {
		if c == e {
			return true
		}
	}
	return false
}

// Namespace returns the part of e before the first colon.
func (e Event) Namespace() string {
	ns, _, _ := strings.Cut(string(e), ":")
	return ns
}

// ByNamespace groups the catalog by namespace, namespaces sorted.
func ByNamespace() ([]string, map[string][]Event) {
	groups := make(map[string][]Event)
	for _, e := range catalog {
		ns := e.Namespace()
		groups[ns] = append(groups[ns], e)
	}
	names := make([]string, 0, len(groups))
	for ns := range groups {
		names = append(names, ns)
	}
	sort.Strings(names)
	return names, groups
}
