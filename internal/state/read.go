package state

import "github.com/vicoolz/palimpseste/internal/tree"

// Typed accessors over a state snapshot. They tolerate missing keys and the
// numeric representations a restored snapshot may carry.

func IsAuthenticated(s tree.Tree) bool {
	v, _ := s[KeyIsAuthenticated].(bool)
	return v
}

func User(s tree.Tree) (tree.Tree, bool) {
	return tree.AsTree(s[KeyUser])
}

func Likes(s tree.Tree) *tree.Set {
	v, _ := s[KeyLikes].(*tree.Set)
	return v
}

func ShownItems(s tree.Tree) *tree.Set {
	v, _ := s[KeyShownItems].(*tree.Set)
	return v
}

func ReadCount(s tree.Tree) int {
	return IntOf(s[KeyReadCount])
}

func Cache(s tree.Tree) *tree.OrderedMap {
	v, _ := s[KeyCache].(*tree.OrderedMap)
	return v
}

func Theme(s tree.Tree) string {
	v, _ := tree.Lookup(s, "ui.theme")
	if str, ok := v.(string); ok && str != "" {
		return str
	}
	return DefaultTheme
}

func Loading(s tree.Tree) bool {
	v, _ := tree.Lookup(s, "ui.loading")
	b, _ := v.(bool)
	return b
}

func PanelOpen(s tree.Tree) bool {
	v, _ := tree.Lookup(s, "ui.panelOpen")
	b, _ := v.(bool)
	return b
}

// Toast returns the pending toast message, if any.
func Toast(s tree.Tree) (message, kind string, ok bool) {
	v, _ := tree.Lookup(s, "ui.toast")
	rec, ok := tree.AsTree(v)
	if !ok {
		return "", "", false
	}
	message, _ = rec["message"].(string)
	kind, _ = rec["kind"].(string)
	return message, kind, message != ""
}

func Achievements(s tree.Tree) []tree.Tree {
	return records(s[KeyAchievements])
}

func ReadingPath(s tree.Tree) []string {
	raw, _ := s[KeyReadingPath].([]any)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if id, ok := item.(string); ok {
			out = append(out, id)
		}
	}
	return out
}

func TextPool(s tree.Tree) []tree.Tree {
	return records(s[KeyTextPool])
}

func TextIndex(s tree.Tree) int {
	return IntOf(s[KeyTextIndex])
}

// CurrentText returns the text under the cursor.
func CurrentText(s tree.Tree) (tree.Tree, bool) {
	pool := TextPool(s)
	if len(pool) == 0 {
		return nil, false
	}
	idx := TextIndex(s)
	if idx < 0 || idx >= len(pool) {
		idx = 0
	}
	return pool[idx], true
}

// IntOf converts the numeric forms found in a state tree to int.
func IntOf(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

func records(v any) []tree.Tree {
	raw, _ := v.([]any)
	out := make([]tree.Tree, 0, len(raw))
	for _, item := range raw {
		if rec, ok := tree.AsTree(item); ok {
			out = append(out, rec)
		}
	}
	return out
}
