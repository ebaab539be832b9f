package tree

import "strings"

// Tree is a string-keyed record. Trees are treated as immutable once they are
// part of a published snapshot.
type Tree map[string]any

// Merge returns a new Tree holding prev with partial applied on top. Neither
// argument is modified.
func Merge(prev, partial Tree) Tree {
	next := make(Tree, len(prev)+len(partial))
	for k, v := range prev {
		next[k] = v
	}
	for k, v := range partial {
		switch val := v.(type) {
		case *Set:
			next[k] = val.Clone()
		case *OrderedMap:
			next[k] = val.Clone()
		default:
			sub, ok := AsTree(v)
			if !ok {
				next[k] = v
				continue
			}
			base, _ := AsTree(prev[k])
			next[k] = Merge(base, sub)
		}
	}
	return next
}

// Clone returns a shallow copy of t.
func (t Tree) Clone() Tree {
	if t == nil {
		return nil
	}
	dup := make(Tree, len(t))
	for k, v := range t {
		dup[k] = v
	}
	return dup
}

// AsTree reports whether v is a record and returns it as a Tree.
func AsTree(v any) (Tree, bool) {
	switch val := v.(type) {
	case Tree:
		return val, val != nil
	case map[string]any:
		return Tree(val), val != nil
	default:
		return nil, false
	}
}

// Lookup resolves a dot-separated path against t. It reports false when any
// segment is missing or the value at a segment cannot be descended into. An
// empty path yields t itself.
func Lookup(t Tree, path string) (any, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return t, t != nil
	}
	var cur any = t
	for _, segment := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case *OrderedMap:
			v, ok := node.Get(segment)
			if !ok {
				return nil, false
			}
			cur = v
		default:
			rec, ok := AsTree(cur)
			if !ok {
				return nil, false
			}
			v, ok := rec[segment]
			if !ok {
				return nil, false
			}
			cur = v
		}
	}
	return cur, true
}
