package persist

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vicoolz/palimpseste/internal/storage"
	"github.com/vicoolz/palimpseste/internal/tree"
)

func TestEncodeDecode_RoundTripsContainers(t *testing.T) {
	in := tree.Tree{
		"likes": tree.NewSet("e1", "e2", "e3"),
		"cache": tree.NewOrderedMap(
			tree.Entry{Key: "feed:b", Value: tree.Tree{"data": "B", "timestamp": 2}},
			tree.Entry{Key: "feed:a", Value: tree.Tree{"data": "A", "timestamp": 1}},
		),
		"filters":   tree.Tree{"genre": tree.NewSet("poésie")},
		"readCount": 12,
		"ratio":     0.5,
		"path":      []any{"e1", "e2"},
		"user":      nil,
	}

	data, err := Encode(in)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	likes, ok := out["likes"].(*tree.Set)
	if !ok {
		t.Fatalf("likes = %T, want *tree.Set", out["likes"])
	}
	for _, id := range []string{"e1", "e2", "e3"} {
		if !likes.Has(id) {
			t.Fatalf("likes missing %q: %v", id, likes.Values())
		}
	}
	if likes.Len() != 3 {
		t.Fatalf("likes len = %d, want 3", likes.Len())
	}

	cache, ok := out["cache"].(*tree.OrderedMap)
	if !ok {
		t.Fatalf("cache = %T, want *tree.OrderedMap", out["cache"])
	}
	keys := cache.Keys()
	if len(keys) != 2 || keys[0] != "feed:b" || keys[1] != "feed:a" {
		t.Fatalf("cache keys = %v, want [feed:b feed:a]", keys)
	}
	entry, _ := cache.Get("feed:a")
	if rec, _ := tree.AsTree(entry); rec["timestamp"] != 1 || rec["data"] != "A" {
		t.Fatalf("cache[feed:a] = %#v", entry)
	}

	genre, _ := tree.Lookup(out, "filters.genre")
	if s, ok := genre.(*tree.Set); !ok || !s.Has("poésie") {
		t.Fatalf("filters.genre = %#v", genre)
	}
	if out["readCount"] != 12 {
		t.Fatalf("readCount = %#v, want int 12", out["readCount"])
	}
	if out["ratio"] != 0.5 {
		t.Fatalf("ratio = %#v, want 0.5", out["ratio"])
	}
	if path := out["path"].([]any); len(path) != 2 || path[1] != "e2" {
		t.Fatalf("path = %#v", out["path"])
	}
	if v, ok := out["user"]; !ok || v != nil {
		t.Fatalf("user = %#v, want explicit nil", v)
	}
}

func TestEncode_WireFormat(t *testing.T) {
	data, err := Encode(tree.Tree{
		"s": tree.NewSet("x"),
		"m": tree.NewOrderedMap(tree.Entry{Key: "k", Value: 1}),
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got := string(data)
	for _, want := range []string{
		`"s":{"__type":"Set","values":["x"]}`,
		`"m":{"__type":"Map","entries":[["k",1]]}`,
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("Encode = %s, want it to contain %s", got, want)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":         `{{{`,
		"array root":       `[1,2]`,
		"bad set":          `{"s":{"__type":"Set"}}`,
		"bad set value":    `{"s":{"__type":"Set","values":[{"a":1}]}}`,
		"bad map entry":    `{"m":{"__type":"Map","entries":[["k"]]}}`,
		"non string key":   `{"m":{"__type":"Map","entries":[[1,2]]}}`,
		"entries not list": `{"m":{"__type":"Map","entries":"nope"}}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Decode([]byte(doc)); err == nil {
				t.Fatalf("Decode(%s) returned nil error", doc)
			}
		})
	}
}

func TestAdapter_RestoreFallsBackToDefaults(t *testing.T) {
	ctx := context.Background()
	defaults := tree.Tree{"readCount": 0, "ui": tree.Tree{"theme": "Nightfox"}}

	mem := storage.NewMemory()
	a := NewAdapter(mem, KeyFor("palimpseste"))

	got := a.Restore(ctx, defaults)
	if got["readCount"] != 0 {
		t.Fatalf("missing snapshot: readCount = %v, want 0", got["readCount"])
	}

	_ = mem.Save(ctx, a.Key(), []byte("corrupt{"))
	got = a.Restore(ctx, defaults)
	if got["readCount"] != 0 {
		t.Fatalf("corrupt snapshot: readCount = %v, want 0", got["readCount"])
	}
}

func TestAdapter_RestoreMergesOverDefaults(t *testing.T) {
	ctx := context.Background()
	defaults := tree.Tree{
		"readCount": 0,
		"ui":        tree.Tree{"theme": "Nightfox", "loading": false},
	}
	a := NewAdapter(storage.NewMemory(), KeyFor("palimpseste"))

	if err := a.Write(ctx, tree.Tree{"readCount": 3, "ui": tree.Tree{"theme": "Slate"}}); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got := a.Restore(ctx, defaults)

	if got["readCount"] != 3 {
		t.Fatalf("readCount = %v, want 3", got["readCount"])
	}
	if theme, _ := tree.Lookup(got, "ui.theme"); theme != "Slate" {
		t.Fatalf("ui.theme = %v, want Slate", theme)
	}
	if loading, ok := tree.Lookup(got, "ui.loading"); !ok || loading != false {
		t.Fatalf("ui.loading = %v (%v), want default false", loading, ok)
	}
}

func TestAdapter_Clear(t *testing.T) {
	ctx := context.Background()
	a := NewAdapter(storage.NewMemory(), "palimpseste_state")
	_ = a.Write(ctx, tree.Tree{"a": 1})

	if err := a.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if _, err := a.Read(ctx); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Read after Clear err = %v, want ErrNotFound", err)
	}
}

func TestKeyFor(t *testing.T) {
	if got := KeyFor("palimpseste"); got != "palimpseste_state" {
		t.Fatalf("KeyFor = %q, want palimpseste_state", got)
	}
}
