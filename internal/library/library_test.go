package library

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vicoolz/palimpseste/internal/state"
)

func TestAnthology_ParsesEmbeddedTexts(t *testing.T) {
	texts, err := Anthology()
	if err != nil {
		t.Fatalf("Anthology: %v", err)
	}
	if len(texts) < 5 {
		t.Fatalf("only %d texts", len(texts))
	}
	for _, tx := range texts {
		if tx.ID == "" || tx.Author == "" || tx.Body == "" {
			t.Fatalf("incomplete text %+v", tx)
		}
	}
}

func TestParseAnthology_RejectsDuplicates(t *testing.T) {
	_, err := parseAnthology([]byte(`
[[texts]]
id = "a"
[[texts]]
id = "a"
`))
	if err == nil {
		t.Fatalf("duplicate id accepted")
	}
	if _, err := parseAnthology([]byte("[[texts]\n")); err == nil {
		t.Fatalf("invalid toml accepted")
	}
}

func TestText_TreeRoundTrip(t *testing.T) {
	in := Text{ID: "x", Title: "T", Author: "A", Genre: "g", Year: 1857, Body: "b"}
	if got := FromTree(in.Tree()); got != in {
		t.Fatalf("FromTree = %+v, want %+v", got, in)
	}
}

func TestLoader_AnthologyOnly(t *testing.T) {
	store := state.New(context.Background(), state.Options{})
	res, err := (&Loader{Store: store}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pool := state.TextPool(store.GetState())
	if len(pool) != res.Texts || res.Remote != 0 {
		t.Fatalf("pool = %d, result = %+v", len(pool), res)
	}
	if cur, ok := state.CurrentText(store.GetState()); !ok || cur["id"] == "" {
		t.Fatalf("no current text")
	}
}

func TestLoader_FeedIsCachedWithinTTL(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode([]Text{
			{ID: "remote-1", Title: "R", Author: "Colette", Genre: "roman", Body: "..."},
			{ID: "verlaine-chanson-automne", Title: "dup"},
		})
	}))
	t.Cleanup(srv.Close)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := state.New(context.Background(), state.Options{Now: clock})
	l := &Loader{Store: store, FeedURL: srv.URL, Now: clock, TTL: time.Minute}

	first, err := l.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first.Remote != 1 || first.Cached {
		t.Fatalf("first = %+v", first)
	}
	if _, ok := state.Cache(store.GetState()).Get(CacheKey(srv.URL)); !ok {
		t.Fatalf("feed not cached")
	}

	second, _ := l.Load(context.Background())
	if !second.Cached || hits.Load() != 1 {
		t.Fatalf("second = %+v, hits = %d", second, hits.Load())
	}

	now = now.Add(2 * time.Minute)
	third, _ := l.Load(context.Background())
	if third.Cached || hits.Load() != 2 {
		t.Fatalf("third = %+v, hits = %d", third, hits.Load())
	}
	if len(state.TextPool(store.GetState())) != third.Texts {
		t.Fatalf("pool size mismatch")
	}
}

func TestLoader_FeedFailureFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	store := state.New(context.Background(), state.Options{})
	res, err := (&Loader{Store: store, FeedURL: srv.URL}).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !errors.Is(res.FeedErr, ErrFeed) {
		t.Fatalf("FeedErr = %v", res.FeedErr)
	}
	anth, _ := Anthology()
	if res.Texts != len(anth) {
		t.Fatalf("texts = %d, want %d", res.Texts, len(anth))
	}
}
