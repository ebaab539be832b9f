package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vicoolz/palimpseste/internal/state"
	"github.com/vicoolz/palimpseste/internal/tree"
)

// DefaultTTL is how long a cached feed response is reused.
const DefaultTTL = 10 * time.Minute

// ErrFeed wraps remote feed failures.
var ErrFeed = errors.New("library feed")

// Loader fills the store's text pool.
type Loader struct {
	Store *state.Store
	// FeedURL is optional. It must serve a JSON array of texts.
	FeedURL string
	HTTP    *http.Client
	TTL     time.Duration
	Now     func() time.Time
	Log     *zerolog.Logger
}

// Result summarises a load.
type Result struct {
	Texts   int
	Remote  int
	Cached  bool
	FeedErr error
}

// Load dispatches TEXTS_SET with the anthology plus the feed. A failing feed
// is reported in the result and the anthology is still loaded.
func (l *Loader) Load(ctx context.Context) (Result, error) {
	texts, err := Anthology()
	if err != nil {
		return Result{}, err
	}
	var res Result
	if l.FeedURL != "" {
		remote, cached, err := l.feed(ctx)
		if err != nil {
			l.logger().Warn().Err(err).Str("url", l.FeedURL).Msg("feed unavailable, using anthology only")
			res.FeedErr = err
		} else {
			before := len(texts)
			texts = merge(texts, remote)
			res.Remote = len(texts) - before
			res.Cached = cached
		}
	}
	if err := l.Store.Dispatch(state.ActionTextsSet, Trees(texts)); err != nil {
		return res, fmt.Errorf("set texts: %w", err)
	}
	res.Texts = len(texts)
	return res, nil
}

// CacheKey is where the feed at url is cached.
func CacheKey(url string) string {
	return "feed:" + url
}

func (l *Loader) feed(ctx context.Context) ([]Text, bool, error) {
	key := CacheKey(l.FeedURL)
	if texts, ok := l.cached(key); ok {
		return texts, true, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.FeedURL, nil)
	if err != nil {
		return nil, false, fmt.Errorf("%w: create request: %v", ErrFeed, err)
	}
	req.Header.Set("Accept", "application/json")
	client := l.HTTP
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrFeed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= 400 {
		return nil, false, fmt.Errorf("%w: status %d", ErrFeed, resp.StatusCode)
	}
	var texts []Text
	if err := json.NewDecoder(resp.Body).Decode(&texts); err != nil {
		return nil, false, fmt.Errorf("%w: decode: %v", ErrFeed, err)
	}

	data := make([]any, 0, len(texts))
	for _, t := range texts {
		data = append(data, t.Tree())
	}
	if err := l.Store.Dispatch(state.ActionCacheSet, state.CachePayload{Key: key, Data: data}); err != nil {
		l.logger().Warn().Err(err).Msg("cache feed failed")
	}
	return texts, false, nil
}

func (l *Loader) cached(key string) ([]Text, bool) {
	v, ok := state.Cache(l.Store.GetState()).Get(key)
	if !ok {
		return nil, false
	}
	entry, ok := tree.AsTree(v)
	if !ok {
		return nil, false
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	stamp := time.UnixMilli(int64(state.IntOf(entry["timestamp"])))
	if l.now().Sub(stamp) >= ttl {
		return nil, false
	}
	raw, _ := entry["data"].([]any)
	texts := make([]Text, 0, len(raw))
	for _, item := range raw {
		if rec, ok := tree.AsTree(item); ok {
			texts = append(texts, FromTree(rec))
		}
	}
	return texts, true
}

func (l *Loader) now() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Loader) logger() *zerolog.Logger {
	if l.Log != nil {
		return l.Log
	}
	logger := log.Logger.With().Str("component", "library").Logger()
	return &logger
}
