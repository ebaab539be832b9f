package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/vicoolz/palimpseste/internal/storage"
)

// StorageKey is where the current session is kept.
const StorageKey = "palimpseste_session"

const (
	requestTimeout   = 5 * time.Second
	defaultUserAgent = "palimpseste/0.1"
)

// HTTPSDK builds HTTPProvider clients.
type HTTPSDK struct {
	// URL is probed by Available.
	URL   string
	HTTP  *http.Client
	Store storage.Backend
	Log   *zerolog.Logger
	Now   func() time.Time
}

var _ SDK = (*HTTPSDK)(nil)

// Available reports whether the auth endpoint answers its health check.
func (s *HTTPSDK) Available(ctx context.Context) error {
	base, err := parseBaseURL(s.URL)
	if err != nil {
		return err
	}
	p := &HTTPProvider{baseURL: base, http: s.httpClient()}
	if err := p.do(ctx, http.MethodGet, "/auth/v1/health", nil, "", nil, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrNotReady, err)
	}
	return nil
}

// NewClient returns a provider bound to url and the anonymous key.
func (s *HTTPSDK) NewClient(rawURL, key string) (Client, error) {
	return s.NewProvider(rawURL, key)
}

// NewProvider is NewClient returning the concrete type.
func (s *HTTPSDK) NewProvider(rawURL, key string) (*HTTPProvider, error) {
	base, err := parseBaseURL(rawURL)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(key) == "" {
		return nil, fmt.Errorf("api key required")
	}
	store := s.Store
	if store == nil {
		store = storage.NewMemory()
	}
	logger := log.Logger.With().Str("component", "session").Logger()
	if s.Log != nil {
		logger = *s.Log
	}
	now := s.Now
	if now == nil {
		now = time.Now
	}
	return &HTTPProvider{
		baseURL:   base,
		key:       key,
		http:      s.httpClient(),
		store:     store,
		log:       logger,
		now:       now,
		callbacks: make(map[int]AuthCallback),
	}, nil
}

func (s *HTTPSDK) httpClient() *http.Client {
	if s.HTTP != nil {
		return s.HTTP
	}
	return &http.Client{Timeout: requestTimeout}
}

// HTTPProvider talks to a GoTrue-style auth API.
type HTTPProvider struct {
	baseURL *url.URL
	key     string
	http    *http.Client
	store   storage.Backend
	log     zerolog.Logger
	now     func() time.Time

	mu        sync.Mutex
	nextID    int
	callbacks map[int]AuthCallback
}

var _ Client = (*HTTPProvider)(nil)

// OnAuthStateChange registers cb for later transitions.
func (p *HTTPProvider) OnAuthStateChange(cb AuthCallback) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.callbacks[id] = cb
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.callbacks, id)
		p.mu.Unlock()
	}
}

// GetSession returns the stored session, refreshing it when the access token
// has expired. A session that cannot be refreshed is dropped.
func (p *HTTPProvider) GetSession(ctx context.Context) (*Session, error) {
	sess, err := p.load(ctx)
	if err != nil || sess == nil {
		return nil, err
	}
	if !sess.Expired(p.now()) {
		return sess, nil
	}
	if sess.RefreshToken == "" {
		p.drop(ctx)
		return nil, nil
	}
	refreshed, err := p.refresh(ctx, sess.RefreshToken)
	if err != nil {
		p.log.Warn().Err(err).Msg("session refresh failed")
		p.drop(ctx)
		return nil, nil
	}
	p.emit(EventTokenRefreshed, refreshed)
	return refreshed, nil
}

// SignIn exchanges an email and password for a session.
func (p *HTTPProvider) SignIn(ctx context.Context, email, password string) (*Session, error) {
	body := map[string]string{"email": email, "password": password}
	var resp tokenResponse
	err := p.do(ctx, http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"password"}}, "", body, &resp)
	if err != nil {
		var se *statusError
		if errors.As(err, &se) && (se.code == http.StatusBadRequest || se.code == http.StatusUnauthorized) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("sign in: %w", err)
	}
	sess := resp.session(p.now())
	if err := p.save(ctx, sess); err != nil {
		return nil, err
	}
	p.emit(EventSignedIn, sess)
	return sess, nil
}

// SignOut revokes the current session remotely when possible and always
// forgets it locally.
func (p *HTTPProvider) SignOut(ctx context.Context) error {
	sess, err := p.load(ctx)
	if err != nil {
		return err
	}
	if sess != nil {
		if err := p.do(ctx, http.MethodPost, "/auth/v1/logout", nil, sess.AccessToken, nil, nil); err != nil {
			p.log.Warn().Err(err).Msg("remote logout failed")
		}
	}
	if err := p.store.Clear(ctx, StorageKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	p.emit(EventSignedOut, nil)
	return nil
}

func (p *HTTPProvider) refresh(ctx context.Context, token string) (*Session, error) {
	body := map[string]string{"refresh_token": token}
	var resp tokenResponse
	if err := p.do(ctx, http.MethodPost, "/auth/v1/token", url.Values{"grant_type": {"refresh_token"}}, "", body, &resp); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	sess := resp.session(p.now())
	if err := p.save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

func (p *HTTPProvider) emit(event AuthEvent, sess *Session) {
	p.mu.Lock()
	cbs := make([]AuthCallback, 0, len(p.callbacks))
	for i := 0; i < p.nextID; i++ {
		if cb, ok := p.callbacks[i]; ok {
			cbs = append(cbs, cb)
		}
	}
	p.mu.Unlock()

	for _, cb := range cbs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.log.Error().Interface("panic", r).Str("event", string(event)).Msg("auth callback panicked")
				}
			}()
			cb(event, sess)
		}()
	}
}

func (p *HTTPProvider) load(ctx context.Context) (*Session, error) {
	data, err := p.store.Load(ctx, StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		p.log.Warn().Err(err).Msg("discarding unreadable session")
		p.drop(ctx)
		return nil, nil
	}
	return &sess, nil
}

func (p *HTTPProvider) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := p.store.Save(ctx, StorageKey, data); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (p *HTTPProvider) drop(ctx context.Context) {
	if err := p.store.Clear(ctx, StorageKey); err != nil {
		p.log.Warn().Err(err).Msg("clear session failed")
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	User         User   `json:"user"`
}

func (r tokenResponse) session(now time.Time) *Session {
	var expires time.Time
	switch {
	case r.ExpiresAt > 0:
		expires = time.Unix(r.ExpiresAt, 0)
	case r.ExpiresIn > 0:
		expires = now.Add(time.Duration(r.ExpiresIn) * time.Second)
	}
	return &Session{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    expires,
		User:         r.User,
	}
}

type statusError struct {
	path string
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("api %s returned status %d", e.path, e.code)
}

func (p *HTTPProvider) do(ctx context.Context, method, path string, query url.Values, bearer string, body, dest any) error {
	rel := &url.URL{Path: path, RawQuery: query.Encode()}
	reqURL := p.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", defaultUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.key != "" {
		req.Header.Set("apikey", p.key)
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return &statusError{path: path, code: resp.StatusCode}
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: no provider url configured", ErrNotReady)
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse provider url %q: %w", raw, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
