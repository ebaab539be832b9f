package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/vicoolz/palimpseste/internal/storage"
)

type fakeAuth struct {
	mu        sync.Mutex
	grants    []string
	apikeys   []string
	logoutTok string
	failAll   bool
}

func (f *fakeAuth) handler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.apikeys = append(f.apikeys, r.Header.Get("apikey"))
		fail := f.failAll
		f.mu.Unlock()
		if fail {
			http.Error(w, "down", http.StatusServiceUnavailable)
			return
		}
		switch r.URL.Path {
		case "/auth/v1/health":
			_, _ = w.Write([]byte(`{"name":"GoTrue"}`))
		case "/auth/v1/token":
			grant := r.URL.Query().Get("grant_type")
			f.mu.Lock()
			f.grants = append(f.grants, grant)
			f.mu.Unlock()
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)
			if grant == "password" && body["password"] != "secret" {
				http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token":  "access-" + grant,
				"refresh_token": "refresh-" + grant,
				"expires_in":    3600,
				"user":          map[string]any{"id": "u1", "email": "ada@example.org"},
			})
		case "/auth/v1/logout":
			f.mu.Lock()
			f.logoutTok = r.Header.Get("Authorization")
			f.mu.Unlock()
			w.WriteHeader(http.StatusNoContent)
		default:
			http.NotFound(w, r)
		}
	})
}

func newProvider(t *testing.T, srv *httptest.Server, store storage.Backend, now func() time.Time) *HTTPProvider {
	t.Helper()
	sdk := &HTTPSDK{URL: srv.URL, Store: store, Now: now}
	p, err := sdk.NewProvider(srv.URL, "anon-key")
	if err != nil {
		t.Fatalf("NewProvider: %v", err)
	}
	return p
}

func TestHTTPSDK_Available(t *testing.T) {
	t.Parallel()

	fake := &fakeAuth{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	sdk := &HTTPSDK{URL: srv.URL}
	if err := sdk.Available(context.Background()); err != nil {
		t.Fatalf("Available: %v", err)
	}

	fake.mu.Lock()
	fake.failAll = true
	fake.mu.Unlock()
	if err := sdk.Available(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("Available err = %v, want ErrNotReady", err)
	}

	empty := &HTTPSDK{}
	if err := empty.Available(context.Background()); !errors.Is(err, ErrNotReady) {
		t.Fatalf("empty url err = %v, want ErrNotReady", err)
	}
}

func TestHTTPSDK_NewClientRequiresKey(t *testing.T) {
	sdk := &HTTPSDK{}
	if _, err := sdk.NewClient("https://example.org", " "); err == nil {
		t.Fatalf("expected error for empty key")
	}
	if _, err := sdk.NewClient("", "k"); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestHTTPProvider_SignInPersistsAndNotifies(t *testing.T) {
	t.Parallel()

	fake := &fakeAuth{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	store := storage.NewMemory()
	p := newProvider(t, srv, store, time.Now)

	var events []AuthEvent
	var users []string
	unsub := p.OnAuthStateChange(func(e AuthEvent, s *Session) {
		events = append(events, e)
		if s != nil {
			users = append(users, s.User.ID)
		}
	})

	ctx := context.Background()
	sess, err := p.SignIn(ctx, "ada@example.org", "secret")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if sess.User.ID != "u1" || sess.AccessToken != "access-password" {
		t.Fatalf("session = %+v", sess)
	}

	got, err := p.GetSession(ctx)
	if err != nil || got == nil || got.User.Email != "ada@example.org" {
		t.Fatalf("GetSession = %+v, %v", got, err)
	}

	// A fresh provider on the same store sees the session.
	again := newProvider(t, srv, store, time.Now)
	if s, _ := again.GetSession(ctx); s == nil {
		t.Fatalf("session not persisted")
	}

	if err := p.SignOut(ctx); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if s, _ := p.GetSession(ctx); s != nil {
		t.Fatalf("session survived sign-out")
	}
	fake.mu.Lock()
	if fake.logoutTok != "Bearer access-password" {
		t.Fatalf("logout auth = %q", fake.logoutTok)
	}
	for _, k := range fake.apikeys {
		if k != "anon-key" {
			t.Fatalf("apikey header = %q", k)
		}
	}
	fake.mu.Unlock()

	if len(events) != 2 || events[0] != EventSignedIn || events[1] != EventSignedOut {
		t.Fatalf("events = %v", events)
	}
	if len(users) != 1 || users[0] != "u1" {
		t.Fatalf("users = %v", users)
	}

	unsub()
	_, _ = p.SignIn(ctx, "ada@example.org", "secret")
	if len(events) != 2 {
		t.Fatalf("callback fired after unsubscribe")
	}
}

func TestHTTPProvider_SignInRejected(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer((&fakeAuth{}).handler(t))
	t.Cleanup(srv.Close)

	p := newProvider(t, srv, storage.NewMemory(), time.Now)
	if _, err := p.SignIn(context.Background(), "ada@example.org", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestHTTPProvider_ExpiredSessionRefreshes(t *testing.T) {
	t.Parallel()

	fake := &fakeAuth{}
	srv := httptest.NewServer(fake.handler(t))
	t.Cleanup(srv.Close)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := storage.NewMemory()
	stale, _ := json.Marshal(Session{
		AccessToken:  "old",
		RefreshToken: "r0",
		ExpiresAt:    now.Add(-time.Minute),
		User:         User{ID: "u1"},
	})
	if err := store.Save(context.Background(), StorageKey, stale); err != nil {
		t.Fatalf("seed: %v", err)
	}

	p := newProvider(t, srv, store, func() time.Time { return now })
	var events []AuthEvent
	p.OnAuthStateChange(func(e AuthEvent, _ *Session) { events = append(events, e) })

	sess, err := p.GetSession(context.Background())
	if err != nil || sess == nil {
		t.Fatalf("GetSession = %v, %v", sess, err)
	}
	if sess.AccessToken != "access-refresh_token" {
		t.Fatalf("access token = %q", sess.AccessToken)
	}
	if !sess.ExpiresAt.Equal(now.Add(time.Hour)) {
		t.Fatalf("expires = %v", sess.ExpiresAt)
	}
	if len(events) != 1 || events[0] != EventTokenRefreshed {
		t.Fatalf("events = %v", events)
	}
}

func TestHTTPProvider_CorruptSessionIsDropped(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer((&fakeAuth{}).handler(t))
	t.Cleanup(srv.Close)

	store := storage.NewMemory()
	_ = store.Save(context.Background(), StorageKey, []byte("{nope"))
	p := newProvider(t, srv, store, time.Now)

	sess, err := p.GetSession(context.Background())
	if err != nil || sess != nil {
		t.Fatalf("GetSession = %v, %v", sess, err)
	}
	if _, err := store.Load(context.Background(), StorageKey); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("corrupt session kept: %v", err)
	}
}

func TestUserTree(t *testing.T) {
	u := User{ID: "u1", Email: "a@b", Metadata: map[string]any{"pseudo": "ada"}}
	tr := u.Tree()
	if tr["id"] != "u1" || tr["email"] != "a@b" {
		t.Fatalf("tree = %v", tr)
	}
	if _, ok := tr["metadata"]; !ok {
		t.Fatalf("metadata missing")
	}
	if (User{ID: "x"}).Tree()["email"] != nil {
		t.Fatalf("empty email kept")
	}
}
