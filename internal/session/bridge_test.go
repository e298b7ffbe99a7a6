package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"llaveo.org/internal/platform"
)

type fakeAuth struct {
	srv        *httptest.Server
	signOuts   atomic.Int64
	refreshOK  string
	accessOK   string
	refuseUser bool
}

func newFakeAuth(t *testing.T) *fakeAuth {
	t.Helper()
	f := &fakeAuth{refreshOK: "good-refresh", accessOK: "good-access"}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if f.refuseUser || r.Header.Get("Authorization") != "Bearer "+f.accessOK {
			http.Error(w, `{"msg":"invalid token"}`, http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(platform.User{ID: "user-1", Email: "ana@example.com"})
	})
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			RefreshToken string `json:"refresh_token"`
		}
		if json.NewDecoder(r.Body).Decode(&body) != nil || body.RefreshToken != f.refreshOK {
			http.Error(w, `{"msg":"invalid refresh token"}`, http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(platform.Session{
			AccessToken:  f.accessOK,
			RefreshToken: "rotated-refresh",
			ExpiresIn:    3600,
		})
	})
	mux.HandleFunc("POST /auth/v1/logout", func(w http.ResponseWriter, r *http.Request) {
		f.signOuts.Add(1)
		w.WriteHeader(http.StatusNoContent)
	})
	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeAuth) client() *platform.Client {
	return platform.NewClient(f.srv.URL, "anon-key")
}

func storeSession(t *testing.T, storage platform.TokenStorage, sess platform.Session) {
	t.Helper()
	raw, err := json.Marshal(sess)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := storage.SetItem(CookieName, string(raw)); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
}

func TestBridgeSessionReadsStoredPair(t *testing.T) {
	storage := platform.NewMemoryStorage()
	b := NewBridge(newFakeAuth(t).client(), storage)

	if b.Session() != nil {
		t.Fatal("empty storage should read as no session")
	}

	storeSession(t, storage, platform.Session{AccessToken: "a", RefreshToken: "r"})
	sess := b.Session()
	if sess == nil || sess.AccessToken != "a" || sess.RefreshToken != "r" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestBridgeSessionRejectsPartialAndCorrupt(t *testing.T) {
	storage := platform.NewMemoryStorage()
	b := NewBridge(newFakeAuth(t).client(), storage)

	storage.SetItem(CookieName, `{"access_token":"only-half"}`)
	if b.Session() != nil {
		t.Fatal("partial pair should read as no session")
	}

	storage.SetItem(CookieName, `not json`)
	if b.Session() != nil {
		t.Fatal("corrupt value should read as no session")
	}
}

func TestBridgeSetSessionValidatesBeforePersisting(t *testing.T) {
	f := newFakeAuth(t)
	storage := platform.NewMemoryStorage()
	b := NewBridge(f.client(), storage)

	if _, err := b.SetSession(context.Background(), "acc", ""); !errors.Is(err, ErrIncompleteTokens) {
		t.Fatalf("expected ErrIncompleteTokens, got %v", err)
	}
	if _, err := b.SetSession(context.Background(), "", "ref"); !errors.Is(err, ErrIncompleteTokens) {
		t.Fatalf("expected ErrIncompleteTokens, got %v", err)
	}
	if _, ok := storage.GetItem(CookieName); ok {
		t.Fatal("partial pair reached storage")
	}

	if _, err := b.SetSession(context.Background(), "acc", "forged-refresh"); err == nil {
		t.Fatal("forged pair accepted")
	}
	if _, ok := storage.GetItem(CookieName); ok {
		t.Fatal("forged pair reached storage")
	}

	sess, err := b.SetSession(context.Background(), "acc", "good-refresh")
	if err != nil {
		t.Fatalf("SetSession: %v", err)
	}
	if sess.RefreshToken != "rotated-refresh" {
		t.Fatalf("expected rotated pair persisted, got %+v", sess)
	}
	stored := b.Session()
	if stored == nil || stored.RefreshToken != "rotated-refresh" {
		t.Fatalf("storage holds %+v", stored)
	}
}

func TestBridgeUserRefreshesExpiredAccess(t *testing.T) {
	f := newFakeAuth(t)
	storage := platform.NewMemoryStorage()
	b := NewBridge(f.client(), storage)

	storeSession(t, storage, platform.Session{AccessToken: "expired", RefreshToken: "good-refresh"})
	user, err := b.User(context.Background())
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if user == nil || user.ID != "user-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if sess := b.Session(); sess == nil || sess.RefreshToken != "rotated-refresh" {
		t.Fatalf("rotated pair not persisted: %+v", sess)
	}
}

func TestBridgeUserDropsDeadSession(t *testing.T) {
	f := newFakeAuth(t)
	storage := platform.NewMemoryStorage()
	b := NewBridge(f.client(), storage)

	storeSession(t, storage, platform.Session{AccessToken: "expired", RefreshToken: "revoked"})
	user, err := b.User(context.Background())
	if err != nil {
		t.Fatalf("User: %v", err)
	}
	if user != nil {
		t.Fatalf("dead session resolved to %+v", user)
	}
	if _, ok := storage.GetItem(CookieName); ok {
		t.Fatal("dead session left in storage")
	}
}

func TestBridgeClearAttemptsBothHalves(t *testing.T) {
	f := newFakeAuth(t)
	storage := platform.NewMemoryStorage()
	b := NewBridge(f.client(), storage)

	storeSession(t, storage, platform.Session{AccessToken: "good-access", RefreshToken: "good-refresh"})
	b.Clear(context.Background())
	if f.signOuts.Load() != 1 {
		t.Fatalf("expected one sign-out call, got %d", f.signOuts.Load())
	}
	if _, ok := storage.GetItem(CookieName); ok {
		t.Fatal("session left in storage after Clear")
	}

	// Sign-out failure must still remove the stored pair.
	f.srv.Close()
	storeSession(t, storage, platform.Session{AccessToken: "good-access", RefreshToken: "good-refresh"})
	b.Clear(context.Background())
	if _, ok := storage.GetItem(CookieName); ok {
		t.Fatal("platform failure left the cookie behind")
	}
}
