package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"llaveo.org/internal/platform"
	"llaveo.org/internal/session"
)

type sessionResponse struct {
	Session *platform.Session `json:"session"`
}

func TestGetSessionAnonymous(t *testing.T) {
	c, _ := newTestAPI(t)

	resp := c.get("/api/auth/session", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for anonymous session read, got %d", resp.StatusCode)
	}
	if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("session response cacheable: %q", cc)
	}
	body := decode[sessionResponse](t, resp)
	if body.Session != nil {
		t.Fatalf("expected null session, got %+v", body.Session)
	}
}

func TestSessionEstablishReadClear(t *testing.T) {
	c, _ := newTestAPI(t)

	// Establish: the pair is validated against the platform first.
	resp := c.post("/api/auth/session", map[string]any{
		"session": map[string]string{
			"access_token":  "good-access",
			"refresh_token": "good-refresh",
		},
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set session status %d", resp.StatusCode)
	}
	if body := decode[map[string]any](t, resp); body["success"] != true {
		t.Fatalf("unexpected body: %v", body)
	}

	// The cookie jar now carries the session; GET returns the rotated pair.
	resp = c.get("/api/auth/session", nil, nil)
	body := decode[sessionResponse](t, resp)
	if body.Session == nil || body.Session.AccessToken != "good-access" || body.Session.RefreshToken != "rotated-refresh" {
		t.Fatalf("unexpected session: %+v", body.Session)
	}

	// Clear.
	resp = c.do(http.MethodDelete, "/api/auth/session", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete session status %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = c.get("/api/auth/session", nil, nil)
	if body := decode[sessionResponse](t, resp); body.Session != nil {
		t.Fatalf("session survived delete: %+v", body.Session)
	}
}

func TestSetSessionRejectsPartialPair(t *testing.T) {
	c, _ := newTestAPI(t)

	for _, payload := range []map[string]any{
		{"session": map[string]string{"access_token": "only-access"}},
		{"session": map[string]string{"refresh_token": "only-refresh"}},
		{"session": map[string]string{}},
	} {
		resp := c.post("/api/auth/session", payload, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("partial pair %v: expected 400, got %d", payload, resp.StatusCode)
		}
		resp.Body.Close()
	}
}

func TestSetSessionPlatformRejection(t *testing.T) {
	c, _ := newTestAPI(t)

	resp := c.post("/api/auth/session", map[string]any{
		"session": map[string]string{
			"access_token":  "forged",
			"refresh_token": "forged-refresh",
		},
	}, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 for rejected pair, got %d", resp.StatusCode)
	}

	// Nothing was persisted.
	u, _ := url.Parse(c.baseURL)
	for _, ck := range c.client.Jar.Cookies(u) {
		if ck.Name == session.CookieName {
			t.Fatal("rejected pair left a cookie")
		}
	}
}
