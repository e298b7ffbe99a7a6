package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Client talks to the hosted auth platform's REST API.
type Client struct {
	baseURL string
	anonKey string
	http    *http.Client

	// jwtSecret enables local HS256 verification of access tokens, skipping
	// a network round-trip per request. Empty means verify via GetUser.
	jwtSecret []byte
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithJWTSecret enables local access-token verification.
func WithJWTSecret(secret string) ClientOption {
	return func(c *Client) {
		if s := strings.TrimSpace(secret); s != "" {
			c.jwtSecret = []byte(s)
		}
	}
}

// NewClient constructs a platform client.
func NewClient(baseURL, anonKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetUser resolves the account behind an access token with a platform call.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var user User
	if err := c.do(req, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

// RefreshSession exchanges a refresh token for a fresh token pair. Also the
// cheapest way to prove a submitted pair is genuine before persisting it.
func (c *Client) RefreshSession(ctx context.Context, refreshToken string) (*Session, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, ErrInvalidToken
	}
	body, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=refresh_token", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	var session Session
	if err := c.do(req, &session); err != nil {
		return nil, err
	}
	if !session.Complete() {
		return nil, ErrInvalidToken
	}
	return &session, nil
}

// SignOut revokes the token's session on the platform.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/v1/logout", nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	return c.do(req, nil)
}

// Authenticate verifies an access token, locally when a JWT secret is
// configured, otherwise via the platform.
func (c *Client) Authenticate(ctx context.Context, accessToken string) (*User, error) {
	if len(c.jwtSecret) > 0 {
		return c.VerifyAccessToken(accessToken)
	}
	return c.GetUser(ctx, accessToken)
}

type accessClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// VerifyAccessToken validates the platform's HS256 access token offline.
func (c *Client) VerifyAccessToken(token string) (*User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	if len(c.jwtSecret) == 0 {
		return nil, errors.New("platform: jwt secret not configured")
	}

	parsed, err := jwt.ParseWithClaims(token, &accessClaims{}, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return c.jwtSecret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*accessClaims)
	if !ok || !parsed.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return &User{ID: claims.Subject, Email: claims.Email}, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body *bytes.Reader) (*http.Request, error) {
	if c.baseURL == "" {
		return nil, errors.New("platform: base URL not configured")
	}
	var req *http.Request
	var err error
	if body == nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", c.anonKey)
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return fmt.Errorf("%w: %s", ErrInvalidToken, apiErrorMessage(resp))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("platform: decode response: %w", err)
	}
	return nil
}

func apiErrorMessage(resp *http.Response) string {
	var payload struct {
		Error       string `json:"error"`
		Msg         string `json:"msg"`
		Description string `json:"error_description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		for _, m := range []string{payload.Msg, payload.Description, payload.Error} {
			if m != "" {
				return m
			}
		}
	}
	return resp.Status
}
