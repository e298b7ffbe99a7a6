package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"llaveo.org/internal/platform"
)

// State is the hydrator's knowledge of the viewer's session.
type State string

const (
	// StateUnknown means hydration has not started.
	StateUnknown State = "unknown"
	// StateHydrating means a fetch against the session endpoint is in flight.
	StateHydrating State = "hydrating"
	// StateAuthenticated means the server vouched for a session and the
	// platform confirmed the user behind it.
	StateAuthenticated State = "authenticated"
	// StateAnonymous means the server reported no session, or hydration
	// failed. Failure degrades to anonymous, never to an error state.
	StateAnonymous State = "anonymous"
)

// Snapshot is an immutable view of the hydrator at one point in time.
type Snapshot struct {
	State   State
	Session *platform.Session
	User    *platform.User
}

// Hydrator drives a client's session state from the server's session
// endpoint. It starts Unknown, transitions to Hydrating while the fetch is
// in flight, and lands on Authenticated or Anonymous. Subscribers observe
// every transition.
type Hydrator struct {
	endpoint string
	http     *http.Client
	client   *platform.Client
	storage  platform.TokenStorage

	mu      sync.Mutex
	state   State
	session *platform.Session
	user    *platform.User
	subs    []func(Snapshot)
}

// HydratorOption configures a Hydrator.
type HydratorOption func(*Hydrator)

// WithHydratorHTTPClient overrides the HTTP client used for the session fetch.
func WithHydratorHTTPClient(h *http.Client) HydratorOption {
	return func(hy *Hydrator) {
		if h != nil {
			hy.http = h
		}
	}
}

// NewHydrator targets baseURL's session endpoint, mirrors hydrated sessions
// into storage, and confirms the user against the platform before reporting
// Authenticated.
func NewHydrator(baseURL string, client *platform.Client, storage platform.TokenStorage, opts ...HydratorOption) *Hydrator {
	h := &Hydrator{
		endpoint: baseURL + "/api/auth/session",
		http:     &http.Client{Timeout: 10 * time.Second},
		client:   client,
		storage:  storage,
		state:    StateUnknown,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Snapshot returns the current state.
func (h *Hydrator) Snapshot() Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return Snapshot{State: h.state, Session: h.session, User: h.user}
}

// OnChange registers a subscriber invoked on every state transition. The
// callback runs synchronously with the transition and must not call back
// into the hydrator.
func (h *Hydrator) OnChange(fn func(Snapshot)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = append(h.subs, fn)
}

// Hydrate fetches the session from the server and settles the state machine.
// A fetched session only counts as Authenticated once the platform confirms
// the user behind its access token. Any failure along the way lands on
// Anonymous.
func (h *Hydrator) Hydrate(ctx context.Context) Snapshot {
	h.transition(StateHydrating, nil, nil)

	sess, err := h.fetch(ctx)
	if err != nil || sess == nil {
		h.clearStorage()
		return h.transition(StateAnonymous, nil, nil)
	}
	if err := h.mirror(sess); err != nil {
		h.clearStorage()
		return h.transition(StateAnonymous, nil, nil)
	}
	user, err := h.confirm(ctx, sess.AccessToken)
	if err != nil || user == nil {
		h.clearStorage()
		return h.transition(StateAnonymous, nil, nil)
	}
	return h.transition(StateAuthenticated, sess, user)
}

// Reset drops the hydrated session and returns to Anonymous. Used after a
// sign-out so the UI flips without a refetch.
func (h *Hydrator) Reset() Snapshot {
	h.clearStorage()
	return h.transition(StateAnonymous, nil, nil)
}

func (h *Hydrator) fetch(ctx context.Context) (*platform.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("session: endpoint returned %d", resp.StatusCode)
	}

	var payload struct {
		Session *platform.Session `json:"session"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	if !payload.Session.Complete() {
		return nil, nil
	}
	return payload.Session, nil
}

func (h *Hydrator) confirm(ctx context.Context, accessToken string) (*platform.User, error) {
	if h.client == nil {
		return nil, fmt.Errorf("session: no platform client to confirm user")
	}
	return h.client.Authenticate(ctx, accessToken)
}

func (h *Hydrator) mirror(sess *platform.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return h.storage.SetItem(CookieName, string(raw))
}

func (h *Hydrator) clearStorage() {
	if h.storage != nil {
		_ = h.storage.RemoveItem(CookieName)
	}
}

func (h *Hydrator) transition(state State, sess *platform.Session, user *platform.User) Snapshot {
	h.mu.Lock()
	h.state = state
	h.session = sess
	h.user = user
	snap := Snapshot{State: state, Session: sess, User: user}
	subs := make([]func(Snapshot), len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return snap
}
