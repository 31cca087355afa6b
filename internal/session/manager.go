// Package session maintains exactly one authenticated identity at a time and
// the bearer credential used to authorize requests against the remote
// services. State is persisted to the local store on every mutation and
// rehydrated at startup.
package session

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"redgit.org/internal/api"
	"redgit.org/internal/event"
	"redgit.org/internal/obs"
	"redgit.org/internal/store"
)

// User is the identity projection returned by the auth service.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// State is the session lifecycle state.
type State string

const (
	Unauthenticated State = "unauthenticated"
	Authenticating  State = "authenticating"
	Authenticated   State = "authenticated"
)

// Change is published to subscribers on every state transition.
type Change struct {
	State State
	User  User // zero value unless State is Authenticated
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Manager owns the session. All operations are safe for concurrent use.
type Manager struct {
	client *api.Client
	kv     store.KV
	hub    *event.Hub[Change]

	mu    sync.Mutex
	state State
	token string
	user  User
	has   bool // user is populated
}

// New creates a Manager and rehydrates any persisted credential. A persisted
// token is not trusted until Bootstrap revalidates it, but user+token are
// enough to render as authenticated immediately, matching the original
// client's cold-start behavior.
func New(client *api.Client, kv store.KV) *Manager {
	m := &Manager{
		client: client,
		kv:     kv,
		hub:    event.NewHub[Change](),
		state:  Unauthenticated,
	}
	m.rehydrate()
	return m
}

func (m *Manager) rehydrate() {
	token, ok, err := m.kv.Get(store.KeyToken)
	if err != nil {
		obs.LogEvent("session.rehydrate_failed", map[string]any{"error": err.Error()})
		return
	}
	if !ok || token == "" {
		return
	}
	m.token = token

	raw, ok, err := m.kv.Get(store.KeyUser)
	if err != nil || !ok {
		return
	}
	var u User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		// Corrupt projection; the token alone may still be valid.
		obs.LogEvent("session.user_parse_failed", map[string]any{"error": err.Error()})
		return
	}
	m.user = u
	m.has = true
	m.state = Authenticated
}

// Bootstrap performs the implicit identity refresh for a rehydrated token.
// It is a no-op without one. A token whose embedded expiry has already
// passed is discarded without a network call.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if token == "" {
		return
	}
	if expired, known := tokenExpired(token); known && expired {
		obs.LogEvent("session.token_expired_locally", nil)
		m.Logout()
		return
	}
	if err := m.RefreshIdentity(ctx); err != nil {
		obs.LogEvent("session.bootstrap_refresh_failed", map[string]any{
			"kind": string(api.KindOf(err)),
		})
	}
}

// Login exchanges credentials for a bearer token, then confirms the identity
// it belongs to. A failed exchange leaves prior state untouched; a failed
// confirmation after the token was issued rolls back to logged out.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return ErrInvalidInput
	}
	return m.authenticate(ctx, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

// Register creates an account. The backend auto-issues a token, so a
// successful registration is an immediate login. Input is validated locally
// first; the server remains the authority.
func (m *Manager) Register(ctx context.Context, name, email, password string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	return m.authenticate(ctx, "/auth/register", map[string]string{
		"name":     strings.TrimSpace(name),
		"email":    strings.TrimSpace(email),
		"password": password,
	})
}

func (m *Manager) authenticate(ctx context.Context, path string, body map[string]string) error {
	m.mu.Lock()
	prevState, prevToken, prevUser, prevHas := m.state, m.token, m.user, m.has
	m.state = Authenticating
	m.mu.Unlock()
	m.hub.Publish(Change{State: Authenticating})

	restore := func() {
		m.mu.Lock()
		m.state, m.token, m.user, m.has = prevState, prevToken, prevUser, prevHas
		m.mu.Unlock()
		m.hub.Publish(m.snapshotChange())
	}

	var resp tokenResponse
	if err := m.client.Do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		restore()
		return err
	}
	if resp.Token == "" {
		restore()
		return ErrNoToken
	}

	// Token first, identity confirmation strictly after.
	m.mu.Lock()
	m.token = resp.Token
	m.mu.Unlock()
	m.persist(store.KeyToken, resp.Token)

	user, err := m.fetchMe(ctx, resp.Token)
	if err != nil {
		m.Logout()
		return err
	}
	m.commitUser(user)
	return nil
}

// RefreshIdentity revalidates the current token against the identity
// endpoint. Any failure behaves like Logout.
func (m *Manager) RefreshIdentity(ctx context.Context) error {
	m.mu.Lock()
	token := m.token
	m.mu.Unlock()
	if token == "" {
		return ErrNoSession
	}

	user, err := m.fetchMe(ctx, token)
	if err != nil {
		m.Logout()
		return err
	}
	m.commitUser(user)
	return nil
}

// Logout clears in-memory and persisted state unconditionally. No network
// call is made; subscribers observe the transition immediately.
func (m *Manager) Logout() {
	m.mu.Lock()
	m.state = Unauthenticated
	m.token = ""
	m.user = User{}
	m.has = false
	m.mu.Unlock()

	if err := m.kv.Delete(store.KeyToken); err != nil {
		obs.LogEvent("session.persist_failed", map[string]any{"key": store.KeyToken, "error": err.Error()})
	}
	if err := m.kv.Delete(store.KeyUser); err != nil {
		obs.LogEvent("session.persist_failed", map[string]any{"key": store.KeyUser, "error": err.Error()})
	}
	m.hub.Publish(Change{State: Unauthenticated})
}

func (m *Manager) fetchMe(ctx context.Context, token string) (User, error) {
	var u User
	if err := m.client.Do(ctx, http.MethodGet, "/user/me", token, nil, &u); err != nil {
		return User{}, err
	}
	return u, nil
}

func (m *Manager) commitUser(u User) {
	m.mu.Lock()
	m.user = u
	m.has = true
	m.state = Authenticated
	m.mu.Unlock()

	if data, err := json.Marshal(u); err == nil {
		m.persist(store.KeyUser, string(data))
	}
	m.hub.Publish(Change{State: Authenticated, User: u})
}

// persist writes through to the local store. A write failure is logged but
// does not fail the operation; in-memory state is already committed, which
// mirrors the non-failing storage model the original client assumed.
func (m *Manager) persist(key, value string) {
	if err := m.kv.Set(key, value); err != nil {
		obs.LogEvent("session.persist_failed", map[string]any{"key": key, "error": err.Error()})
	}
}

func (m *Manager) snapshotChange() Change {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := Change{State: m.state}
	if m.state == Authenticated {
		c.User = m.user
	}
	return c
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsAuthenticated holds iff both a user and a token are present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.has && m.token != ""
}

// CurrentUser returns the cached identity projection.
func (m *Manager) CurrentUser() (User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.user, m.has
}

// Token returns the bearer credential, empty when unauthenticated. The idea
// store treats it as read-only.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// IdentityKey is the field idea ownership is compared against. The ideas
// backend stamps records with the author's email.
func (m *Manager) IdentityKey() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.has {
		return ""
	}
	return m.user.Email
}

// Subscribe registers a listener for state transitions. The returned channel
// closes when ctx ends.
func (m *Manager) Subscribe(ctx context.Context) <-chan Change {
	return m.hub.Subscribe(ctx)
}
