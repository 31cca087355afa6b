// Package ideas synchronizes a local cache of idea records with the remote
// ideas service, scoped by the current session. The cache holds two
// overlapping subsets (everything visible, and the caller's own) because
// either listing endpoint may have been the last one called.
package ideas

import (
	"context"
	"net/http"
	"sync"

	"redgit.org/internal/api"
	"redgit.org/internal/event"
	"redgit.org/internal/obs"
)

// Idea is one user-authored record. AuthorID carries the author's email.
type Idea struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AuthorID    string `json:"authorId"`
	CreatedAt   string `json:"createdAt"`
}

// Reason explains a cache change to subscribers.
type Reason string

const (
	ReasonRefresh Reason = "refresh"
	ReasonCreate  Reason = "create"
	ReasonUpdate  Reason = "update"
	ReasonDelete  Reason = "delete"
	ReasonClear   Reason = "clear"
)

// Change is published after every cache mutation.
type Change struct {
	Reason Reason
}

// Session is the read-only view of the session manager the store consults.
type Session interface {
	IsAuthenticated() bool
	Token() string
	IdentityKey() string
}

type ideaPayload struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Store owns the cached idea collections. Safe for concurrent use.
type Store struct {
	client  *api.Client
	session Session
	hub     *event.Hub[Change]

	mu       sync.RWMutex
	all      []Idea
	mine     []Idea
	loading  bool
	inflight map[string]struct{}
}

// New creates an empty store over the given transport and session.
func New(client *api.Client, session Session) *Store {
	return &Store{
		client:   client,
		session:  session,
		hub:      event.NewHub[Change](),
		inflight: make(map[string]struct{}),
	}
}

// RefreshAll refreshes the all-visible subset. Unauthenticated callers get a
// cleared cache and no network call. A 401/403 clears the subset (session
// invalid for this resource) without forcing logout; any other failure keeps
// the prior cache and is only logged.
func (s *Store) RefreshAll(ctx context.Context) {
	s.refresh(ctx, "", func(items []Idea) {
		s.mu.Lock()
		s.all = items
		s.mu.Unlock()
	}, s.clearAll)
}

// RefreshMine refreshes the authored-by-me subset with the same contract as
// RefreshAll.
func (s *Store) RefreshMine(ctx context.Context) {
	s.refresh(ctx, "/my-ideas", func(items []Idea) {
		s.mu.Lock()
		s.mine = items
		s.mu.Unlock()
	}, s.clearMine)
}

func (s *Store) refresh(ctx context.Context, path string, commit func([]Idea), clear func()) {
	if !s.session.IsAuthenticated() {
		clear()
		s.hub.Publish(Change{Reason: ReasonClear})
		return
	}

	var items []Idea
	err := s.client.Do(ctx, http.MethodGet, path, s.session.Token(), nil, &items)
	if err != nil {
		if api.IsAuthFailure(err) {
			// Stale listings must not survive a lost authorization.
			clear()
			s.hub.Publish(Change{Reason: ReasonClear})
		}
		obs.LogEvent("ideas.refresh_failed", map[string]any{
			"path": path,
			"kind": string(api.KindOf(err)),
		})
		return
	}
	commit(items)
	s.hub.Publish(Change{Reason: ReasonRefresh})
}

// Bootstrap refreshes both subsets concurrently, holding the loading flag
// until both settle.
func (s *Store) Bootstrap(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	s.resync(ctx)

	s.mu.Lock()
	s.loading = false
	s.mu.Unlock()
}

func (s *Store) resync(ctx context.Context) {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.RefreshAll(ctx)
	}()
	go func() {
		defer wg.Done()
		s.RefreshMine(ctx)
	}()
	wg.Wait()
}

// Create posts a new idea. On success both subsets are re-synchronized
// before Create returns, so the cache reflects the server-assigned id,
// timestamp and canonical author. No cache mutation happens on failure.
func (s *Store) Create(ctx context.Context, title, description string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	if err := ValidateDescription(description); err != nil {
		return err
	}

	err := s.client.Mutate(ctx, http.MethodPost, "", s.session.Token(),
		ideaPayload{Title: title, Description: description}, nil)
	if err != nil {
		obs.LogEvent("ideas.create_failed", map[string]any{"kind": string(api.KindOf(err))})
		return err
	}
	s.resync(ctx)
	s.hub.Publish(Change{Reason: ReasonCreate})
	return nil
}

// Update replaces the idea's title and description. A 403 (caller is not the
// author) is indistinguishable from other failures to a caller that only
// checks success; branching callers can inspect the kind.
func (s *Store) Update(ctx context.Context, id, title, description string) error {
	if err := ValidateTitle(title); err != nil {
		return err
	}
	if err := ValidateDescription(description); err != nil {
		return err
	}
	release, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	err = s.client.Mutate(ctx, http.MethodPut, "/"+id, s.session.Token(),
		ideaPayload{Title: title, Description: description}, nil)
	if err != nil {
		obs.LogEvent("ideas.update_failed", map[string]any{"id": id, "kind": string(api.KindOf(err))})
		return err
	}
	s.resync(ctx)
	s.hub.Publish(Change{Reason: ReasonUpdate})
	return nil
}

// Delete removes the idea. The local entry is dropped only once the server
// confirms, via the same re-synchronization path as every other mutation.
func (s *Store) Delete(ctx context.Context, id string) error {
	release, err := s.acquire(id)
	if err != nil {
		return err
	}
	defer release()

	err = s.client.Mutate(ctx, http.MethodDelete, "/"+id, s.session.Token(), nil, nil)
	if err != nil {
		obs.LogEvent("ideas.delete_failed", map[string]any{"id": id, "kind": string(api.KindOf(err))})
		return err
	}
	s.resync(ctx)
	s.hub.Publish(Change{Reason: ReasonDelete})
	return nil
}

// acquire enforces at most one in-flight mutation per id. The original
// client left this to UI discipline (disabling the submit control), which
// was applied inconsistently; the store now guards it itself.
func (s *Store) acquire(id string) (func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inflight[id]; busy {
		return nil, ErrBusy
	}
	s.inflight[id] = struct{}{}
	return func() {
		s.mu.Lock()
		delete(s.inflight, id)
		s.mu.Unlock()
	}, nil
}

// Fetch retrieves a single idea straight from the service, for detail views
// of records not in either cached subset. It does not mutate the cache.
func (s *Store) Fetch(ctx context.Context, id string) (Idea, error) {
	var idea Idea
	err := s.client.Do(ctx, http.MethodGet, "/"+id, s.session.Token(), nil, &idea)
	if err != nil {
		return Idea{}, err
	}
	return idea, nil
}

// GetByID is a pure local lookup across both subsets, own ideas first. A
// miss means "not fetched", not "confirmed absent".
func (s *Store) GetByID(id string) (Idea, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, idea := range s.mine {
		if idea.ID == id {
			return idea, true
		}
	}
	for _, idea := range s.all {
		if idea.ID == id {
			return idea, true
		}
	}
	return Idea{}, false
}

// IsOwner reports whether the current session authored the idea. Display
// gating only; the server enforces authorization on every mutation.
func (s *Store) IsOwner(idea Idea) bool {
	key := s.session.IdentityKey()
	return key != "" && idea.AuthorID == key
}

// All returns a copy of the all-visible subset in server order.
func (s *Store) All() []Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Idea, len(s.all))
	copy(out, s.all)
	return out
}

// Mine returns a copy of the authored-by-me subset in server order.
func (s *Store) Mine() []Idea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Idea, len(s.mine))
	copy(out, s.mine)
	return out
}

// Loading reports whether a Bootstrap is still settling.
func (s *Store) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Subscribe registers a listener for cache changes. The returned channel
// closes when ctx ends.
func (s *Store) Subscribe(ctx context.Context) <-chan Change {
	return s.hub.Subscribe(ctx)
}

func (s *Store) clearAll() {
	s.mu.Lock()
	s.all = nil
	s.mu.Unlock()
}

func (s *Store) clearMine() {
	s.mu.Lock()
	s.mine = nil
	s.mu.Unlock()
}
