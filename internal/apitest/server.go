// Package apitest provides an in-process stand-in for the two remote
// services the client consumes: the auth service (login, register, /user/me)
// and the ideas service (CRUD plus the my-ideas listing). Tests point the
// real transport at it, so the client code under test is exactly the code
// that ships.
package apitest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type userRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"-"`
}

// IdeaRecord is the wire shape of an idea as the service returns it.
type IdeaRecord struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	AuthorID    string `json:"authorId"`
	CreatedAt   string `json:"createdAt"`
}

// Server hosts both fake services on separate listeners, matching the
// two-host deployment of the real system.
type Server struct {
	Auth  *httptest.Server
	Ideas *httptest.Server

	secret []byte
	hits   atomic.Int64

	mu        sync.Mutex
	users     map[string]*userRecord // keyed by email
	ideas     []*IdeaRecord          // creation order
	failNext  int                    // force this status on the next ideas request
	tokenless bool                   // make the next auth success omit the token
}

// New starts both services. Close stops them.
func New() *Server {
	s := &Server{
		secret: []byte("apitest-secret"),
		users:  make(map[string]*userRecord),
	}
	s.Auth = httptest.NewServer(s.authRouter())
	s.Ideas = httptest.NewServer(s.ideasRouter())
	return s
}

// Close shuts both services down.
func (s *Server) Close() {
	s.Auth.Close()
	s.Ideas.Close()
}

// Hits reports how many requests reached either service.
func (s *Server) Hits() int64 { return s.hits.Load() }

// SeedUser registers an account directly, bypassing the HTTP surface.
func (s *Server) SeedUser(name, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[email] = &userRecord{
		ID:       uuid.NewString(),
		Name:     name,
		Email:    email,
		Password: password,
	}
}

// SeedIdea inserts an idea owned by the given author email.
func (s *Server) SeedIdea(authorEmail, title, description string) IdeaRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := &IdeaRecord{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		AuthorID:    authorEmail,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	s.ideas = append(s.ideas, rec)
	return *rec
}

// FailNextIdeas forces the next ideas-service request to the given status.
func (s *Server) FailNextIdeas(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext = status
}

// OmitNextToken makes the next successful login/register respond without a
// token field.
func (s *Server) OmitNextToken() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokenless = true
}

// TokenFor issues a token the services accept for the given email.
func (s *Server) TokenFor(email string) string {
	return s.signToken(email, time.Now().Add(time.Hour))
}

// ExpiredTokenFor issues a token whose exp claim has already passed.
func (s *Server) ExpiredTokenFor(email string) string {
	return s.signToken(email, time.Now().Add(-time.Hour))
}

func (s *Server) signToken(email string, exp time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": email,
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// Auth service ------------------------------------------------------------

func (s *Server) authRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countHits)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/register", s.handleRegister)
	r.Get("/user/me", s.handleMe)
	return r
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.Email]
	omit := s.tokenless
	s.tokenless = false
	s.mu.Unlock()

	if !ok || u.Password != req.Password {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	s.writeTokenResponse(w, req.Email, omit)
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	if _, exists := s.users[req.Email]; exists {
		s.mu.Unlock()
		w.WriteHeader(http.StatusConflict)
		return
	}
	s.users[req.Email] = &userRecord{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	}
	omit := s.tokenless
	s.tokenless = false
	s.mu.Unlock()

	s.writeTokenResponse(w, req.Email, omit)
}

func (s *Server) writeTokenResponse(w http.ResponseWriter, email string, omitToken bool) {
	w.Header().Set("Content-Type", "application/json")
	if omitToken {
		json.NewEncoder(w).Encode(map[string]string{})
		return
	}
	json.NewEncoder(w).Encode(map[string]string{"token": s.TokenFor(email)})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	email, ok := s.authorize(r)
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	s.mu.Lock()
	u, exists := s.users[email]
	s.mu.Unlock()
	if !exists {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(u)
}

// Ideas service -----------------------------------------------------------

func (s *Server) ideasRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(s.countHits)
	r.Use(s.forcedFailure)
	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/", s.handleListAll)
		r.Get("/my-ideas", s.handleListMine)
		r.Get("/{id}", s.handleGet)
		r.Post("/", s.handleCreate)
		r.Put("/{id}", s.handleUpdate)
		r.Delete("/{id}", s.handleDelete)
	})
	return r
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, ok := s.authorize(r)
		if !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(contextWithEmail(r.Context(), email)))
	})
}

func (s *Server) forcedFailure(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status := s.failNext
		s.failNext = 0
		s.mu.Unlock()
		if status != 0 {
			w.WriteHeader(status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) countHits(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleListAll(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out := make([]IdeaRecord, 0, len(s.ideas))
	for _, rec := range s.ideas {
		out = append(out, *rec)
	}
	s.mu.Unlock()
	writeJSON(w, out)
}

func (s *Server) handleListMine(w http.ResponseWriter, r *http.Request) {
	email := emailFromContext(r.Context())
	s.mu.Lock()
	out := make([]IdeaRecord, 0)
	for _, rec := range s.ideas {
		if rec.AuthorID == email {
			out = append(out, *rec)
		}
	}
	s.mu.Unlock()
	writeJSON(w, out)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	rec := s.find(id)
	s.mu.Unlock()
	if rec == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	writeJSON(w, *rec)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Description) == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	rec := &IdeaRecord{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    emailFromContext(r.Context()),
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	s.mu.Lock()
	s.ideas = append(s.ideas, rec)
	s.mu.Unlock()

	w.WriteHeader(http.StatusCreated)
	writeJSON(w, *rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	rec := s.find(id)
	if rec == nil {
		s.mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if rec.AuthorID != emailFromContext(r.Context()) {
		s.mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
		return
	}
	rec.Title = req.Title
	rec.Description = req.Description
	out := *rec
	s.mu.Unlock()

	writeJSON(w, out)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	idx := -1
	for i, rec := range s.ideas {
		if rec.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if s.ideas[idx].AuthorID != emailFromContext(r.Context()) {
		s.mu.Unlock()
		w.WriteHeader(http.StatusForbidden)
		return
	}
	s.ideas = append(s.ideas[:idx], s.ideas[idx+1:]...)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

// Helpers -----------------------------------------------------------------

func (s *Server) find(id string) *IdeaRecord {
	for _, rec := range s.ideas {
		if rec.ID == id {
			return rec
		}
	}
	return nil
}

func (s *Server) authorize(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	raw, found := strings.CutPrefix(header, "Bearer ")
	if !found || raw == "" {
		return "", false
	}
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return "", false
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", false
	}
	return sub, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
