// Package testapi runs an in-process stand-in for the manager API so the
// console's flows can be exercised end to end in tests.
package testapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const signingSecret = "testapi-signing-secret-32-chars!!"

// Where the login response carries the role
const (
	RoleInUser = "user"
	RoleInBody = "body"
	RoleInNone = "none"
)

// Account is a login the fake API accepts
type Account struct {
	Email    string
	Password string
	Name     string
	Role     string
	// TokenField names the body field carrying the token; "-" omits it
	TokenField string
	// RoleIn selects where the role is reported; the token always carries Claims
	RoleIn string
	Claims jwt.MapClaims
}

type account struct {
	Account
	hash []byte
}

type override struct {
	status      int
	contentType string
	body        string
}

// Server is the fake API
type Server struct {
	*httptest.Server

	mu            sync.Mutex
	accounts      map[string]account
	tokens        map[string]bool
	engineers     []map[string]any
	projects      map[string][]map[string]any
	details       map[string]map[string]any
	notifications []string
	activities    []string
	overrides     map[string]override
	holds         map[string]*hold
	hits          map[string]int
}

// New starts a fake API that is closed when the test ends
func New(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		accounts:  make(map[string]account),
		tokens:    make(map[string]bool),
		projects:  make(map[string][]map[string]any),
		details:   make(map[string]map[string]any),
		overrides: make(map[string]override),
		holds:     make(map[string]*hold),
		hits:      make(map[string]int),
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(func() {
		s.ReleaseAll()
		s.Close()
	})
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.track)

	r.Post("/api/login", s.login)
	r.Get("/api/projects/{id}", s.project)

	r.Group(func(r chi.Router) {
		r.Use(s.requireBearer)
		r.Get("/api/manager/users", s.users)
		r.Get("/api/manager/notifications", s.listNotifications)
		r.Get("/api/manager/recent-activity", s.listActivities)
		r.Post("/api/manager/add-user", s.addUser)
		r.Get("/api/manager/user-projects", s.userProjects)
	})
	return r
}

// AddAccount registers a login. The password is stored bcrypt-hashed.
func (s *Server) AddAccount(a Account) {
	hash, err := bcrypt.GenerateFromPassword([]byte(a.Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	if a.TokenField == "" {
		a.TokenField = "token"
	}
	if a.RoleIn == "" {
		a.RoleIn = RoleInUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.ToLower(a.Email)] = account{Account: a, hash: hash}
}

// IssueToken returns a valid bearer token carrying claims
func (s *Server) IssueToken(claims jwt.MapClaims) string {
	all := jwt.MapClaims{"iat": time.Now().Unix()}
	for k, v := range claims {
		all[k] = v
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, all).SignedString([]byte(signingSecret))
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[signed] = true
	return signed
}

// RevokeAll invalidates every issued token
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]bool)
}

// SetEngineers replaces the roster; records are sent verbatim
func (s *Server) SetEngineers(records ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engineers = records
}

// SetProjects replaces one user's project list
func (s *Server) SetProjects(email string, projects ...map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.projects[strings.ToLower(email)] = projects
}

// SetProjectDetail registers the detail served for a project id
func (s *Server) SetProjectDetail(id string, project map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.details[id] = project
}

// SetSidebars replaces notifications and activities
func (s *Server) SetSidebars(notifications, activities []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = notifications
	s.activities = activities
}

// Override makes path answer with a fixed status and body
func (s *Server) Override(path string, status int, contentType, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[path] = override{status: status, contentType: contentType, body: body}
}

type hold struct {
	ch   chan struct{}
	once sync.Once
}

func (h *hold) release() {
	h.once.Do(func() { close(h.ch) })
}

// Hold blocks requests to path until the returned release func is called
func (s *Server) Hold(path string) (release func()) {
	h := &hold{ch: make(chan struct{})}
	s.mu.Lock()
	s.holds[path] = h
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if s.holds[path] == h {
			delete(s.holds, path)
		}
		s.mu.Unlock()
		h.release()
	}
}

// ReleaseAll unblocks every held path
func (s *Server) ReleaseAll() {
	s.mu.Lock()
	holds := s.holds
	s.holds = make(map[string]*hold)
	s.mu.Unlock()

	for _, h := range holds {
		h.release()
	}
}

// Hits returns how many requests reached path
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *Server) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		held := s.holds[r.URL.Path]
		ov, overridden := s.overrides[r.URL.Path]
		s.mu.Unlock()

		if held != nil {
			select {
			case <-held.ch:
			case <-r.Context().Done():
				return
			}
		}

		if overridden {
			if ov.contentType != "" {
				w.Header().Set("Content-Type", ov.contentType)
			}
			w.WriteHeader(ov.status)
			_, _ = w.Write([]byte(ov.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireBearer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "missing token"})
			return
		}

		_, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
			return []byte(signingSecret), nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

		s.mu.Lock()
		known := s.tokens[token]
		s.mu.Unlock()

		if err != nil || !known {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "message": "invalid token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request body"})
		return
	}

	s.mu.Lock()
	acct, ok := s.accounts[strings.ToLower(req.Email)]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.hash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "Invalid email or password"})
		return
	}

	claims := jwt.MapClaims{"sub": acct.Email}
	for k, v := range acct.Claims {
		claims[k] = v
	}
	token := s.IssueToken(claims)

	body := map[string]any{}
	if acct.TokenField != "-" {
		body[acct.TokenField] = token
	}
	switch acct.RoleIn {
	case RoleInUser:
		body["user"] = map[string]any{
			"email":      acct.Email,
			"name":       acct.Name,
			"role":       acct.Role,
			"created_at": "2026-01-05T09:00:00Z",
			"last_login": "2026-10-13T08:30:00Z",
		}
	case RoleInBody:
		body["role"] = acct.Role
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) users(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	users := append([]map[string]any{}, s.engineers...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "users": users})
}

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := append([]string{}, s.notifications...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "notifications": items})
}

func (s *Server) listActivities(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	items := append([]string{}, s.activities...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "activities": items})
}

func (s *Server) addUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "Email and password are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.engineers {
		if existing, _ := e["email"].(string); strings.EqualFold(existing, req.Email) {
			writeJSON(w, http.StatusConflict, map[string]any{"success": false, "message": "User already exists"})
			return
		}
	}
	s.engineers = append(s.engineers, map[string]any{
		"email":         req.Email,
		"role":          "user",
		"created_at":    time.Now().UTC().Format(time.RFC3339),
		"project_count": 0,
	})
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "message": "User created"})
}

func (s *Server) userProjects(w http.ResponseWriter, r *http.Request) {
	email := strings.ToLower(r.URL.Query().Get("email"))

	s.mu.Lock()
	projects := append([]map[string]any{}, s.projects[email]...)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "projects": projects})
}

func (s *Server) project(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	detail, ok := s.details[id]
	s.mu.Unlock()

	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "message": "Project not found"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "project": detail})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
