// Package mockapi is an in-memory implementation of the task-management REST API.
//
// It backs the test suites and `taskdesk-mock` for local development; behavior mirrors the
// production backend (first user is admin, categories with tasks cannot be deleted, admins
// cannot modify themselves, ...).
package mockapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"taskdesk-cli/internal/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// SessionCookie is the name of the session cookie issued on login.
const SessionCookie = "session"

type userRec struct {
	model.User
	hash []byte
}

type taskRec struct {
	model.Task
	ownerID int64
}

type categoryRec struct {
	model.Category
	ownerID int64
}

type Server struct {
	mu sync.Mutex

	users      []*userRec
	tasks      []*taskRec
	categories []*categoryRec
	messages   []*model.ContactMessage
	sessions   map[string]int64
	nextID     int64

	now    func() time.Time
	log    *zap.Logger
	router *mux.Router
}

type Option func(*Server)

// WithClock overrides the server clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.log = l }
}

func New(opts ...Option) *Server {
	s := &Server{
		sessions: map[string]int64{},
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/api/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/logout", s.authed(s.handleLogout)).Methods(http.MethodPost)
	r.HandleFunc("/api/user", s.authed(s.handleCurrentUser)).Methods(http.MethodGet)

	r.HandleFunc("/api/users/profile", s.authed(s.handleGetProfile)).Methods(http.MethodGet)
	r.HandleFunc("/api/users/profile", s.authed(s.handleUpdateProfile)).Methods(http.MethodPut)
	r.HandleFunc("/api/users/change-password", s.authed(s.handleChangePassword)).Methods(http.MethodPut)

	r.HandleFunc("/api/tasks", s.authed(s.handleListTasks)).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks", s.authed(s.handleCreateTask)).Methods(http.MethodPost)
	r.HandleFunc("/api/tasks/{id:[0-9]+}", s.authed(s.handleGetTask)).Methods(http.MethodGet)
	r.HandleFunc("/api/tasks/{id:[0-9]+}", s.authed(s.handleUpdateTask)).Methods(http.MethodPut)
	r.HandleFunc("/api/tasks/{id:[0-9]+}", s.authed(s.handleDeleteTask)).Methods(http.MethodDelete)

	r.HandleFunc("/api/categories", s.authed(s.handleListCategories)).Methods(http.MethodGet)
	r.HandleFunc("/api/categories", s.authed(s.handleCreateCategory)).Methods(http.MethodPost)
	r.HandleFunc("/api/categories/{id:[0-9]+}", s.authed(s.handleUpdateCategory)).Methods(http.MethodPut)
	r.HandleFunc("/api/categories/{id:[0-9]+}", s.authed(s.handleDeleteCategory)).Methods(http.MethodDelete)

	r.HandleFunc("/api/admin/users", s.admin(s.handleListUsers)).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/users/{id:[0-9]+}", s.admin(s.handleUpdateUser)).Methods(http.MethodPut)
	r.HandleFunc("/api/admin/users/{id:[0-9]+}", s.admin(s.handleDeleteUser)).Methods(http.MethodDelete)
	r.HandleFunc("/api/admin/stats", s.admin(s.handleStats)).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/messages", s.admin(s.handleListMessages)).Methods(http.MethodGet)
	r.HandleFunc("/api/admin/messages/{id:[0-9]+}/read", s.admin(s.handleMarkRead)).Methods(http.MethodPut)

	r.HandleFunc("/api/contact", s.handleContact).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Debug("mock api",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", r.Header.Get("X-Request-ID")),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}

type ctxKey struct{}

func userFrom(ctx context.Context) *userRec {
	u, _ := ctx.Value(ctxKey{}).(*userRec)
	return u
}

func (s *Server) sessionUser(r *http.Request) *userRec {
	token := ""
	if c, err := r.Cookie(SessionCookie); err == nil {
		token = c.Value
	}
	if h := r.Header.Get("Authorization"); token == "" && strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if token == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	if !ok {
		return nil
	}
	return s.findUser(id)
}

func (s *Server) authed(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := s.sessionUser(r)
		if u == nil {
			writeMessage(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		h(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
	}
}

func (s *Server) admin(h http.HandlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request) {
		if u := userFrom(r.Context()); u == nil || !u.IsAdmin {
			writeMessage(w, http.StatusForbidden, "Admin privileges required")
			return
		}
		h(w, r)
	})
}

// SeedUser inserts a user directly. The first user ever created becomes admin, as with registration.
func (s *Server) SeedUser(username, email, password string, admin bool) model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.insertUserLocked(username, email, password)
	if admin {
		u.IsAdmin = true
	}
	return u.User
}

// SeedCategory inserts a category owned by userID.
func (s *Server) SeedCategory(userID int64, name, color string) model.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := &categoryRec{Category: model.Category{ID: s.allocID(), Name: name, Color: color}, ownerID: userID}
	s.categories = append(s.categories, c)
	return s.categoryViewLocked(c)
}

// SeedTask inserts a task owned by userID.
func (s *Server) SeedTask(userID int64, t model.Task) model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := model.NewTime(s.now())
	t.ID = s.allocID()
	if t.Priority == "" {
		t.Priority = model.PriorityMedium
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = now
	}
	if t.Completed && t.CompletedAt == nil {
		t.CompletedAt = &now
	}
	rec := &taskRec{Task: t, ownerID: userID}
	s.tasks = append(s.tasks, rec)
	return s.taskViewLocked(rec, false)
}

// SeedMessage inserts a contact message.
func (s *Server) SeedMessage(m model.ContactMessage) model.ContactMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	m.ID = s.allocID()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = model.NewTime(s.now())
	}
	s.messages = append(s.messages, &m)
	return m
}

func (s *Server) allocID() int64 {
	s.nextID++
	return s.nextID
}

func (s *Server) insertUserLocked(username, email, password string) *userRec {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	joined := model.NewTime(s.now())
	u := &userRec{
		User: model.User{
			ID:         s.allocID(),
			Username:   username,
			Email:      email,
			IsAdmin:    len(s.users) == 0,
			DateJoined: &joined,
		},
		hash: hash,
	}
	s.users = append(s.users, u)
	return u
}

func (s *Server) findUser(id int64) *userRec {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) findTask(id int64) *taskRec {
	for _, t := range s.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (s *Server) findCategory(id int64) *categoryRec {
	for _, c := range s.categories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (s *Server) categoryViewLocked(c *categoryRec) model.Category {
	out := c.Category
	out.TaskCount = 0
	for _, t := range s.tasks {
		if t.CategoryID != nil && *t.CategoryID == c.ID {
			out.TaskCount++
		}
	}
	return out
}

func (s *Server) taskViewLocked(t *taskRec, withOwner bool) model.Task {
	out := t.Task
	out.Category = nil
	if t.CategoryID != nil {
		if c := s.findCategory(*t.CategoryID); c != nil {
			out.Category = &model.CategoryRef{ID: c.ID, Name: c.Name, Color: c.Color}
		}
	}
	out.CreatedBy = nil
	if withOwner {
		if u := s.findUser(t.ownerID); u != nil {
			out.CreatedBy = &model.UserRef{ID: u.ID, Username: u.Username}
		}
	}
	return out
}

func (s *Server) userViewLocked(u *userRec, counts bool) model.User {
	out := u.User
	out.TaskCount = 0
	out.CompletedTaskCount = 0
	if !counts {
		out.DateJoined = nil
		return out
	}
	for _, t := range s.tasks {
		if t.ownerID != u.ID {
			continue
		}
		out.TaskCount++
		if t.Completed {
			out.CompletedTaskCount++
		}
	}
	return out
}

func sortedMessages(ms []*model.ContactMessage) []model.ContactMessage {
	out := make([]model.ContactMessage, 0, len(ms))
	for _, m := range ms {
		out = append(out, *m)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	return out
}

func newSessionToken() string { return uuid.NewString() }

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}
