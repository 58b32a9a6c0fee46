// Package session holds the client's belief about who is signed in.
//
// A Store starts in StatusLoading and resolves exactly once through Check. After that the
// only transitions are authenticated -> anonymous (Logout) and anonymous -> authenticated (Login).
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/model"

	"go.uber.org/zap"
)

type Status int

const (
	StatusLoading Status = iota
	StatusAuthenticated
	StatusAnonymous
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusAuthenticated:
		return "authenticated"
	case StatusAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Fallback messages used when the server does not supply one.
const (
	MsgLoginFailed    = "Failed to login"
	MsgRegisterFailed = "Failed to register"
	MsgLogoutFailed   = "Failed to logout"
)

var ErrInvalidTransition = errors.New("invalid session transition")

// State is an immutable snapshot of the store.
type State struct {
	Status Status
	User   *model.User
	Error  string
}

func (s State) Loading() bool { return s.Status == StatusLoading }

func (s State) Authenticated() bool { return s.Status == StatusAuthenticated && s.User != nil }

func (s State) IsAdmin() bool { return s.Authenticated() && s.User.IsAdmin }

// Backend is the subset of the API client the store needs.
type Backend interface {
	CurrentUser(ctx context.Context) (model.User, error)
	Login(ctx context.Context, email, password string) (model.User, error)
	Register(ctx context.Context, r api.Registration) error
	Logout(ctx context.Context) error
}

type Store struct {
	backend Backend
	log     *zap.Logger

	mu     sync.Mutex
	state  State
	subs   map[int]func(State)
	nextID int
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithUser starts the store already authenticated (e.g. from a cached identity). Check is then a no-op.
func WithUser(u model.User) Option {
	return func(s *Store) {
		s.state = State{Status: StatusAuthenticated, User: &u}
	}
}

func New(b Backend, opts ...Option) *Store {
	s := &Store{
		backend: b,
		log:     zap.NewNop(),
		state:   State{Status: StatusLoading},
		subs:    map[int]func(State){},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// allowed reports whether a status change is legal. Same-status updates (error messages,
// identity patches) are always allowed.
func allowed(from, to Status) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusLoading:
		return to == StatusAuthenticated || to == StatusAnonymous
	case StatusAuthenticated:
		return to == StatusAnonymous
	case StatusAnonymous:
		return to == StatusAuthenticated
	}
	return false
}

// Snapshot returns a copy of the current state; the User pointer is never shared with the store.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyState(s.state)
}

func (s *Store) Loading() bool { return s.Snapshot().Loading() }

// User returns the signed-in user, or nil.
func (s *Store) User() *model.User { return s.Snapshot().User }

func copyState(st State) State {
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Subscribe registers fn to be called after every change. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// set applies next under the lock and notifies subscribers outside it.
func (s *Store) set(next State) error {
	s.mu.Lock()
	if !allowed(s.state.Status, next.Status) {
		from := s.state.Status
		s.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, next.Status)
	}
	prev := s.state.Status
	s.state = next
	snap := copyState(next)
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	if prev != next.Status {
		s.log.Debug("session transition", zap.Stringer("from", prev), zap.Stringer("to", next.Status))
	}
	for _, fn := range subs {
		fn(snap)
	}
	return nil
}

// Check resolves the loading state by probing the current identity. Failures are not
// surfaced: the store simply becomes anonymous. Once resolved, Check does nothing.
func (s *Store) Check(ctx context.Context) State {
	if !s.Loading() {
		return s.Snapshot()
	}
	u, err := s.backend.CurrentUser(ctx)
	if err != nil {
		s.log.Debug("session probe failed", zap.Error(err))
		_ = s.set(State{Status: StatusAnonymous})
		return s.Snapshot()
	}
	_ = s.set(State{Status: StatusAuthenticated, User: &u})
	return s.Snapshot()
}

// Login reports success. On failure the state keeps its status and Error carries the message.
func (s *Store) Login(ctx context.Context, email, password string) bool {
	cur := s.Snapshot()
	if cur.Status == StatusLoading {
		s.setError(cur, "Session check in progress")
		return false
	}
	u, err := s.backend.Login(ctx, email, password)
	if err != nil {
		s.setError(cur, api.MessageOr(err, MsgLoginFailed))
		return false
	}
	if err := s.set(State{Status: StatusAuthenticated, User: &u}); err != nil {
		s.setError(cur, err.Error())
		return false
	}
	return true
}

// Register creates the account without signing in.
func (s *Store) Register(ctx context.Context, username, email, password string) bool {
	cur := s.Snapshot()
	err := s.backend.Register(ctx, api.Registration{Username: username, Email: email, Password: password})
	if err != nil {
		s.setError(cur, api.MessageOr(err, MsgRegisterFailed))
		return false
	}
	s.setError(cur, "")
	return true
}

// Logout always ends anonymous; it reports false when the server call failed.
func (s *Store) Logout(ctx context.Context) bool {
	err := s.backend.Logout(ctx)
	next := State{Status: StatusAnonymous}
	if err != nil {
		next.Error = api.MessageOr(err, MsgLogoutFailed)
	}
	_ = s.set(next)
	return err == nil
}

// UpdateIdentity patches the held identity locally; it does nothing when signed out.
func (s *Store) UpdateIdentity(c model.UserChange) {
	cur := s.Snapshot()
	if !cur.Authenticated() {
		return
	}
	u := model.ApplyUserChange(*cur.User, c)
	_ = s.set(State{Status: StatusAuthenticated, User: &u})
}

// ClearError drops the last error message.
func (s *Store) ClearError() {
	s.setError(s.Snapshot(), "")
}

func (s *Store) setError(cur State, msg string) {
	cur.Error = msg
	_ = s.set(cur)
}
