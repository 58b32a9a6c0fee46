// Package screens holds the state behind each screen: its own copies of the entities it shows,
// dialog flags, form state, a notice center and an optional page-level error.
//
// Every container follows the same lifecycle. Mount fetches, Unmount detaches, and any result
// that lands after Unmount (or after a remount) is dropped instead of applied. Mutations are
// issued and observed before a refetch starts, so a refresh never races the change it follows.
package screens

import (
	"context"
	"sync"
	"time"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"
	"taskdesk-cli/internal/notify"

	"go.uber.org/zap"
)

// API is the slice of the REST client the screens call. *api.Client implements it.
type API interface {
	ListTasks(ctx context.Context) ([]model.Task, error)
	GetTask(ctx context.Context, id int64) (model.Task, error)
	CreateTask(ctx context.Context, in api.NewTask) (model.Task, error)
	UpdateTask(ctx context.Context, id int64, change model.TaskChange) (model.Task, error)
	DeleteTask(ctx context.Context, id int64) error

	ListCategories(ctx context.Context) ([]model.Category, error)
	CreateCategory(ctx context.Context, in api.CategoryInput) (model.Category, error)
	UpdateCategory(ctx context.Context, id int64, in api.CategoryInput) (model.Category, error)
	DeleteCategory(ctx context.Context, id int64) error

	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, id int64, change model.UserChange) (model.User, error)
	DeleteUser(ctx context.Context, id int64) error
	AdminStats(ctx context.Context) (model.AdminStats, error)
	ListMessages(ctx context.Context) ([]model.ContactMessage, error)
	MarkMessageRead(ctx context.Context, id int64) error

	Profile(ctx context.Context) (model.User, error)
	UpdateProfile(ctx context.Context, change model.UserChange) (model.User, error)
	ChangePassword(ctx context.Context, in api.PasswordChange) error
	SubmitContact(ctx context.Context, in api.ContactRequest) error
}

var _ API = (*api.Client)(nil)

// PageError replaces a screen's content; Back is the safe screen to return to.
type PageError struct {
	Message string
	Back    guard.Route
}

// Nav asks the view to navigate after a successful action. ID is set for task routes.
type Nav struct {
	Route guard.Route
	ID    int64
}

type Option func(*options)

type options struct {
	log *zap.Logger
	now func() time.Time
}

func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithClock sets the clock used by the optimistic reducer, due-date display and date rules.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{log: zap.NewNop(), now: time.Now}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// screen is embedded by every container. mu guards the container's fields as well as the
// mount bookkeeping.
type screen struct {
	mu      sync.Mutex
	mounted bool
	gen     uint64
	loading bool
	pageErr *PageError

	notices *notify.Center
	log     *zap.Logger
	now     func() time.Time
}

func (s *screen) init(name string, opts []Option) {
	o := buildOptions(opts)
	s.notices = notify.NewCenter()
	s.log = o.log.Named(name)
	s.now = o.now
}

// attach marks the screen mounted and starts a new generation.
func (s *screen) attach() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = true
	s.gen++
	s.loading = true
	s.pageErr = nil
	return s.gen
}

// Unmount detaches the screen; results still in flight are discarded when they arrive.
func (s *screen) Unmount() {
	s.mu.Lock()
	s.mounted = false
	s.gen++
	s.mu.Unlock()
}

func (s *screen) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// token returns the generation a call started in.
func (s *screen) token() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// apply runs fn under the lock when the screen is still mounted in generation gen.
func (s *screen) apply(gen uint64, fn func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || gen != s.gen {
		s.log.Debug("dropping late result", zap.Uint64("gen", gen), zap.Uint64("current", s.gen))
		return false
	}
	fn()
	return true
}

// fail reports err as an error notice in generation gen.
func (s *screen) fail(gen uint64, msg string, err error) {
	s.apply(gen, func() {
		s.log.Debug(msg, zap.Error(err))
		s.notices.Error(msg)
	})
}

func (s *screen) succeed(gen uint64, msg string) {
	s.apply(gen, func() { s.notices.Success(msg) })
}

func (s *screen) Notices() *notify.Center { return s.notices }

func (s *screen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// PageError returns the page-level error, if the screen has one.
func (s *screen) PageError() (PageError, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageErr == nil {
		return PageError{}, false
	}
	return *s.pageErr, true
}
