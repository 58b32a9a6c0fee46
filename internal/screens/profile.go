package screens

import (
	"context"

	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"
	"taskdesk-cli/internal/session"

	"go.uber.org/zap"
)

const (
	msgProfileLoadFailed   = "Failed to load profile information"
	msgProfileUpdated      = "Profile updated successfully"
	msgProfileUpdateFailed = "Failed to update profile"
	msgPasswordChanged     = "Password changed successfully. Please log in again."
	msgPasswordFailed      = "Failed to change password"
)

// Profile shows the signed-in user's account with an edit mode and a password dialog.
type Profile struct {
	screen
	api     API
	session *session.Store

	user model.User

	editing      bool
	passwordOpen bool
	profile      *form.State[form.ProfileForm]
	password     *form.State[form.PasswordForm]
}

func NewProfile(a API, s *session.Store, opts ...Option) *Profile {
	p := &Profile{api: a, session: s}
	p.init("profile", opts)
	ctx := context.Background()
	p.profile = form.NewState(ctx, form.ProfileForm{})
	p.password = form.NewState(ctx, form.PasswordForm{})
	return p
}

func (p *Profile) Mount(ctx context.Context) {
	gen := p.attach()
	u, err := p.api.Profile(ctx)
	p.apply(gen, func() {
		p.loading = false
		if err != nil {
			p.log.Debug(msgProfileLoadFailed, zap.Error(err))
			p.notices.Error(msgProfileLoadFailed)
			return
		}
		p.user = u
		p.profile.Reset(ctx, form.ProfileFormFor(u))
	})
}

func (p *Profile) User() model.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.user
}

// StartEdit enters edit mode with the form holding the current values.
func (p *Profile) StartEdit(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editing = true
	p.profile.Reset(ctx, form.ProfileFormFor(p.user))
}

func (p *Profile) CancelEdit(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.editing = false
	p.profile.Reset(ctx, form.ProfileFormFor(p.user))
}

func (p *Profile) Editing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.editing
}

func (p *Profile) ProfileValues() form.ProfileForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.Values
}

func (p *Profile) ChangeProfile(ctx context.Context, edit func(*form.ProfileForm)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.profile.Change(ctx, edit)
}

func (p *Profile) ProfileErrors() form.Errors {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.profile.Visible()
}

// SaveProfile validates locally, then lets the server have the last word. On success the
// session identity is patched so other screens see the new name.
func (p *Profile) SaveProfile(ctx context.Context) bool {
	gen := p.token()
	p.mu.Lock()
	ok := p.profile.Submit(ctx)
	change := p.profile.Values.Change()
	p.mu.Unlock()
	if !ok {
		return false
	}

	if _, err := p.api.UpdateProfile(ctx, change); err != nil {
		p.apply(gen, func() {
			if !p.profile.MergeServer(err) {
				p.log.Debug(msgProfileUpdateFailed, zap.Error(err))
				p.notices.Error(msgProfileUpdateFailed)
			}
		})
		return false
	}
	if !p.apply(gen, func() {
		p.user = model.ApplyUserChange(p.user, change)
		p.editing = false
		p.notices.Success(msgProfileUpdated)
	}) {
		return false
	}
	if p.session != nil {
		p.session.UpdateIdentity(change)
	}
	return true
}

// OpenPassword opens the password dialog with an empty form.
func (p *Profile) OpenPassword(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwordOpen = true
	p.password.Reset(ctx, form.PasswordForm{})
}

func (p *Profile) ClosePassword(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.passwordOpen = false
	p.password.Reset(ctx, form.PasswordForm{})
}

func (p *Profile) PasswordOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.passwordOpen
}

func (p *Profile) ChangePasswordForm(ctx context.Context, edit func(*form.PasswordForm)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.password.Change(ctx, edit)
}

func (p *Profile) PasswordErrors() form.Errors {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.password.Visible()
}

// ChangePassword submits the password form. Success ends the session and sends the view to
// the login screen.
func (p *Profile) ChangePassword(ctx context.Context) (Nav, bool) {
	gen := p.token()
	p.mu.Lock()
	ok := p.password.Submit(ctx)
	in := p.password.Values.Payload()
	p.mu.Unlock()
	if !ok {
		return Nav{}, false
	}

	if err := p.api.ChangePassword(ctx, in); err != nil {
		p.apply(gen, func() {
			if !p.password.MergeServer(err) {
				p.log.Debug(msgPasswordFailed, zap.Error(err))
				p.notices.Error(msgPasswordFailed)
			}
		})
		return Nav{}, false
	}
	if !p.apply(gen, func() {
		p.passwordOpen = false
		p.password.Reset(ctx, form.PasswordForm{})
		p.notices.Success(msgPasswordChanged)
	}) {
		return Nav{}, false
	}
	if p.session != nil {
		p.session.Logout(ctx)
	}
	return Nav{Route: guard.RouteLogin}, true
}
