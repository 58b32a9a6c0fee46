package form

import (
	"context"
	"strings"
	"time"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/model"

	"github.com/go-playground/validator/v10"
)

// DefaultCategoryColor prefills the category form.
const DefaultCategoryColor = "#2196f3"

// editDueSlack tolerates timezone skew when editing an existing due date.
const editDueSlack = 24 * time.Hour

type LoginForm struct {
	Email    string `json:"email" validate:"notblank,looseemail"`
	Password string `json:"password" validate:"notblank"`
}

func (LoginForm) Messages() Messages {
	return Messages{
		"email.notblank":    "Email is required",
		"email.looseemail":  "Enter a valid email",
		"password.notblank": "Password is required",
	}
}

type RegisterForm struct {
	Username        string `json:"username" validate:"notblank,min=3,max=20"`
	Email           string `json:"email" validate:"notblank,looseemail"`
	Password        string `json:"password" validate:"notblank,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"notblank"`
}

func (RegisterForm) Messages() Messages {
	return Messages{
		"username.notblank":         "Username is required",
		"username.min":              "Username must be at least 3 characters",
		"username.max":              "Username must be at most 20 characters",
		"email.notblank":            "Email is required",
		"email.looseemail":          "Enter a valid email",
		"password.notblank":         "Password is required",
		"password.min":              "Password must be at least 6 characters",
		"confirm_password.notblank": "Confirm password is required",
		"confirm_password.matches":  "Passwords must match",
	}
}

func (f RegisterForm) Registration() api.Registration {
	return api.Registration{Username: strings.TrimSpace(f.Username), Email: strings.TrimSpace(f.Email), Password: f.Password}
}

// TaskCreateForm uses the priority ordinal (1..3) like the create endpoint.
type TaskCreateForm struct {
	Title       string     `json:"title" validate:"notblank,max=100"`
	Description string     `json:"description" validate:"max=1000"`
	Priority    int        `json:"priority" validate:"oneof=1 2 3"`
	CategoryID  *int64     `json:"category_id"`
	DueDate     *time.Time `json:"due_date"`
}

// NewTaskCreateForm returns the form with its defaults (Medium priority).
func NewTaskCreateForm() TaskCreateForm {
	return TaskCreateForm{Priority: model.PriorityMedium.Ordinal()}
}

func (TaskCreateForm) Messages() Messages {
	return Messages{
		"title.notblank":   "Title is required",
		"title.max":        "Title must be at most 100 characters",
		"description.max":  "Description must be at most 1000 characters",
		"priority.oneof":   "Priority is required",
		"due_date.notpast": "Due date cannot be in the past",
	}
}

func (f TaskCreateForm) Payload() api.NewTask {
	out := api.NewTask{
		Title:       strings.TrimSpace(f.Title),
		Description: f.Description,
		Priority:    f.Priority,
		CategoryID:  f.CategoryID,
	}
	if f.DueDate != nil {
		out.DueDate = model.TimePtr(*f.DueDate)
	}
	return out
}

type TaskEditForm struct {
	Title       string         `json:"title" validate:"notblank,max=100"`
	Description string         `json:"description" validate:"max=500"`
	Priority    model.Priority `json:"priority" validate:"notblank,oneof=Low Medium High"`
	CategoryID  *int64         `json:"category_id"`
	DueDate     *time.Time     `json:"due_date"`
}

// EditFormFor prefills the edit form from t.
func EditFormFor(t model.Task) TaskEditForm {
	f := TaskEditForm{
		Title:       t.Title,
		Description: t.Description,
		Priority:    t.Priority,
		CategoryID:  t.CategoryID,
		DueDate:     t.DueDate.Std(),
	}
	if f.Priority == "" {
		f.Priority = model.PriorityMedium
	}
	return f
}

func (TaskEditForm) Messages() Messages {
	return Messages{
		"title.notblank":    "Title is required",
		"title.max":         "Title must be less than 100 characters",
		"description.max":   "Description must be less than 500 characters",
		"priority.notblank": "Priority is required",
		"priority.oneof":    "Invalid priority",
		"due_date.notpast":  "Due date cannot be in the past",
	}
}

// Change builds the full update sent on save; an empty category or due date clears it.
func (f TaskEditForm) Change() model.TaskChange {
	title := strings.TrimSpace(f.Title)
	desc := f.Description
	prio := f.Priority
	c := model.TaskChange{Title: &title, Description: &desc, Priority: &prio}
	if f.CategoryID != nil {
		id := *f.CategoryID
		c.CategoryID = &id
	} else {
		c.ClearCategory = true
	}
	if f.DueDate != nil {
		c.DueDate = model.TimePtr(*f.DueDate)
	} else {
		c.ClearDueDate = true
	}
	return c
}

type CategoryForm struct {
	Name  string `json:"name" validate:"notblank,max=50"`
	Color string `json:"color" validate:"notblank,rgbhex"`
}

func NewCategoryForm() CategoryForm { return CategoryForm{Color: DefaultCategoryColor} }

func CategoryFormFor(c model.Category) CategoryForm {
	return CategoryForm{Name: c.Name, Color: c.Color}
}

func (CategoryForm) Messages() Messages {
	return Messages{
		"name.notblank":  "Name is required",
		"name.max":       "Name must be at most 50 characters",
		"color.notblank": "Color is required",
		"color.rgbhex":   "Invalid color format",
	}
}

func (f CategoryForm) Input() api.CategoryInput {
	return api.CategoryInput{Name: strings.TrimSpace(f.Name), Color: strings.TrimSpace(f.Color)}
}

type ProfileForm struct {
	Username string `json:"username" validate:"notblank"`
	Email    string `json:"email" validate:"notblank,looseemail"`
}

func ProfileFormFor(u model.User) ProfileForm {
	return ProfileForm{Username: u.Username, Email: u.Email}
}

func (ProfileForm) Messages() Messages {
	return Messages{
		"username.notblank": "Username is required",
		"email.notblank":    "Email is required",
		"email.looseemail":  "Email is invalid",
	}
}

func (f ProfileForm) Change() model.UserChange {
	name := strings.TrimSpace(f.Username)
	email := strings.TrimSpace(f.Email)
	return model.UserChange{Username: &name, Email: &email}
}

type PasswordForm struct {
	CurrentPassword string `json:"current_password" validate:"notblank"`
	NewPassword     string `json:"new_password" validate:"notblank,min=8"`
	ConfirmPassword string `json:"confirm_password"`
}

func (PasswordForm) Messages() Messages {
	return Messages{
		"current_password.notblank": "Current password is required",
		"new_password.notblank":     "New password is required",
		"new_password.min":          "Password must be at least 8 characters",
		"confirm_password.matches":  "Passwords do not match",
	}
}

func (f PasswordForm) Payload() api.PasswordChange {
	return api.PasswordChange{CurrentPassword: f.CurrentPassword, NewPassword: f.NewPassword}
}

type ContactForm struct {
	Name    string `json:"name" validate:"notblank,max=100"`
	Email   string `json:"email" validate:"notblank,looseemail"`
	Subject string `json:"subject" validate:"notblank,max=200"`
	Message string `json:"message" validate:"notblank"`
}

func (ContactForm) Messages() Messages {
	return Messages{
		"name.notblank":    "Name is required",
		"name.max":         "Name must be at most 100 characters",
		"email.notblank":   "Email is required",
		"email.looseemail": "Enter a valid email",
		"subject.notblank": "Subject is required",
		"subject.max":      "Subject must be at most 200 characters",
		"message.notblank": "Message is required",
	}
}

func (f ContactForm) Payload() api.ContactRequest {
	return api.ContactRequest{
		Name:    strings.TrimSpace(f.Name),
		Email:   strings.TrimSpace(f.Email),
		Subject: strings.TrimSpace(f.Subject),
		Message: f.Message,
	}
}

// Struct-level rules.

func registerStructRules(v *validator.Validate) {
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		f := sl.Current().Interface().(RegisterForm)
		if f.ConfirmPassword != "" && f.ConfirmPassword != f.Password {
			sl.ReportError(f.ConfirmPassword, "confirm_password", "ConfirmPassword", "matches", "password")
		}
	}, RegisterForm{})

	v.RegisterStructValidation(func(sl validator.StructLevel) {
		f := sl.Current().Interface().(PasswordForm)
		if f.ConfirmPassword != f.NewPassword {
			sl.ReportError(f.ConfirmPassword, "confirm_password", "ConfirmPassword", "matches", "new_password")
		}
	}, PasswordForm{})

	v.RegisterStructValidationCtx(func(ctx context.Context, sl validator.StructLevel) {
		f := sl.Current().Interface().(TaskCreateForm)
		if f.DueDate != nil && f.DueDate.Before(Now(ctx)) {
			sl.ReportError(f.DueDate, "due_date", "DueDate", "notpast", "")
		}
	}, TaskCreateForm{})

	v.RegisterStructValidationCtx(func(ctx context.Context, sl validator.StructLevel) {
		f := sl.Current().Interface().(TaskEditForm)
		if f.DueDate != nil && f.DueDate.Before(Now(ctx).Add(-editDueSlack)) {
			sl.ReportError(f.DueDate, "due_date", "DueDate", "notpast", "")
		}
	}, TaskEditForm{})
}
