package api

import (
	"context"
	"net/http"

	"taskdesk-cli/internal/model"
)

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// NewTask is the create payload. Priority is the 1..3 ordinal.
type NewTask struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Priority    int         `json:"priority"`
	CategoryID  *int64      `json:"category_id"`
	DueDate     *model.Time `json:"due_date"`
}

type CategoryInput struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

type PasswordChange struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// Session

func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/api/user", nil, &u)
	return u, err
}

func (c *Client) Login(ctx context.Context, email, password string) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodPost, "/api/login", Credentials{Email: email, Password: password}, &u)
	return u, err
}

func (c *Client) Register(ctx context.Context, r Registration) error {
	return c.do(ctx, http.MethodPost, "/api/register", r, nil)
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil)
}

// Tasks

func (c *Client) ListTasks(ctx context.Context) ([]model.Task, error) {
	out := []model.Task{}
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out)
	return out, err
}

func (c *Client) GetTask(ctx context.Context, id int64) (model.Task, error) {
	var t model.Task
	err := c.do(ctx, http.MethodGet, idPath("/api/tasks", id), nil, &t)
	return t, err
}

func (c *Client) CreateTask(ctx context.Context, in NewTask) (model.Task, error) {
	var t model.Task
	err := c.do(ctx, http.MethodPost, "/api/tasks", in, &t)
	return t, err
}

func (c *Client) UpdateTask(ctx context.Context, id int64, change model.TaskChange) (model.Task, error) {
	var t model.Task
	err := c.do(ctx, http.MethodPut, idPath("/api/tasks", id), change, &t)
	return t, err
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/tasks", id), nil, nil)
}

// Categories

func (c *Client) ListCategories(ctx context.Context) ([]model.Category, error) {
	out := []model.Category{}
	err := c.do(ctx, http.MethodGet, "/api/categories", nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, in CategoryInput) (model.Category, error) {
	var cat model.Category
	err := c.do(ctx, http.MethodPost, "/api/categories", in, &cat)
	return cat, err
}

func (c *Client) UpdateCategory(ctx context.Context, id int64, in CategoryInput) (model.Category, error) {
	var cat model.Category
	err := c.do(ctx, http.MethodPut, idPath("/api/categories", id), in, &cat)
	return cat, err
}

// DeleteCategory fails with a conflict (see IsConflict) while the category still has tasks.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/categories", id), nil, nil)
}

// Admin

func (c *Client) ListUsers(ctx context.Context) ([]model.User, error) {
	out := []model.User{}
	err := c.do(ctx, http.MethodGet, "/api/admin/users", nil, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, id int64, change model.UserChange) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodPut, idPath("/api/admin/users", id), change, &u)
	return u, err
}

func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, idPath("/api/admin/users", id), nil, nil)
}

func (c *Client) AdminStats(ctx context.Context) (model.AdminStats, error) {
	var s model.AdminStats
	err := c.do(ctx, http.MethodGet, "/api/admin/stats", nil, &s)
	return s, err
}

func (c *Client) ListMessages(ctx context.Context) ([]model.ContactMessage, error) {
	out := []model.ContactMessage{}
	err := c.do(ctx, http.MethodGet, "/api/admin/messages", nil, &out)
	return out, err
}

func (c *Client) MarkMessageRead(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, idPath("/api/admin/messages", id, "read"), nil, nil)
}

// Profile

func (c *Client) Profile(ctx context.Context) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodGet, "/api/users/profile", nil, &u)
	return u, err
}

func (c *Client) UpdateProfile(ctx context.Context, change model.UserChange) (model.User, error) {
	var u model.User
	err := c.do(ctx, http.MethodPut, "/api/users/profile", change, &u)
	return u, err
}

func (c *Client) ChangePassword(ctx context.Context, in PasswordChange) error {
	return c.do(ctx, http.MethodPut, "/api/users/change-password", in, nil)
}

// Contact

func (c *Client) SubmitContact(ctx context.Context, in ContactRequest) error {
	return c.do(ctx, http.MethodPost, "/api/contact", in, nil)
}
