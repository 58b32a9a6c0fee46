package screens

import (
	"context"

	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	msgCategoriesLoadFailed = "Failed to load categories"
	msgTaskCreated          = "Task created successfully!"
	msgTaskCreateFailed     = "Failed to create task"
	msgTaskEditLoadFailed   = "Failed to load task data. The task may not exist or you may not have permission to edit it."
	msgTaskUpdated          = "Task updated successfully"
)

// TaskCreate is the new-task form.
type TaskCreate struct {
	screen
	api API

	categories []model.Category
	form       *form.State[form.TaskCreateForm]
}

func NewTaskCreate(a API, opts ...Option) *TaskCreate {
	c := &TaskCreate{api: a}
	c.init("task-create", opts)
	c.form = form.NewState(c.validation(context.Background()), form.NewTaskCreateForm())
	return c
}

func (c *TaskCreate) validation(ctx context.Context) context.Context {
	return form.WithClock(ctx, c.now)
}

// Mount resets the form and loads the category choices.
func (c *TaskCreate) Mount(ctx context.Context) {
	gen := c.attach()
	c.mu.Lock()
	c.form.Reset(c.validation(ctx), form.NewTaskCreateForm())
	c.mu.Unlock()

	cs, err := c.api.ListCategories(ctx)
	c.apply(gen, func() {
		c.loading = false
		if err != nil {
			c.log.Debug(msgCategoriesLoadFailed, zap.Error(err))
			c.notices.Error(msgCategoriesLoadFailed)
			return
		}
		c.categories = cs
	})
}

func (c *TaskCreate) Categories() []model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Category{}, c.categories...)
}

// Values returns the current form values.
func (c *TaskCreate) Values() form.TaskCreateForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Values
}

func (c *TaskCreate) Change(ctx context.Context, edit func(*form.TaskCreateForm)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Change(c.validation(ctx), edit)
}

func (c *TaskCreate) Blur(field string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Blur(field)
}

// Errors returns the errors visible on touched fields.
func (c *TaskCreate) Errors() form.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Visible()
}

// Submit validates and creates the task. Server field errors land in Errors; on success the
// view returns to the dashboard.
func (c *TaskCreate) Submit(ctx context.Context) (Nav, bool) {
	gen := c.token()
	c.mu.Lock()
	ok := c.form.Submit(c.validation(ctx))
	payload := c.form.Values.Payload()
	c.mu.Unlock()
	if !ok {
		return Nav{}, false
	}

	if _, err := c.api.CreateTask(ctx, payload); err != nil {
		c.apply(gen, func() {
			if !c.form.MergeServer(err) {
				c.log.Debug(msgTaskCreateFailed, zap.Error(err))
				c.notices.Error(msgTaskCreateFailed)
			}
		})
		return Nav{}, false
	}
	if !c.apply(gen, func() { c.notices.Success(msgTaskCreated) }) {
		return Nav{}, false
	}
	return Nav{Route: guard.RouteDashboard}, true
}

// TaskEdit edits an existing task. The form is prefilled once the task loads.
type TaskEdit struct {
	screen
	api API
	id  int64

	categories []model.Category
	form       *form.State[form.TaskEditForm]
}

func NewTaskEdit(a API, id int64, opts ...Option) *TaskEdit {
	e := &TaskEdit{api: a, id: id}
	e.init("task-edit", opts)
	e.form = form.NewState(e.validation(context.Background()), form.TaskEditForm{Priority: model.PriorityMedium})
	return e
}

func (e *TaskEdit) ID() int64 { return e.id }

func (e *TaskEdit) validation(ctx context.Context) context.Context {
	return form.WithClock(ctx, e.now)
}

// Mount loads the task and the categories. If either fails the screen shows a page error.
func (e *TaskEdit) Mount(ctx context.Context) {
	gen := e.attach()
	var (
		task       model.Task
		categories []model.Category
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		t, err := e.api.GetTask(gctx, e.id)
		task = t
		return err
	})
	g.Go(func() error {
		cs, err := e.api.ListCategories(gctx)
		categories = cs
		return err
	})
	err := g.Wait()

	e.apply(gen, func() {
		e.loading = false
		if err != nil {
			e.log.Debug("load task for edit", zap.Int64("id", e.id), zap.Error(err))
			e.pageErr = &PageError{Message: msgTaskEditLoadFailed, Back: guard.RouteDashboard}
			return
		}
		e.categories = categories
		e.form.Reset(e.validation(ctx), form.EditFormFor(task))
	})
}

func (e *TaskEdit) Categories() []model.Category {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.Category{}, e.categories...)
}

func (e *TaskEdit) Values() form.TaskEditForm {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.Values
}

func (e *TaskEdit) Change(ctx context.Context, edit func(*form.TaskEditForm)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.Change(e.validation(ctx), edit)
}

func (e *TaskEdit) Blur(field string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.form.Blur(field)
}

func (e *TaskEdit) Errors() form.Errors {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.form.Visible()
}

// Submit saves every field; on success the view goes to the task's detail page.
func (e *TaskEdit) Submit(ctx context.Context) (Nav, bool) {
	gen := e.token()
	e.mu.Lock()
	ok := e.form.Submit(e.validation(ctx))
	change := e.form.Values.Change()
	e.mu.Unlock()
	if !ok {
		return Nav{}, false
	}

	if _, err := e.api.UpdateTask(ctx, e.id, change); err != nil {
		e.apply(gen, func() {
			if !e.form.MergeServer(err) {
				e.log.Debug(msgTaskUpdateFailed, zap.Error(err))
				e.notices.Error(msgTaskUpdateFailed)
			}
		})
		return Nav{}, false
	}
	if !e.apply(gen, func() { e.notices.Success(msgTaskUpdated) }) {
		return Nav{}, false
	}
	return Nav{Route: guard.RouteTaskDetail, ID: e.id}, true
}
