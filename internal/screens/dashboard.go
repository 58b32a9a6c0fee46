package screens

import (
	"context"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/model"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	msgFetchFailed      = "Failed to fetch data"
	msgTaskUpdateFailed = "Failed to update task"
	msgTaskDeleteFailed = "Failed to delete task"
)

// Dashboard lists the user's tasks with the tab, search, category and priority filters.
type Dashboard struct {
	screen
	api API

	tasks      []model.Task
	categories []model.Category
	criteria   filter.Criteria

	// pendingDelete is the task awaiting confirmation, 0 when no dialog is open.
	pendingDelete int64
}

func NewDashboard(a API, opts ...Option) *Dashboard {
	d := &Dashboard{api: a}
	d.init("dashboard", opts)
	return d
}

// Mount loads tasks and categories in parallel. Whichever finishes first is kept even when
// the other fails.
func (d *Dashboard) Mount(ctx context.Context) {
	gen := d.attach()
	d.fetch(ctx, gen)
}

func (d *Dashboard) Refresh(ctx context.Context) {
	d.fetch(ctx, d.token())
}

func (d *Dashboard) fetch(ctx context.Context, gen uint64) {
	var (
		tasks      []model.Task
		categories []model.Category
		g          errgroup.Group
	)
	g.Go(func() error {
		ts, err := d.api.ListTasks(ctx)
		if err == nil {
			tasks = ts
		}
		return err
	})
	g.Go(func() error {
		cs, err := d.api.ListCategories(ctx)
		if err == nil {
			categories = cs
		}
		return err
	})
	err := g.Wait()

	d.apply(gen, func() {
		d.loading = false
		if tasks != nil {
			d.tasks = tasks
		}
		if categories != nil {
			d.categories = categories
		}
		if err != nil {
			d.log.Debug(msgFetchFailed, zap.Error(err))
			d.notices.Error(msgFetchFailed)
		}
	})
}

// Tasks returns a copy of every loaded task.
func (d *Dashboard) Tasks() []model.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Task{}, d.tasks...)
}

func (d *Dashboard) Categories() []model.Category {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]model.Category{}, d.categories...)
}

// Visible applies the current criteria.
func (d *Dashboard) Visible() []model.Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	return filter.Tasks(d.tasks, d.criteria)
}

// Stats summarizes every loaded task regardless of the filters.
func (d *Dashboard) Stats() filter.Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return filter.Summarize(d.tasks)
}

func (d *Dashboard) DueInfo(t model.Task) *filter.DueInfo {
	return filter.Due(t.DueDate.Std(), d.now())
}

func (d *Dashboard) Criteria() filter.Criteria {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.criteria
}

func (d *Dashboard) SetSearch(q string) {
	d.mu.Lock()
	d.criteria.Search = q
	d.mu.Unlock()
}

func (d *Dashboard) SetTab(t filter.Tab) {
	d.mu.Lock()
	d.criteria.Tab = t
	d.mu.Unlock()
}

// SetCategory filters on one category; filter.AllCategories removes the filter.
func (d *Dashboard) SetCategory(id int64) {
	d.mu.Lock()
	d.criteria.Category = id
	d.mu.Unlock()
}

// SetPriority filters on one priority; the empty priority removes the filter.
func (d *Dashboard) SetPriority(p model.Priority) {
	d.mu.Lock()
	d.criteria.Priority = p
	d.mu.Unlock()
}

// ToggleComplete flips a task's completion on the server, then patches the local copy with
// the same change.
func (d *Dashboard) ToggleComplete(ctx context.Context, id int64) bool {
	gen := d.token()
	prev, ok := d.find(id)
	if !ok {
		return false
	}
	change := model.ToggleCompletion(prev)
	if _, err := d.api.UpdateTask(ctx, id, change); err != nil {
		d.fail(gen, msgTaskUpdateFailed, err)
		return false
	}
	return d.apply(gen, func() {
		for i := range d.tasks {
			if d.tasks[i].ID == id {
				d.tasks[i] = model.ApplyTaskChange(d.tasks[i], change, d.now())
			}
		}
	})
}

// RequestDelete opens the confirmation for a task.
func (d *Dashboard) RequestDelete(id int64) {
	d.mu.Lock()
	d.pendingDelete = id
	d.mu.Unlock()
}

func (d *Dashboard) CancelDelete() {
	d.mu.Lock()
	d.pendingDelete = 0
	d.mu.Unlock()
}

// PendingDelete returns the task awaiting confirmation.
func (d *Dashboard) PendingDelete() (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pendingDelete, d.pendingDelete != 0
}

// ConfirmDelete deletes the pending task and drops it from the local list.
func (d *Dashboard) ConfirmDelete(ctx context.Context) bool {
	gen := d.token()
	id, ok := d.PendingDelete()
	if !ok {
		return false
	}
	d.CancelDelete()
	if err := d.api.DeleteTask(ctx, id); err != nil {
		d.fail(gen, msgTaskDeleteFailed, err)
		return false
	}
	return d.apply(gen, func() {
		kept := d.tasks[:0:0]
		for _, t := range d.tasks {
			if t.ID != id {
				kept = append(kept, t)
			}
		}
		d.tasks = kept
	})
}

func (d *Dashboard) find(id int64) (model.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return model.Task{}, false
}
