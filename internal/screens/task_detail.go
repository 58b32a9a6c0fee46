package screens

import (
	"context"

	"taskdesk-cli/internal/filter"
	"taskdesk-cli/internal/guard"
	"taskdesk-cli/internal/model"

	"go.uber.org/zap"
)

const (
	msgTaskLoadFailed   = "Failed to load task details"
	msgTaskDeleted      = "Task deleted successfully"
	msgTaskReopened     = "Task marked as incomplete"
	msgTaskCompleted    = "Task marked as complete"
	msgTaskStatusFailed = "Failed to update task status"
	msgNoteSaved        = "Note updated successfully"
	msgNoteFailed       = "Failed to update note"
)

// TaskDetail shows one task with its notes.
type TaskDetail struct {
	screen
	api API
	id  int64

	task          *model.Task
	confirmDelete bool
}

func NewTaskDetail(a API, id int64, opts ...Option) *TaskDetail {
	d := &TaskDetail{api: a, id: id}
	d.init("task-detail", opts)
	return d
}

func (d *TaskDetail) ID() int64 { return d.id }

// Mount loads the task. Any failure, including a missing or foreign task, becomes a page
// error pointing back to the dashboard.
func (d *TaskDetail) Mount(ctx context.Context) {
	gen := d.attach()
	t, err := d.api.GetTask(ctx, d.id)
	d.apply(gen, func() {
		d.loading = false
		if err != nil {
			d.log.Debug(msgTaskLoadFailed, zap.Int64("id", d.id), zap.Error(err))
			d.pageErr = &PageError{Message: msgTaskLoadFailed, Back: guard.RouteDashboard}
			return
		}
		d.task = &t
	})
}

// Task returns a copy of the loaded task.
func (d *TaskDetail) Task() (model.Task, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.task == nil {
		return model.Task{}, false
	}
	return *d.task, true
}

func (d *TaskDetail) DueInfo() *filter.DueInfo {
	t, ok := d.Task()
	if !ok {
		return nil
	}
	return filter.Due(t.DueDate.Std(), d.now())
}

// ToggleComplete flips completion and patches the local copy with the same change.
func (d *TaskDetail) ToggleComplete(ctx context.Context) bool {
	t, ok := d.Task()
	if !ok {
		return false
	}
	return d.patch(ctx, model.ToggleCompletion(t), func(next model.Task) string {
		if next.Completed {
			return msgTaskCompleted
		}
		return msgTaskReopened
	}, msgTaskStatusFailed)
}

// SaveNotes replaces the task's notes.
func (d *TaskDetail) SaveNotes(ctx context.Context, notes string) bool {
	if _, ok := d.Task(); !ok {
		return false
	}
	return d.patch(ctx, model.TaskChange{Notes: &notes}, func(model.Task) string {
		return msgNoteSaved
	}, msgNoteFailed)
}

func (d *TaskDetail) patch(ctx context.Context, change model.TaskChange, okMsg func(model.Task) string, failMsg string) bool {
	gen := d.token()
	if _, err := d.api.UpdateTask(ctx, d.id, change); err != nil {
		d.fail(gen, failMsg, err)
		return false
	}
	return d.apply(gen, func() {
		if d.task == nil {
			return
		}
		next := model.ApplyTaskChange(*d.task, change, d.now())
		d.task = &next
		d.notices.Success(okMsg(next))
	})
}

func (d *TaskDetail) RequestDelete() {
	d.mu.Lock()
	d.confirmDelete = true
	d.mu.Unlock()
}

func (d *TaskDetail) CancelDelete() {
	d.mu.Lock()
	d.confirmDelete = false
	d.mu.Unlock()
}

func (d *TaskDetail) ConfirmingDelete() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.confirmDelete
}

// ConfirmDelete deletes the task; on success the view goes back to the dashboard.
func (d *TaskDetail) ConfirmDelete(ctx context.Context) (Nav, bool) {
	gen := d.token()
	if !d.ConfirmingDelete() {
		return Nav{}, false
	}
	d.CancelDelete()
	if err := d.api.DeleteTask(ctx, d.id); err != nil {
		d.fail(gen, msgTaskDeleteFailed, err)
		return Nav{}, false
	}
	if !d.apply(gen, func() { d.notices.Success(msgTaskDeleted) }) {
		return Nav{}, false
	}
	return Nav{Route: guard.RouteDashboard}, true
}

// Edit is the navigation to the edit form for this task.
func (d *TaskDetail) Edit() Nav {
	return Nav{Route: guard.RouteTaskEdit, ID: d.id}
}
