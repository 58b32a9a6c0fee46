package model

import (
	"encoding/json"
	"time"
)

// TaskChange is a partial task update. Nil fields are left untouched.
//
// It is both the PUT /api/tasks/:id body and the input of ApplyTaskChange, so the
// optimistic local copy and the server see the same change-set.
type TaskChange struct {
	Title       *string
	Description *string
	Notes       *string
	Priority    *Priority
	Completed   *bool

	CategoryID    *int64
	ClearCategory bool

	DueDate      *Time
	ClearDueDate bool
}

func (c TaskChange) Empty() bool {
	return c.Title == nil && c.Description == nil && c.Notes == nil && c.Priority == nil &&
		c.Completed == nil && c.CategoryID == nil && !c.ClearCategory && c.DueDate == nil && !c.ClearDueDate
}

func (c TaskChange) MarshalJSON() ([]byte, error) {
	out := map[string]any{}
	if c.Title != nil {
		out["title"] = *c.Title
	}
	if c.Description != nil {
		out["description"] = *c.Description
	}
	if c.Notes != nil {
		out["notes"] = *c.Notes
	}
	if c.Priority != nil {
		out["priority"] = *c.Priority
	}
	if c.Completed != nil {
		out["completed"] = *c.Completed
	}
	switch {
	case c.ClearCategory:
		out["category_id"] = nil
	case c.CategoryID != nil:
		out["category_id"] = *c.CategoryID
	}
	switch {
	case c.ClearDueDate:
		out["due_date"] = nil
	case c.DueDate != nil:
		out["due_date"] = *c.DueDate
	}
	return json.Marshal(out)
}

func (c *TaskChange) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*c = TaskChange{}
	isNull := func(v json.RawMessage) bool { return string(v) == "null" }
	for k, v := range raw {
		var err error
		switch k {
		case "title":
			c.Title = new(string)
			err = json.Unmarshal(v, c.Title)
		case "description":
			c.Description = new(string)
			if !isNull(v) {
				err = json.Unmarshal(v, c.Description)
			}
		case "notes":
			c.Notes = new(string)
			if !isNull(v) {
				err = json.Unmarshal(v, c.Notes)
			}
		case "priority":
			c.Priority = new(Priority)
			err = json.Unmarshal(v, c.Priority)
		case "completed":
			c.Completed = new(bool)
			err = json.Unmarshal(v, c.Completed)
		case "category_id":
			if isNull(v) {
				c.ClearCategory = true
				continue
			}
			c.CategoryID = new(int64)
			err = json.Unmarshal(v, c.CategoryID)
		case "due_date":
			if isNull(v) {
				c.ClearDueDate = true
				continue
			}
			c.DueDate = new(Time)
			err = json.Unmarshal(v, c.DueDate)
			if err == nil && c.DueDate.IsZero() {
				// An empty string leaves the due date unchanged.
				c.DueDate = nil
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// ApplyTaskChange returns prev with the change applied.
//
// It is the only place that flips completion locally and keeps the invariant
// CompletedAt != nil iff Completed: completing an open task stamps now, reopening clears it.
func ApplyTaskChange(prev Task, c TaskChange, now time.Time) Task {
	next := prev
	if c.Title != nil {
		next.Title = *c.Title
	}
	if c.Description != nil {
		next.Description = *c.Description
	}
	if c.Notes != nil {
		next.Notes = *c.Notes
	}
	if c.Priority != nil && c.Priority.Valid() {
		next.Priority = *c.Priority
	}
	switch {
	case c.ClearCategory:
		next.CategoryID = nil
		next.Category = nil
	case c.CategoryID != nil:
		id := *c.CategoryID
		next.CategoryID = &id
		if next.Category != nil && next.Category.ID != id {
			next.Category = nil
		}
	}
	switch {
	case c.ClearDueDate:
		next.DueDate = nil
	case c.DueDate != nil:
		d := *c.DueDate
		next.DueDate = &d
	}
	if c.Completed != nil {
		next.Completed = *c.Completed
	}
	switch {
	case next.Completed && (!prev.Completed || prev.CompletedAt == nil):
		next.CompletedAt = TimePtr(now)
	case !next.Completed:
		next.CompletedAt = nil
	}
	if !c.Empty() {
		next.UpdatedAt = NewTime(now)
	}
	return next
}

// ToggleCompletion builds the change that flips a task's completion state.
func ToggleCompletion(t Task) TaskChange {
	v := !t.Completed
	return TaskChange{Completed: &v}
}

// UserChange is a partial user update (admin role toggle or profile edit).
type UserChange struct {
	Username *string `json:"username,omitempty"`
	Email    *string `json:"email,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

func ApplyUserChange(prev User, c UserChange) User {
	next := prev
	if c.Username != nil {
		next.Username = *c.Username
	}
	if c.Email != nil {
		next.Email = *c.Email
	}
	if c.IsAdmin != nil {
		next.IsAdmin = *c.IsAdmin
	}
	return next
}

// MarkRead is idempotent.
func MarkRead(m ContactMessage) ContactMessage {
	m.IsRead = true
	return m
}
