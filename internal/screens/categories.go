package screens

import (
	"context"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/form"
	"taskdesk-cli/internal/model"

	"go.uber.org/zap"
)

const (
	msgCategoryUpdated      = "Category updated successfully!"
	msgCategoryCreated      = "Category created successfully!"
	msgCategorySaveFailed   = "Failed to save category"
	msgCategoryDeleted      = "Category deleted successfully!"
	msgCategoryHasTasks     = "Cannot delete category with assigned tasks"
	msgCategoryDeleteFailed = "Failed to delete category"
)

// Categories manages the user's categories. Create and edit share one dialog.
type Categories struct {
	screen
	api API

	categories []model.Category

	dialogOpen bool

	// editing is the category the dialog edits; 0 means the dialog creates one.
	editing int64
	form    *form.State[form.CategoryForm]
}

func NewCategories(a API, opts ...Option) *Categories {
	c := &Categories{api: a}
	c.init("categories", opts)
	c.form = form.NewState(context.Background(), form.NewCategoryForm())
	return c
}

func (c *Categories) Mount(ctx context.Context) {
	gen := c.attach()
	c.fetch(ctx, gen)
}

func (c *Categories) fetch(ctx context.Context, gen uint64) {
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

func (c *Categories) List() []model.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.Category{}, c.categories...)
}

// OpenCreate opens the dialog with the default color.
func (c *Categories) OpenCreate(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dialogOpen = true
	c.editing = 0
	c.form.Reset(ctx, form.NewCategoryForm())
}

// OpenEdit opens the dialog prefilled with the category. Unknown ids are ignored.
func (c *Categories) OpenEdit(ctx context.Context, id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range c.categories {
		if cat.ID == id {
			c.dialogOpen = true
			c.editing = id
			c.form.Reset(ctx, form.CategoryFormFor(cat))
			return true
		}
	}
	return false
}

func (c *Categories) CloseDialog() {
	c.mu.Lock()
	c.dialogOpen = false
	c.editing = 0
	c.mu.Unlock()
}

// Dialog reports whether the dialog is open and which category it edits (0 for a new one).
func (c *Categories) Dialog() (open bool, editing int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dialogOpen, c.editing
}

func (c *Categories) Values() form.CategoryForm {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Values
}

func (c *Categories) Change(ctx context.Context, edit func(*form.CategoryForm)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.form.Change(ctx, edit)
}

func (c *Categories) Errors() form.Errors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.form.Visible()
}

// Save creates or updates the category, closes the dialog and refetches the list.
func (c *Categories) Save(ctx context.Context) bool {
	gen := c.token()
	c.mu.Lock()
	ok := c.dialogOpen && c.form.Submit(ctx)
	editing := c.editing
	in := c.form.Values.Input()
	c.mu.Unlock()
	if !ok {
		return false
	}

	var err error
	msg := msgCategoryCreated
	if editing != 0 {
		_, err = c.api.UpdateCategory(ctx, editing, in)
		msg = msgCategoryUpdated
	} else {
		_, err = c.api.CreateCategory(ctx, in)
	}
	if err != nil {
		c.apply(gen, func() {
			if !c.form.MergeServer(err) {
				c.log.Debug(msgCategorySaveFailed, zap.Error(err))
				c.notices.Error(msgCategorySaveFailed)
			}
		})
		return false
	}
	if !c.apply(gen, func() {
		c.notices.Success(msg)
		c.dialogOpen = false
		c.editing = 0
	}) {
		return false
	}
	c.fetch(ctx, gen)
	return true
}

// Delete removes a category. A category that still has tasks is rejected by the server with
// a conflict, reported with its own message.
func (c *Categories) Delete(ctx context.Context, id int64) bool {
	gen := c.token()
	if err := c.api.DeleteCategory(ctx, id); err != nil {
		msg := msgCategoryDeleteFailed
		if api.IsConflict(err) {
			msg = msgCategoryHasTasks
		}
		c.fail(gen, msg, err)
		return false
	}
	if !c.apply(gen, func() { c.notices.Success(msgCategoryDeleted) }) {
		return false
	}
	c.fetch(ctx, gen)
	return true
}
