package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"taskdesk-cli/internal/api"
	"taskdesk-cli/internal/form"
)

type notFoundError struct {
	kind string
	id   int64
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %d", e.kind, e.id)
}

func errNotFound(kind string, id int64) error {
	return notFoundError{kind: kind, id: id}
}

// invalidError carries the field -> message map of a form that failed its rules.
type invalidError struct {
	fields form.Errors
}

func (e *invalidError) Error() string {
	keys := make([]string, 0, len(e.fields))
	for k := range e.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.fields[k])
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

// invalidFields returns the field errors of a local validation failure or of a 400 carrying field errors.
func invalidFields(err error) map[string]string {
	var inv *invalidError
	if errors.As(err, &inv) {
		return inv.fields
	}
	return api.FieldErrors(err)
}

func parseID(kind, s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id: %q", kind, s)
	}
	return id, nil
}

// check runs the form rules and reports every failing field at once.
func check(ctx context.Context, f form.Form) error {
	if errs := form.Validate(ctx, f); len(errs) > 0 {
		return &invalidError{fields: errs}
	}
	return nil
}
