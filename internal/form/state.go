package form

import (
	"context"
	"reflect"

	"taskdesk-cli/internal/api"
)

// State tracks a form's values, which fields were touched and the local and server errors.
// It is owned by a single screen and is not safe for concurrent use.
type State[F Form] struct {
	Values F

	touched map[string]bool
	local   Errors
	server  Errors
}

func NewState[F Form](ctx context.Context, initial F) *State[F] {
	s := &State[F]{Values: initial, touched: map[string]bool{}, server: Errors{}}
	s.local = Validate(ctx, initial)
	return s
}

// Change applies edit and revalidates. Server errors on fields whose value changed are dropped.
func (s *State[F]) Change(ctx context.Context, edit func(*F)) {
	before := fieldValues(s.Values)
	edit(&s.Values)
	after := fieldValues(s.Values)
	for name, v := range after {
		if !reflect.DeepEqual(before[name], v) {
			delete(s.server, name)
		}
	}
	s.local = Validate(ctx, s.Values)
}

// Blur marks a field as touched so its error becomes visible.
func (s *State[F]) Blur(field string) {
	s.touched[field] = true
}

func (s *State[F]) Touched(field string) bool { return s.touched[field] }

// Submit touches every field and validates. It returns false while any rule fails.
func (s *State[F]) Submit(ctx context.Context) bool {
	for _, name := range fieldNames(s.Values) {
		s.touched[name] = true
	}
	s.server = Errors{}
	s.local = Validate(ctx, s.Values)
	return len(s.local) == 0
}

// MergeServer folds field errors from a rejected submit into the error map. It reports whether
// err carried any; other failures are left to the caller (usually a notification).
func (s *State[F]) MergeServer(err error) bool {
	fields := api.FieldErrors(err)
	if len(fields) == 0 {
		return false
	}
	for k, v := range fields {
		s.server[k] = v
		s.touched[k] = true
	}
	return true
}

// Errors returns every current error. A local rule failure wins over a server message for the same field.
func (s *State[F]) Errors() Errors {
	out := make(Errors, len(s.local)+len(s.server))
	for k, v := range s.server {
		out[k] = v
	}
	for k, v := range s.local {
		out[k] = v
	}
	return out
}

// Visible returns errors for touched fields only.
func (s *State[F]) Visible() Errors {
	out := Errors{}
	for k, v := range s.Errors() {
		if s.touched[k] {
			out[k] = v
		}
	}
	return out
}

func (s *State[F]) Valid() bool { return len(s.local) == 0 && len(s.server) == 0 }

// Reset replaces the values and forgets touched fields and server errors.
func (s *State[F]) Reset(ctx context.Context, values F) {
	s.Values = values
	s.touched = map[string]bool{}
	s.server = Errors{}
	s.local = Validate(ctx, values)
}
