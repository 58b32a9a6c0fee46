// Package form validates typed input forms and tracks their field state.
//
// Each form is a struct with validator tags (first failing tag wins per field) plus a message
// table. Cross-field and clock-dependent rules are struct-level functions over the whole form.
package form

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

// Errors maps a field name (the form's json name) to the message of its first failing rule.
type Errors map[string]string

func (e Errors) Has(field string) bool {
	_, ok := e[field]
	return ok
}

// Messages maps "field.tag" (or just "tag") to a message. Messages may use one %s for the
// rule parameter.
type Messages map[string]string

// Form is implemented by every typed form.
type Form interface {
	Messages() Messages
}

var (
	looseEmailRe = regexp.MustCompile(`\S+@\S+\.\S+`)
	rgbHexRe     = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)
)

// defaultMessages covers tags a form does not override. %[1]s is the field label, %[2]s the parameter.
var defaultMessages = Messages{
	"notblank":   "%[1]s is required",
	"min":        "%[1]s must be at least %[2]s characters",
	"max":        "%[1]s must be at most %[2]s characters",
	"looseemail": "Enter a valid email",
	"rgbhex":     "Invalid color format",
	"oneof":      "Invalid %[1]s",
	"notpast":    "Due date cannot be in the past",
	"matches":    "%[1]s does not match",
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func engine() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(jsonName)
		_ = v.RegisterValidation("notblank", validators.NotBlank)
		_ = v.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
			return looseEmailRe.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("rgbhex", func(fl validator.FieldLevel) bool {
			return rgbHexRe.MatchString(fl.Field().String())
		})
		registerStructRules(v)
		validate = v
	})
	return validate
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return f.Name
	}
	return name
}

type clockKey struct{}

// WithClock sets the clock temporal rules read from ctx.
func WithClock(ctx context.Context, now func() time.Time) context.Context {
	return context.WithValue(ctx, clockKey{}, now)
}

// Now returns the clock stored by WithClock, or the wall clock.
func Now(ctx context.Context) time.Time {
	if ctx != nil {
		if fn, ok := ctx.Value(clockKey{}).(func() time.Time); ok && fn != nil {
			return fn()
		}
	}
	return time.Now()
}

// Validate evaluates every rule of f and returns field -> first failing message. The map is
// empty (not nil) when f is valid.
func Validate(ctx context.Context, f Form) Errors {
	if ctx == nil {
		ctx = context.Background()
	}
	out := Errors{}
	err := engine().StructCtx(ctx, f)
	if err == nil {
		return out
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		out["_form"] = err.Error()
		return out
	}
	msgs := f.Messages()
	for _, fe := range verrs {
		field := fe.Field()
		if out.Has(field) {
			continue
		}
		out[field] = message(msgs, field, fe.Tag(), fe.Param())
	}
	return out
}

func message(msgs Messages, field, tag, param string) string {
	tmpl, ok := msgs[field+"."+tag]
	if ok {
		if strings.Contains(tmpl, "%") {
			return fmt.Sprintf(tmpl, param)
		}
		return tmpl
	}
	if tmpl, ok = msgs[tag]; !ok {
		tmpl, ok = defaultMessages[tag]
	}
	if !ok {
		return fmt.Sprintf("%s is invalid", label(field))
	}
	if strings.Contains(tmpl, "%[") {
		return fmt.Sprintf(tmpl, label(field), param)
	}
	return tmpl
}

// label turns "confirm_password" into "Confirm password".
func label(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fieldNames lists the json names of f's fields in declaration order.
func fieldNames(f any) []string {
	t := reflect.TypeOf(f)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	out := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if n := jsonName(sf); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// fieldValues maps json names to the current field values.
func fieldValues(f any) map[string]any {
	v := reflect.ValueOf(f)
	for v.Kind() == reflect.Pointer {
		v = v.Elem()
	}
	t := v.Type()
	out := make(map[string]any, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		if n := jsonName(sf); n != "" {
			out[n] = v.Field(i).Interface()
		}
	}
	return out
}
