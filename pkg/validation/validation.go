// -----------------------------------------------------------------------------
// Validation Package
// -----------------------------------------------------------------------------
// Request validation on top of go-playground/validator:
//
//   - Struct validates create bodies through `validate` struct tags
//   - PatchSchema validates partial-update bodies (ordered sqlfrag.Fields),
//     where there is no struct: each allowed key declares its JSON kind and
//     a validator tag
//
// Both report failures as *Result, keyed by the JSON field name.
// -----------------------------------------------------------------------------

package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	equityPattern = regexp.MustCompile(`^(0(\.\d+)?|1(\.0+)?)$`)
)

// Validator returns the shared validator instance.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})

		// equity: decimal string between 0 and 1 inclusive.
		_ = v.RegisterValidation("equity", func(fl validator.FieldLevel) bool {
			return equityPattern.MatchString(fl.Field().String())
		})

		validate = v
	})
	return validate
}

// Result collects per-field messages. A Result with errors is an error.
type Result struct {
	errors map[string][]string
}

// NewResult returns an empty Result.
func NewResult() *Result {
	return &Result{errors: make(map[string][]string)}
}

// AddError records message for field.
func (r *Result) AddError(field, message string) {
	r.errors[field] = append(r.errors[field], message)
}

// HasErrors reports whether any message was recorded.
func (r *Result) HasErrors() bool {
	return len(r.errors) > 0
}

// Errors returns the messages by field.
func (r *Result) Errors() map[string][]string {
	return r.errors
}

// Fields flattens the result to one message per field.
func (r *Result) Fields() map[string]string {
	out := make(map[string]string, len(r.errors))
	for f, msgs := range r.errors {
		out[f] = strings.Join(msgs, "; ")
	}
	return out
}

func (r *Result) Error() string {
	fields := make([]string, 0, len(r.errors))
	for f := range r.errors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + strings.Join(r.errors[f], "; ")
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// err returns r as an error, or nil when it is empty.
func (r *Result) err() error {
	if r.HasErrors() {
		return r
	}
	return nil
}

// Struct validates s by its `validate` tags.
func Struct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate: %w", err)
	}

	r := NewResult()
	for _, fe := range verrs {
		r.AddError(fe.Field(), message(fe.Tag(), fe.Param()))
	}
	return r
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + param
	case "max":
		return "must be at most " + param
	case "email":
		return "must be a valid email"
	case "url":
		return "must be a valid URL"
	case "lowercase":
		return "must be lowercase"
	case "equity":
		return "must be a decimal between 0 and 1"
	default:
		return "failed " + tag
	}
}
