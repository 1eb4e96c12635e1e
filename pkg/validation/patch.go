package validation

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"

	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

// Kind is the JSON type a patch field must have.
type Kind int

const (
	KindString Kind = iota
	KindInteger
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "an integer"
	case KindBoolean:
		return "a boolean"
	default:
		return "a string"
	}
}

// FieldRule describes one updatable field.
type FieldRule struct {
	Kind     Kind
	Tag      string
	Nullable bool
}

// PatchSchema lists the keys a partial update may carry. Keys outside the
// schema are rejected, which is what keeps client input out of the column
// list that sqlfrag.PartialUpdate quotes verbatim.
type PatchSchema map[string]FieldRule

// Validate checks every field. Integral float64 values of Integer fields are
// normalised to int64 in place.
func (s PatchSchema) Validate(fields sqlfrag.Fields) error {
	r := NewResult()
	v := Validator()

	for i, f := range fields {
		rule, ok := s[f.Key]
		if !ok {
			r.AddError(f.Key, "is not allowed")
			continue
		}

		if f.Value == nil {
			if !rule.Nullable {
				r.AddError(f.Key, "must not be null")
			}
			continue
		}

		value, msg := coerce(rule.Kind, f.Value)
		if msg != "" {
			r.AddError(f.Key, msg)
			continue
		}
		fields[i].Value = value

		if rule.Tag == "" {
			continue
		}
		if err := v.Var(value, rule.Tag); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
				r.AddError(f.Key, message(verrs[0].Tag(), verrs[0].Param()))
			} else {
				r.AddError(f.Key, err.Error())
			}
		}
	}
	return r.err()
}

// coerce converts value to the Go type of kind. Integers must fit a
// PostgreSQL INTEGER column. A non-empty message describes the rejection.
func coerce(kind Kind, value any) (any, string) {
	switch kind {
	case KindString:
		if s, ok := value.(string); ok {
			return s, ""
		}
	case KindBoolean:
		if b, ok := value.(bool); ok {
			return b, ""
		}
	case KindInteger:
		var i int64
		switch n := value.(type) {
		case int64:
			i = n
		case int:
			i = int64(n)
		case float64:
			if n != math.Trunc(n) || math.IsInf(n, 0) {
				return nil, "must be " + kind.String()
			}
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, int4RangeMessage
			}
			i = int64(n)
		default:
			return nil, "must be " + kind.String()
		}
		if i < math.MinInt32 || i > math.MaxInt32 {
			return nil, int4RangeMessage
		}
		return i, ""
	}
	return nil, "must be " + kind.String()
}

var int4RangeMessage = fmt.Sprintf("must be between %d and %d", math.MinInt32, math.MaxInt32)
