package sqlfrag

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	errNotNumber  = errors.New("must be a number")
	errNotInteger = errors.New("must be a whole number")
	errNull       = errors.New("must not be null")
)

// Exact binds the raw value unchanged.
func Exact(raw any) (any, bool, error) {
	if raw == nil {
		return nil, false, errNull
	}
	return raw, true, nil
}

// Substring wraps the value in % wildcards for ILIKE/LIKE matching.
// Non-string scalars are formatted with their default representation.
func Substring(raw any) (any, bool, error) {
	switch v := raw.(type) {
	case nil:
		return nil, false, errNull
	case string:
		return "%" + v + "%", true, nil
	default:
		return "%" + fmt.Sprint(v) + "%", true, nil
	}
}

// WhenTrue emits a literal predicate only for the boolean true. Anything
// else, including the string "true", leaves the predicate out.
func WhenTrue(raw any) (any, bool, error) {
	b, ok := raw.(bool)
	return nil, ok && b, nil
}

// Numeric coerces numbers and numeric strings. Integral values come out as
// int64, fractional ones as float64. Booleans, nil, NaN, infinities and
// non-numeric strings are rejected.
func Numeric(raw any) (any, bool, error) {
	n, err := toNumber(raw)
	if err != nil {
		return nil, false, err
	}
	return n, true, nil
}

// Integer returns a transform that accepts whole numbers (or strings of
// them) between lo and hi inclusive and binds them as int64. Fractional
// values are rejected rather than truncated.
//
// Example:
//
//	sqlfrag.Compare("minSalary", "salary", ">=", sqlfrag.Integer(0, math.MaxInt32))
func Integer(lo, hi int64) Transform {
	return func(raw any) (any, bool, error) {
		n, err := toNumber(raw)
		if err != nil {
			return nil, false, err
		}

		var i int64
		switch v := n.(type) {
		case int64:
			i = v
		case float64:
			if v != math.Trunc(v) {
				return nil, false, errNotInteger
			}
			if v < float64(lo) || v > float64(hi) {
				return nil, false, outOfRange(lo, hi)
			}
			i = int64(v)
		}
		if i < lo || i > hi {
			return nil, false, outOfRange(lo, hi)
		}
		return i, true, nil
	}
}

func outOfRange(lo, hi int64) error {
	return fmt.Errorf("must be between %d and %d", lo, hi)
}

// Int4 accepts values that fit a PostgreSQL INTEGER column.
var Int4 = Integer(math.MinInt32, math.MaxInt32)

func toNumber(raw any) (any, error) {
	switch v := raw.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint:
		if uint64(v) > math.MaxInt64 {
			return nil, errNotNumber
		}
		return int64(v), nil
	case uint64:
		if v > math.MaxInt64 {
			return nil, errNotNumber
		}
		return int64(v), nil
	case float32:
		return finite(float64(v))
	case float64:
		return finite(v)
	case json.Number:
		return parseNumber(v.String())
	case string:
		return parseNumber(v)
	default:
		return nil, errNotNumber
	}
}

func parseNumber(s string) (any, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, errNotNumber
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errNotNumber
	}
	return finite(f)
}

func finite(f float64) (any, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, errNotNumber
	}
	return f, nil
}
