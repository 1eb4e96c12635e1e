package sqlfrag

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// -----------------------------------------------------------------------------
// Field Maps
// -----------------------------------------------------------------------------
// The update path needs a deterministic key order because placeholder $i is
// bound to the i-th field. Go maps do not keep insertion order, so updates use
// Fields, an ordered list of unique keys. Filters are order-free (the rule
// table fixes the order) and stay a plain map.
// -----------------------------------------------------------------------------

// Field is a single key/value pair of an update.
type Field struct {
	Key   string
	Value any
}

// Fields is an ordered field map with unique keys.
type Fields []Field

// Filters maps external filter keys to raw values.
type Filters map[string]any

// NewFields builds Fields from alternating key/value arguments.
//
// Example:
//
//	f := sqlfrag.NewFields("firstName", "Aliya", "age", 32)
//
// A non-string key or an odd argument count panics; the helper is meant for
// literals in code and tests.
func NewFields(kv ...any) Fields {
	if len(kv)%2 != 0 {
		panic("sqlfrag: NewFields needs key/value pairs")
	}
	f := make(Fields, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			panic(fmt.Sprintf("sqlfrag: NewFields key %v is not a string", kv[i]))
		}
		f = f.Set(key, kv[i+1])
	}
	return f
}

// Set assigns value to key. An existing key keeps its position.
func (f Fields) Set(key string, value any) Fields {
	for i := range f {
		if f[i].Key == key {
			f[i].Value = value
			return f
		}
	}
	return append(f, Field{Key: key, Value: value})
}

// Get returns the value stored for key.
func (f Fields) Get(key string) (any, bool) {
	for _, field := range f {
		if field.Key == key {
			return field.Value, true
		}
	}
	return nil, false
}

// Keys returns the keys in insertion order.
func (f Fields) Keys() []string {
	keys := make([]string, len(f))
	for i, field := range f {
		keys[i] = field.Key
	}
	return keys
}

// UnmarshalJSON decodes a JSON object in document order.
//
// Values must be scalars. Integral numbers decode to int64, other numbers to
// float64. A repeated key keeps its first position and its last value.
func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return invalid("", "malformed JSON body", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return invalid("", "body must be a JSON object", nil)
	}

	out := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return invalid("", "malformed JSON body", err)
		}
		key, ok := tok.(string)
		if !ok {
			return invalid("", "malformed JSON body", nil)
		}

		tok, err = dec.Token()
		if err != nil {
			return invalid(key, "malformed value", err)
		}
		value, err := scalar(key, tok)
		if err != nil {
			return err
		}
		out = out.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return invalid("", "malformed JSON body", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return invalid("", "trailing data after JSON object", nil)
	}

	*f = out
	return nil
}

func scalar(key string, tok json.Token) (any, error) {
	switch v := tok.(type) {
	case json.Delim:
		return nil, invalid(key, "must be a scalar value", nil)
	case json.Number:
		if i, err := strconv.ParseInt(v.String(), 10, 64); err == nil {
			return i, nil
		}
		fl, err := v.Float64()
		if err != nil {
			return nil, invalid(key, "is not a valid number", err)
		}
		return fl, nil
	default:
		// string, bool or nil
		return v, nil
	}
}
