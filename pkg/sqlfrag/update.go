package sqlfrag

import (
	"slices"
	"strings"
)

// Aliases maps external field keys to physical column names.
type Aliases map[string]string

// Column returns the column for key, or key itself when it has no alias.
func (a Aliases) Column(key string) string {
	if col, ok := a[key]; ok {
		return col
	}
	return key
}

// Columns returns the distinct alias targets, sorted.
func (a Aliases) Columns() []string {
	cols := make([]string, 0, len(a))
	for _, col := range a {
		cols = append(cols, col)
	}
	slices.Sort(cols)
	return slices.Compact(cols)
}

// PartialUpdate builds the assignment list of an UPDATE statement.
//
// Parameters:
//   - fields: the columns to change, in the order their placeholders are
//     numbered. Keys are trusted: restrict them to an allowed set before
//     calling.
//   - aliases: optional external-key to column renames; nil means none.
//
// Returns:
//   - Clause: `"col1"=$1, "col2"=$2` and the values in the same order,
//     unconverted.
//   - error: ErrInvalidInput when fields is empty.
//
// Example:
//
//	c, _ := sqlfrag.PartialUpdate(
//	    sqlfrag.NewFields("firstName", "Aliya", "age", 32),
//	    sqlfrag.Aliases{"firstName": "first_name"},
//	)
//	// c.Fragment == `"first_name"=$1, "age"=$2`
//	// c.Values   == []any{"Aliya", 32}
func PartialUpdate(fields Fields, aliases Aliases) (Clause, error) {
	if len(fields) == 0 {
		return Clause{}, invalid("", "no data", nil)
	}

	sets := make([]string, len(fields))
	values := make([]any, len(fields))
	for i, f := range fields {
		sets[i] = `"` + aliases.Column(f.Key) + `"=` + Placeholder(i+1)
		values[i] = f.Value
	}

	return Clause{
		Fragment: strings.Join(sets, ", "),
		Values:   values,
	}, nil
}
