// -----------------------------------------------------------------------------
// Package sqlfrag
// -----------------------------------------------------------------------------
// sqlfrag turns loosely-shaped client input into parameterized PostgreSQL
// fragments. It knows two shapes:
//
//   - PartialUpdate: the body of a SET clause ("col"=$1, "col2"=$2)
//   - Filter: the body of a WHERE clause (pred AND pred)
//
// Values never appear in fragment text; they are returned in a separate slice
// in placeholder order. Callers embed the fragment in a statement template and
// continue numbering from Clause.Next().
// -----------------------------------------------------------------------------

package sqlfrag

import "strconv"

// Clause is a compiled fragment and its bound values.
//
// The fragment contains exactly len(Values) placeholders $1..$n and $i binds
// Values[i-1].
type Clause struct {
	Fragment string
	Values   []any
}

// Empty reports whether the clause has no predicates or assignments.
func (c Clause) Empty() bool {
	return c.Fragment == ""
}

// Next returns the index of the next free placeholder.
func (c Clause) Next() int {
	return len(c.Values) + 1
}

// Args returns a fresh slice holding Values followed by extra, for
// statements that bind more parameters after the fragment.
func (c Clause) Args(extra ...any) []any {
	args := make([]any, 0, len(c.Values)+len(extra))
	args = append(args, c.Values...)
	return append(args, extra...)
}

// Where returns " WHERE <fragment>", or "" for an empty clause.
func (c Clause) Where() string {
	if c.Empty() {
		return ""
	}
	return " WHERE " + c.Fragment
}

// Placeholder renders the PostgreSQL positional parameter $n.
func Placeholder(n int) string {
	return "$" + strconv.Itoa(n)
}
