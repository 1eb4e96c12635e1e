package sqlfrag

import (
	"fmt"
	"strings"
)

// Slot marks where a rule's bound value goes in its predicate template.
const Slot = "?"

// Transform converts a raw filter value into the value bound to the rule's
// slot. emit=false drops the rule for this input. For literal predicates the
// bound value is ignored and only emit matters.
type Transform func(raw any) (bound any, emit bool, err error)

// FilterRule describes how one external filter key becomes a predicate.
type FilterRule struct {
	// Key is the external filter key, e.g. "minEmployees".
	Key string
	// Column is the physical column the predicate reads. It is used for
	// schema checks only; the predicate text is authoritative.
	Column string
	// Predicate is the SQL template, holding one Slot or none.
	Predicate string
	Transform Transform
}

// Binds reports whether the predicate consumes a placeholder.
func (r FilterRule) Binds() bool {
	return strings.Contains(r.Predicate, Slot)
}

// Compare builds a rule of the form "<column> <op> ?".
//
// Example:
//
//	sqlfrag.Compare("minSalary", "salary", ">=", sqlfrag.Numeric)
func Compare(key, column, op string, transform Transform) FilterRule {
	return FilterRule{
		Key:       key,
		Column:    column,
		Predicate: column + " " + op + " " + Slot,
		Transform: transform,
	}
}

// Presence builds a literal rule that is emitted only when its filter value
// is exactly the boolean true.
//
// Example:
//
//	sqlfrag.Presence("hasEquity", "equity", "equity > 0")
func Presence(key, column, predicate string) FilterRule {
	return FilterRule{
		Key:       key,
		Column:    column,
		Predicate: predicate,
		Transform: WhenTrue,
	}
}

// Rules is an ordered rule table. Its order fixes both the concatenation
// order of predicates and the numbering of their placeholders.
type Rules []FilterRule

// Columns returns the columns read by the table, in declared order, without
// repeats.
func (rs Rules) Columns() []string {
	seen := make(map[string]bool, len(rs))
	cols := make([]string, 0, len(rs))
	for _, r := range rs {
		if !seen[r.Column] {
			seen[r.Column] = true
			cols = append(cols, r.Column)
		}
	}
	return cols
}

// Validate checks the table's structure. It is meant to run once at startup.
func (rs Rules) Validate() error {
	seen := make(map[string]bool, len(rs))
	for i, r := range rs {
		switch {
		case r.Key == "":
			return fmt.Errorf("rule %d: empty key", i)
		case seen[r.Key]:
			return fmt.Errorf("rule %q: duplicate key", r.Key)
		case r.Column == "":
			return fmt.Errorf("rule %q: empty column", r.Key)
		case r.Transform == nil:
			return fmt.Errorf("rule %q: nil transform", r.Key)
		case strings.Count(r.Predicate, Slot) > 1:
			return fmt.Errorf("rule %q: predicate %q has more than one slot", r.Key, r.Predicate)
		case strings.TrimSpace(r.Predicate) == "":
			return fmt.Errorf("rule %q: empty predicate", r.Key)
		}
		seen[r.Key] = true
	}
	return nil
}

// Filter builds the predicate list of a WHERE clause.
//
// Rules are walked in declared order. A rule whose key is missing from
// filters is skipped; a key with no rule is silently ignored, so a misspelled
// filter key widens the result instead of failing. Binding rules take the
// next placeholder; literal rules never consume one.
//
// Parameters:
//   - filters: raw filter values by external key.
//   - rules: the entity's rule table.
//
// Returns:
//   - Clause: "pred AND pred" and its values; empty when nothing applies.
//   - error: ErrInvalidInput when a transform rejects a value.
//
// Example:
//
//	c, _ := sqlfrag.Filter(
//	    sqlfrag.Filters{"name": "Foo", "minEmployees": 500},
//	    companyRules,
//	)
//	// c.Fragment == "name ILIKE $1 AND num_employees >= $2"
//	// c.Values   == []any{"%Foo%", int64(500)}
func Filter(filters Filters, rules Rules) (Clause, error) {
	if len(filters) == 0 {
		return Clause{}, nil
	}

	var (
		preds  []string
		values []any
	)
	for _, r := range rules {
		raw, ok := filters[r.Key]
		if !ok {
			continue
		}

		bound, emit, err := r.Transform(raw)
		if err != nil {
			return Clause{}, invalid(r.Key, "rejected filter value", err)
		}
		if !emit {
			continue
		}

		if !r.Binds() {
			preds = append(preds, r.Predicate)
			continue
		}
		preds = append(preds, strings.Replace(r.Predicate, Slot, Placeholder(len(values)+1), 1))
		values = append(values, bound)
	}

	if len(preds) == 0 {
		return Clause{}, nil
	}
	return Clause{
		Fragment: strings.Join(preds, " AND "),
		Values:   values,
	}, nil
}
