package filters

import (
	"context"
	"fmt"
	"strings"

	"github.com/biyonik/jobly-api/pkg/database"
)

// ColumnLister reads the column names of a table.
// database.Schema satisfies it.
type ColumnLister interface {
	Columns(ctx context.Context, table string) ([]string, error)
}

// CheckSchema validates every binding's structure and confirms that each
// referenced column exists. All problems are reported together.
func CheckSchema(ctx context.Context, schema ColumnLister, bindings []Binding) error {
	var problems []string

	for _, b := range bindings {
		if err := b.Rules.Validate(); err != nil {
			problems = append(problems, fmt.Sprintf("%s: %v", b.Entity, err))
			continue
		}

		existing, err := schema.Columns(ctx, b.Table)
		if err != nil {
			return fmt.Errorf("read columns of %s: %w", b.Table, err)
		}
		if len(existing) == 0 {
			problems = append(problems, fmt.Sprintf("%s: table %q not found", b.Entity, b.Table))
			continue
		}

		have := make(map[string]bool, len(existing))
		for _, c := range existing {
			have[c] = true
		}
		for _, c := range b.Columns() {
			if err := database.ValidateIdentifier(c); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", b.Entity, err))
				continue
			}
			if !have[c] {
				problems = append(problems, fmt.Sprintf("%s: column %q missing from %s", b.Entity, c, b.Table))
			}
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("filter configuration does not match schema: %s", strings.Join(problems, "; "))
	}
	return nil
}
