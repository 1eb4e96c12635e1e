package database

import (
	"context"
	"fmt"
)

const columnsQuery = `SELECT column_name
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = $1
ORDER BY ordinal_position`

// Schema reads table metadata from information_schema.
type Schema struct {
	db Executor
}

// NewSchema returns a Schema reading through db.
func NewSchema(db Executor) *Schema {
	return &Schema{db: db}
}

// Columns returns the column names of table in the current schema, in
// declaration order. A missing table yields an empty slice.
func (s *Schema) Columns(ctx context.Context, table string) ([]string, error) {
	if err := ValidateIdentifier(table); err != nil {
		return nil, err
	}

	var cols []string
	if err := s.db.SelectContext(ctx, &cols, columnsQuery, table); err != nil {
		return nil, fmt.Errorf("list columns of %s: %w", table, err)
	}
	return cols, nil
}
