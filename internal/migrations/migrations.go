// Package migrations holds the Jobly schema as embedded SQL files.
package migrations

import (
	"embed"

	"github.com/biyonik/jobly-api/pkg/database/migration"
)

//go:embed sql/*.sql
var files embed.FS

// All returns the schema migrations in apply order.
func All() ([]migration.Migration, error) {
	return migration.Load(files, "sql")
}
