// -----------------------------------------------------------------------------
// Filter & Alias Tables
// -----------------------------------------------------------------------------
// Per-entity configuration for the sqlfrag builders: which query parameters
// filter which columns, and which JSON keys are renamed on update. Column
// names here must exist in the live schema; CheckSchema verifies that at
// startup so a typo fails the boot instead of the first request.
// -----------------------------------------------------------------------------

package filters

import (
	"slices"

	"github.com/biyonik/jobly-api/pkg/sqlfrag"
	"github.com/biyonik/jobly-api/pkg/validation"
)

// CompanyRules filters GET /companies.
var CompanyRules = sqlfrag.Rules{
	sqlfrag.Compare("name", "name", "ILIKE", sqlfrag.Substring),
	sqlfrag.Compare("minEmployees", "num_employees", ">=", sqlfrag.Int4),
	sqlfrag.Compare("maxEmployees", "num_employees", "<=", sqlfrag.Int4),
}

// JobRules filters GET /jobs.
var JobRules = sqlfrag.Rules{
	sqlfrag.Compare("title", "title", "ILIKE", sqlfrag.Substring),
	sqlfrag.Compare("minSalary", "salary", ">=", sqlfrag.Int4),
	sqlfrag.Presence("hasEquity", "equity", "equity > 0"),
}

// Update aliases: JSON key -> column.
var (
	CompanyAliases = sqlfrag.Aliases{
		"numEmployees": "num_employees",
		"logoUrl":      "logo_url",
	}
	JobAliases  = sqlfrag.Aliases{}
	UserAliases = sqlfrag.Aliases{
		"firstName": "first_name",
		"lastName":  "last_name",
		"isAdmin":   "is_admin",
	}
)

// Binding ties an entity's tables to the physical table they target.
// Patch keys without an alias are used as column names verbatim, so they
// are checked too.
type Binding struct {
	Entity  string
	Table   string
	Rules   sqlfrag.Rules
	Aliases sqlfrag.Aliases
	Patch   validation.PatchSchema
}

// Columns lists every column the binding refers to: rule columns first, then
// alias targets, then the columns of patch keys, each once.
func (b Binding) Columns() []string {
	cols := b.Rules.Columns()
	seen := make(map[string]bool, len(cols))
	for _, c := range cols {
		seen[c] = true
	}
	add := func(c string) {
		if !seen[c] {
			seen[c] = true
			cols = append(cols, c)
		}
	}
	for _, c := range b.Aliases.Columns() {
		add(c)
	}

	keys := make([]string, 0, len(b.Patch))
	for k := range b.Patch {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		add(b.Aliases.Column(k))
	}
	return cols
}

// Registry returns every binding the API uses.
func Registry() []Binding {
	return []Binding{
		{Entity: "company", Table: "companies", Rules: CompanyRules, Aliases: CompanyAliases, Patch: CompanyPatch},
		{Entity: "job", Table: "jobs", Rules: JobRules, Aliases: JobAliases, Patch: JobPatch},
		{Entity: "user", Table: "users", Aliases: UserAliases, Patch: AdminUserPatch},
	}
}
