package filters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/jobly-api/pkg/sqlfrag"
	"github.com/biyonik/jobly-api/pkg/validation"
)

type fakeSchema map[string][]string

func (f fakeSchema) Columns(_ context.Context, table string) ([]string, error) {
	return f[table], nil
}

var joblySchema = fakeSchema{
	"companies": {"handle", "name", "description", "num_employees", "logo_url"},
	"jobs":      {"id", "title", "salary", "equity", "company_handle"},
	"users":     {"username", "password", "first_name", "last_name", "email", "is_admin"},
}

func TestCompanyRules(t *testing.T) {
	c, err := sqlfrag.Filter(sqlfrag.Filters{"name": "Foo", "minEmployees": 500}, CompanyRules)
	require.NoError(t, err)

	assert.Equal(t, "name ILIKE $1 AND num_employees >= $2", c.Fragment)
	assert.Equal(t, []any{"%Foo%", int64(500)}, c.Values)
}

func TestJobRules(t *testing.T) {
	c, err := sqlfrag.Filter(sqlfrag.Filters{"hasEquity": true}, JobRules)
	require.NoError(t, err)
	assert.Equal(t, "equity > 0", c.Fragment)
	assert.Empty(t, c.Values)

	c, err = sqlfrag.Filter(sqlfrag.Filters{"minSalary": "1000", "title": "dev"}, JobRules)
	require.NoError(t, err)
	assert.Equal(t, "title ILIKE $1 AND salary >= $2", c.Fragment)
	assert.Equal(t, []any{"%dev%", int64(1000)}, c.Values)
}

func TestIntegerFilters_RejectNonInt4(t *testing.T) {
	tests := []struct {
		name  string
		input sqlfrag.Filters
		rules sqlfrag.Rules
		key   string
	}{
		{"fractional minEmployees", sqlfrag.Filters{"minEmployees": "2.5"}, CompanyRules, "minEmployees"},
		{"fractional maxEmployees", sqlfrag.Filters{"maxEmployees": 2.5}, CompanyRules, "maxEmployees"},
		{"minSalary past int4", sqlfrag.Filters{"minSalary": "99999999999"}, JobRules, "minSalary"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := sqlfrag.Filter(tt.input, tt.rules)
			require.ErrorIs(t, err, sqlfrag.ErrInvalidInput)

			var in *sqlfrag.InputError
			require.True(t, errors.As(err, &in))
			assert.Equal(t, tt.key, in.Key)
		})
	}
}

func TestUserAliases(t *testing.T) {
	c, err := sqlfrag.PartialUpdate(sqlfrag.NewFields("firstName", "Aliya", "age", 32), UserAliases)
	require.NoError(t, err)
	assert.Equal(t, `"first_name"=$1, "age"=$2`, c.Fragment)
	assert.Equal(t, []any{"Aliya", 32}, c.Values)
}

func TestCheckSchema_OK(t *testing.T) {
	assert.NoError(t, CheckSchema(context.Background(), joblySchema, Registry()))
}

func TestCheckSchema_MissingColumn(t *testing.T) {
	schema := fakeSchema{
		"companies": {"handle", "name", "description", "employees", "logo_url"},
		"jobs":      joblySchema["jobs"],
		"users":     joblySchema["users"],
	}

	err := CheckSchema(context.Background(), schema, Registry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "num_employees" missing from companies`)
}

func TestCheckSchema_MissingTable(t *testing.T) {
	schema := fakeSchema{"companies": joblySchema["companies"], "users": joblySchema["users"]}

	err := CheckSchema(context.Background(), schema, Registry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `table "jobs" not found`)
}

func TestCheckSchema_InvalidRules(t *testing.T) {
	bindings := []Binding{{
		Entity: "broken",
		Table:  "companies",
		Rules:  sqlfrag.Rules{CompanyRules[0], CompanyRules[0]},
	}}

	err := CheckSchema(context.Background(), joblySchema, bindings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

type failingSchema struct{}

func (failingSchema) Columns(context.Context, string) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestCheckSchema_LookupError(t *testing.T) {
	err := CheckSchema(context.Background(), failingSchema{}, Registry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBindingColumns(t *testing.T) {
	reg := Registry()
	assert.Equal(t, []string{"name", "num_employees", "logo_url", "description"}, reg[0].Columns())
	assert.Equal(t, []string{"title", "salary", "equity"}, reg[1].Columns())
	assert.Equal(t,
		[]string{"first_name", "is_admin", "last_name", "email", "password"},
		reg[2].Columns())
}

func TestCheckSchema_MissingPatchColumn(t *testing.T) {
	schema := fakeSchema{
		"companies": joblySchema["companies"],
		"jobs":      joblySchema["jobs"],
		"users":     {"username", "password", "first_name", "last_name", "email_address", "is_admin"},
	}

	err := CheckSchema(context.Background(), schema, Registry())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `user: column "email" missing from users`)
}

func TestCheckSchema_UnaliasedPatchKeyTypo(t *testing.T) {
	bindings := []Binding{{
		Entity:  "job",
		Table:   "jobs",
		Aliases: JobAliases,
		Patch:   validation.PatchSchema{"titel": {Kind: validation.KindString}},
	}}

	err := CheckSchema(context.Background(), joblySchema, bindings)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "titel" missing from jobs`)
}
