package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/internal/filters"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

var ctx = context.Background()

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return sqlx.NewDb(db, "postgres"), mock
}

func companyRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"handle", "name", "description", "num_employees", "logo_url"})
}

func jobRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "title", "salary", "equity", "company_handle"})
}

func userRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"username", "first_name", "last_name", "email", "is_admin"})
}

// -----------------------------------------------------------------------------
// Companies
// -----------------------------------------------------------------------------

func TestCompanyFindAll_WithFilter(t *testing.T) {
	db, mock := newMock(t)
	where, err := sqlfrag.Filter(sqlfrag.Filters{"name": "net", "minEmployees": "100"}, filters.CompanyRules)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT handle, name, description, num_employees, logo_url FROM companies WHERE name ILIKE $1 AND num_employees >= $2 ORDER BY name`).
		WithArgs("%net%", int64(100)).
		WillReturnRows(companyRows().AddRow("c1", "C1 net", "Desc1", 150, "http://c1.img"))

	got, err := NewCompanyRepository(db).FindAll(ctx, where)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "c1", got[0].Handle)
	assert.Equal(t, 150, *got[0].NumEmployees)
	assert.Equal(t, "http://c1.img", *got[0].LogoURL)
}

func TestCompanyFindAll_NoFilter(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT handle, name, description, num_employees, logo_url FROM companies ORDER BY name`).
		WillReturnRows(companyRows())

	got, err := NewCompanyRepository(db).FindAll(ctx, sqlfrag.Clause{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestCompanyFindAll_InvalidTextRepresentation(t *testing.T) {
	db, mock := newMock(t)
	where := sqlfrag.Clause{Fragment: "num_employees >= $1", Values: []any{"2.5"}}

	mock.ExpectQuery(`SELECT handle, name, description, num_employees, logo_url FROM companies WHERE num_employees >= $1 ORDER BY name`).
		WithArgs("2.5").
		WillReturnError(&pq.Error{Code: invalidTextRepresentation, Message: `invalid input syntax for type integer: "2.5"`})

	_, err := NewCompanyRepository(db).FindAll(ctx, where)
	require.Error(t, err)
	assert.True(t, apperr.IsBadRequest(err))
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
	assert.Contains(t, err.Error(), "invalid input syntax")
}

func TestCompanyCreate_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO companies (handle, name, description, num_employees, logo_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING handle, name, description, num_employees, logo_url`).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err := NewCompanyRepository(db).Create(ctx, models.NewCompany{Handle: "c1", Name: "C1", Description: "d"})
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestCompanyGet_WithJobs(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT handle, name, description, num_employees, logo_url FROM companies WHERE handle = $1`).
		WithArgs("c1").
		WillReturnRows(companyRows().AddRow("c1", "C1", "Desc1", nil, nil))
	mock.ExpectQuery(`SELECT id, title, salary, equity FROM jobs WHERE company_handle = $1 ORDER BY id`).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "salary", "equity"}).
			AddRow(1, "j1", 100, []byte("0.1")))

	got, err := NewCompanyRepository(db).Get(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, got.NumEmployees)
	require.Len(t, got.Jobs, 1)
	assert.Equal(t, "0.1", *got.Jobs[0].Equity)
}

func TestCompanyGet_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT handle, name, description, num_employees, logo_url FROM companies WHERE handle = $1`).
		WithArgs("nope").
		WillReturnRows(companyRows())

	_, err := NewCompanyRepository(db).Get(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestCompanyUpdate_ComposesPartialUpdate(t *testing.T) {
	db, mock := newMock(t)
	set, err := sqlfrag.PartialUpdate(sqlfrag.NewFields("name", "New", "numEmployees", int64(10)), filters.CompanyAliases)
	require.NoError(t, err)

	mock.ExpectQuery(`UPDATE companies SET "name"=$1, "num_employees"=$2 WHERE handle = $3 RETURNING handle, name, description, num_employees, logo_url`).
		WithArgs("New", int64(10), "c1").
		WillReturnRows(companyRows().AddRow("c1", "New", "Desc1", 10, nil))

	got, err := NewCompanyRepository(db).Update(ctx, "c1", set)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
}

func TestCompanyRemove_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`DELETE FROM companies WHERE handle = $1 RETURNING handle`).
		WithArgs("nope").
		WillReturnRows(sqlmock.NewRows([]string{"handle"}))

	err := NewCompanyRepository(db).Remove(ctx, "nope")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// -----------------------------------------------------------------------------
// Jobs
// -----------------------------------------------------------------------------

func TestJobFindAll_PresenceFilter(t *testing.T) {
	db, mock := newMock(t)
	where, err := sqlfrag.Filter(sqlfrag.Filters{"hasEquity": true, "minSalary": "50000"}, filters.JobRules)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT id, title, salary, equity, company_handle FROM jobs WHERE salary >= $1 AND equity > 0 ORDER BY title, id`).
		WithArgs(int64(50000)).
		WillReturnRows(jobRows().AddRow(7, "Engineer", 90000, []byte("0.05"), "c1"))

	got, err := NewJobRepository(db).FindAll(ctx, where)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got[0].ID)
	assert.Equal(t, "0.05", *got[0].Equity)
}

func TestJobCreate_UnknownCompany(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO jobs (title, salary, equity, company_handle)
VALUES ($1, $2, $3, $4)
RETURNING id, title, salary, equity, company_handle`).
		WillReturnError(&pq.Error{Code: foreignKeyViolation})

	_, err := NewJobRepository(db).Create(ctx, models.NewJob{Title: "t", CompanyHandle: "nope"})
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestJobUpdate(t *testing.T) {
	db, mock := newMock(t)
	set, err := sqlfrag.PartialUpdate(sqlfrag.NewFields("salary", int64(500)), filters.JobAliases)
	require.NoError(t, err)

	mock.ExpectQuery(`UPDATE jobs SET "salary"=$1 WHERE id = $2 RETURNING id, title, salary, equity, company_handle`).
		WithArgs(int64(500), int64(3)).
		WillReturnRows(jobRows().AddRow(3, "t", 500, nil, "c1"))

	got, err := NewJobRepository(db).Update(ctx, 3, set)
	require.NoError(t, err)
	assert.Equal(t, 500, *got.Salary)
	assert.Nil(t, got.Equity)
}

func TestJobUpdate_OutOfRange(t *testing.T) {
	db, mock := newMock(t)
	set := sqlfrag.Clause{Fragment: `"salary"=$1`, Values: []any{int64(99999999999)}}

	mock.ExpectQuery(`UPDATE jobs SET "salary"=$1 WHERE id = $2 RETURNING id, title, salary, equity, company_handle`).
		WithArgs(int64(99999999999), int64(3)).
		WillReturnError(&pq.Error{Code: numericValueOutOfRange, Message: "integer out of range"})

	_, err := NewJobRepository(db).Update(ctx, 3, set)
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestJobGet_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT id, title, salary, equity, company_handle FROM jobs WHERE id = $1`).
		WithArgs(int64(0)).
		WillReturnRows(jobRows())

	_, err := NewJobRepository(db).Get(ctx, 0)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func TestUserUpdate_Aliases(t *testing.T) {
	db, mock := newMock(t)
	set, err := sqlfrag.PartialUpdate(sqlfrag.NewFields("firstName", "Aliya", "email", "a@b.c"), filters.UserAliases)
	require.NoError(t, err)

	mock.ExpectQuery(`UPDATE users SET "first_name"=$1, "email"=$2 WHERE username = $3 RETURNING username, first_name, last_name, email, is_admin`).
		WithArgs("Aliya", "a@b.c", "u1").
		WillReturnRows(userRows().AddRow("u1", "Aliya", "L", "a@b.c", false))

	got, err := NewUserRepository(db).Update(ctx, "u1", set)
	require.NoError(t, err)
	assert.Equal(t, "Aliya", got.FirstName)
}

func TestUserGet_WithApplications(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`SELECT username, first_name, last_name, email, is_admin FROM users WHERE username = $1`).
		WithArgs("u1").
		WillReturnRows(userRows().AddRow("u1", "F", "L", "u1@x.com", true))
	mock.ExpectQuery(`SELECT job_id FROM applications WHERE username = $1 ORDER BY job_id`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"job_id"}).AddRow(1).AddRow(4))

	got, err := NewUserRepository(db).Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, got.IsAdmin)
	assert.Equal(t, []int64{1, 4}, got.Jobs)
}

func TestUserCreate_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery(`INSERT INTO users (username, password, first_name, last_name, email, is_admin)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING username, first_name, last_name, email, is_admin`).
		WithArgs("u1", "hash", "F", "L", "u1@x.com", false).
		WillReturnError(&pq.Error{Code: uniqueViolation})

	_, err := NewUserRepository(db).Create(ctx, models.NewUser{
		Username: "u1", FirstName: "F", LastName: "L", Email: "u1@x.com",
	}, "hash")
	assert.ErrorIs(t, err, apperr.ErrBadRequest)
}

func TestUserApplyToJob(t *testing.T) {
	const insert = `INSERT INTO applications (username, job_id) VALUES ($1, $2)`

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"ok", nil, nil},
		{"twice", &pq.Error{Code: uniqueViolation}, apperr.ErrConflict},
		{"no job", &pq.Error{Code: foreignKeyViolation, Constraint: "applications_job_id_fkey"}, apperr.ErrNotFound},
		{"no user", &pq.Error{Code: foreignKeyViolation, Constraint: "applications_username_fkey"}, apperr.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			exp := mock.ExpectExec(insert).WithArgs("u1", int64(2))
			if tt.err != nil {
				exp.WillReturnError(tt.err)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, 1))
			}

			err := NewUserRepository(db).ApplyToJob(ctx, "u1", 2)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
