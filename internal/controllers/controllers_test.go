package controllers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/internal/controllers"
	"github.com/biyonik/jobly-api/internal/middleware"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/internal/router"
	"github.com/biyonik/jobly-api/internal/testutil"
	"github.com/biyonik/jobly-api/pkg/cache"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
	"github.com/biyonik/jobly-api/pkg/validation"
)

// -----------------------------------------------------------------------------
// Fakes
// -----------------------------------------------------------------------------

type fakeCompanies struct {
	err     error
	filters sqlfrag.Filters
	fields  sqlfrag.Fields
	created models.NewCompany
}

func (f *fakeCompanies) Create(_ context.Context, in models.NewCompany) (models.Company, error) {
	f.created = in
	return models.Company{Handle: in.Handle, Name: in.Name, Description: in.Description}, f.err
}

func (f *fakeCompanies) List(_ context.Context, q sqlfrag.Filters) ([]models.Company, error) {
	f.filters = q
	if f.err != nil {
		return nil, f.err
	}
	return []models.Company{{Handle: "acme", Name: "Acme"}, {Handle: "initech", Name: "Initech"}}, nil
}

func (f *fakeCompanies) Get(_ context.Context, handle string) (models.CompanyDetail, error) {
	if f.err != nil {
		return models.CompanyDetail{}, f.err
	}
	return models.CompanyDetail{
		Company: models.Company{Handle: handle, Name: "Acme"},
		Jobs:    []models.JobSummary{{ID: 7, Title: "Engineer"}},
	}, nil
}

func (f *fakeCompanies) Update(_ context.Context, handle string, fields sqlfrag.Fields) (models.Company, error) {
	f.fields = fields
	name, _ := fields.Get("name")
	s, _ := name.(string)
	return models.Company{Handle: handle, Name: s}, f.err
}

func (f *fakeCompanies) Remove(context.Context, string) error { return f.err }

type fakeJobs struct {
	err     error
	filters sqlfrag.Filters
	id      int64
}

func (f *fakeJobs) Create(_ context.Context, in models.NewJob) (models.Job, error) {
	return models.Job{ID: 1, Title: in.Title, CompanyHandle: in.CompanyHandle}, f.err
}

func (f *fakeJobs) List(_ context.Context, q sqlfrag.Filters) ([]models.Job, error) {
	f.filters = q
	return []models.Job{}, f.err
}

func (f *fakeJobs) Get(_ context.Context, id int64) (models.Job, error) {
	f.id = id
	return models.Job{ID: id, Title: "Engineer"}, f.err
}

func (f *fakeJobs) Update(_ context.Context, id int64, _ sqlfrag.Fields) (models.Job, error) {
	f.id = id
	return models.Job{ID: id}, f.err
}

func (f *fakeJobs) Remove(_ context.Context, id int64) error {
	f.id = id
	return f.err
}

type fakeUsers struct {
	err     error
	asAdmin bool
	applied int64
}

func (f *fakeUsers) Authenticate(_ context.Context, creds models.Credentials) (string, error) {
	if creds.Password != "secret" {
		return "", apperr.Unauthorized("invalid username/password")
	}
	return "tok-" + creds.Username, nil
}

func (f *fakeUsers) Register(_ context.Context, in models.NewUser) (string, error) {
	return "tok-" + in.Username, f.err
}

func (f *fakeUsers) Create(_ context.Context, in models.NewUser) (models.User, string, error) {
	return models.User{Username: in.Username, IsAdmin: in.IsAdmin}, "tok-" + in.Username, f.err
}

func (f *fakeUsers) List(context.Context) ([]models.User, error) {
	return []models.User{{Username: "u1"}}, f.err
}

func (f *fakeUsers) Get(_ context.Context, username string) (models.UserDetail, error) {
	return models.UserDetail{User: models.User{Username: username}, Jobs: []int64{}}, f.err
}

func (f *fakeUsers) Update(_ context.Context, username string, _ sqlfrag.Fields, asAdmin bool) (models.User, error) {
	f.asAdmin = asAdmin
	return models.User{Username: username}, f.err
}

func (f *fakeUsers) Remove(context.Context, string) error { return f.err }

func (f *fakeUsers) Apply(_ context.Context, _ string, jobID int64) error {
	f.applied = jobID
	return f.err
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type fixture struct {
	companies *fakeCompanies
	jobs      *fakeJobs
	users     *fakeUsers
	handler   http.Handler
}

func setup(db pinger) *fixture {
	f := &fixture{companies: &fakeCompanies{}, jobs: &fakeJobs{}, users: &fakeUsers{}}

	r := router.New()
	r.Use(middleware.Authenticate(testutil.JWT))
	router.RegisterRoutes(r, router.Controllers{
		Auth:      controllers.NewAuthController(f.users),
		Companies: controllers.NewCompanyController(f.companies),
		Jobs:      controllers.NewJobController(f.jobs),
		Users:     controllers.NewUserController(f.users),
		Health:    controllers.NewHealthController(db, cache.NewMemoryCache("t:")),
	})
	f.handler = r
	return f
}

// -----------------------------------------------------------------------------
// Auth
// -----------------------------------------------------------------------------

func TestAuthToken(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodPost, "/auth/token").
		WithJSON(models.Credentials{Username: "u1", Password: "secret"}).
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertJSON(t).
		AssertData(t, "token", "tok-u1")

	testutil.NewRequest(http.MethodPost, "/auth/token").
		WithJSON(models.Credentials{Username: "u1", Password: "nope"}).
		Send(f.handler).
		AssertStatus(t, http.StatusUnauthorized).
		AssertError(t, "invalid username/password")
}

func TestAuthToken_BadBodies(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodPost, "/auth/token").
		Send(f.handler).
		AssertStatus(t, http.StatusBadRequest).
		AssertError(t, "request body is empty")

	testutil.NewRequest(http.MethodPost, "/auth/token").
		WithJSON(`{"username":"u1","password":"secret","extra":1}`).
		Send(f.handler).
		AssertStatus(t, http.StatusBadRequest)

	testutil.NewRequest(http.MethodPost, "/auth/token").
		WithJSON(`{"username":`).
		Send(f.handler).
		AssertStatus(t, http.StatusBadRequest)
}

func TestAuthRegister(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodPost, "/auth/register").
		WithJSON(models.NewUser{Username: "new", Password: "secret", FirstName: "N", LastName: "U", Email: "new@example.com"}).
		Send(f.handler).
		AssertStatus(t, http.StatusCreated).
		AssertData(t, "token", "tok-new")
}

// -----------------------------------------------------------------------------
// Companies
// -----------------------------------------------------------------------------

func TestCompanyList_PassesFilters(t *testing.T) {
	f := setup(pinger{})

	res := testutil.NewRequest(http.MethodGet, "/companies?name=ac&minEmployees=10").
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "companies.0.handle", "acme").
		AssertData(t, "companies.1.handle", "initech")

	assert.Equal(t, sqlfrag.Filters{"name": "ac", "minEmployees": "10"}, f.companies.filters)
	meta, _ := res.Envelope(t)["meta"].(map[string]any)
	assert.Equal(t, float64(2), meta["count"])
}

func TestCompanyList_BadFilterIs400(t *testing.T) {
	f := setup(pinger{})
	f.companies.err = apperr.BadRequest("minEmployees cannot be greater than maxEmployees")

	testutil.NewRequest(http.MethodGet, "/companies?minEmployees=10&maxEmployees=1").
		Send(f.handler).
		AssertStatus(t, http.StatusBadRequest).
		AssertError(t, "minEmployees cannot be greater than maxEmployees")
}

func TestCompanyGet(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodGet, "/companies/acme").
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "company.handle", "acme").
		AssertData(t, "company.jobs.0.title", "Engineer")

	f.companies.err = apperr.NotFound("no company: nope")
	testutil.NewRequest(http.MethodGet, "/companies/nope").
		Send(f.handler).
		AssertStatus(t, http.StatusNotFound).
		AssertError(t, "no company: nope")
}

func TestCompanyCreate_AdminOnly(t *testing.T) {
	f := setup(pinger{})
	body := models.NewCompany{Handle: "acme", Name: "Acme", Description: "Anvils"}

	testutil.NewRequest(http.MethodPost, "/companies").WithJSON(body).
		Send(f.handler).AssertStatus(t, http.StatusUnauthorized)
	testutil.NewRequest(http.MethodPost, "/companies").WithJSON(body).As(t, "u1", false).
		Send(f.handler).AssertStatus(t, http.StatusUnauthorized)

	testutil.NewRequest(http.MethodPost, "/companies").WithJSON(body).As(t, "admin", true).
		Send(f.handler).
		AssertStatus(t, http.StatusCreated).
		AssertData(t, "company.handle", "acme")
	assert.Equal(t, "Anvils", f.companies.created.Description)
}

func TestCompanyCreate_ValidationErrors(t *testing.T) {
	f := setup(pinger{})
	result := validation.NewResult()
	result.AddError("handle", "is required")
	f.companies.err = result

	testutil.NewRequest(http.MethodPost, "/companies").
		WithJSON(`{"name":"Acme"}`).
		As(t, "admin", true).
		Send(f.handler).
		AssertStatus(t, http.StatusBadRequest).
		AssertFieldError(t, "handle")
}

func TestCompanyUpdate_KeepsFieldOrder(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodPatch, "/companies/acme").
		WithJSON(`{"numEmployees":5,"name":"Acme Corp"}`).
		As(t, "admin", true).
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "company.name", "Acme Corp")

	assert.Equal(t, []string{"numEmployees", "name"}, f.companies.fields.Keys())
}

func TestCompanyRemove(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodDelete, "/companies/acme").
		As(t, "admin", true).
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "deleted", "acme")
}

// -----------------------------------------------------------------------------
// Jobs
// -----------------------------------------------------------------------------

func TestJobList_BooleanFilter(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodGet, "/jobs?hasEquity=true&minSalary=100").
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "jobs", []any{})

	assert.Equal(t, sqlfrag.Filters{"hasEquity": true, "minSalary": "100"}, f.jobs.filters)
}

func TestJobRoutes_IDParsing(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodGet, "/jobs/42").
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "job.id", float64(42))
	assert.Equal(t, int64(42), f.jobs.id)

	for _, bad := range []string{"/jobs/abc", "/jobs/0", "/jobs/-3"} {
		testutil.NewRequest(http.MethodGet, bad).
			Send(f.handler).
			AssertStatus(t, http.StatusBadRequest)
	}
}

func TestJobUpdateAndRemove(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodPatch, "/jobs/3").
		WithJSON(`{"title":"Lead"}`).
		As(t, "admin", true).
		Send(f.handler).
		AssertStatus(t, http.StatusOK)
	assert.Equal(t, int64(3), f.jobs.id)

	testutil.NewRequest(http.MethodDelete, "/jobs/3").
		Send(f.handler).
		AssertStatus(t, http.StatusUnauthorized)

	testutil.NewRequest(http.MethodDelete, "/jobs/3").
		As(t, "admin", true).
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "deleted", float64(3))
}

// -----------------------------------------------------------------------------
// Users
// -----------------------------------------------------------------------------

func TestUserGet_SelfOrAdmin(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodGet, "/users/u1").As(t, "u1", false).
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "user.username", "u1")

	testutil.NewRequest(http.MethodGet, "/users/u1").As(t, "admin", true).
		Send(f.handler).AssertStatus(t, http.StatusOK)

	testutil.NewRequest(http.MethodGet, "/users/u1").As(t, "u2", false).
		Send(f.handler).AssertStatus(t, http.StatusUnauthorized)
}

func TestUserUpdate_PassesAdminFlag(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodPatch, "/users/u1").
		WithJSON(`{"firstName":"New"}`).As(t, "u1", false).
		Send(f.handler).AssertStatus(t, http.StatusOK)
	assert.False(t, f.users.asAdmin)

	testutil.NewRequest(http.MethodPatch, "/users/u1").
		WithJSON(`{"isAdmin":true}`).As(t, "admin", true).
		Send(f.handler).AssertStatus(t, http.StatusOK)
	assert.True(t, f.users.asAdmin)
}

func TestUserCreate_ReturnsUserAndToken(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodPost, "/users").
		WithJSON(models.NewUser{Username: "new", Password: "secret", FirstName: "N", LastName: "U", Email: "new@example.com", IsAdmin: true}).
		As(t, "admin", true).
		Send(f.handler).
		AssertStatus(t, http.StatusCreated).
		AssertData(t, "user.isAdmin", true).
		AssertData(t, "token", "tok-new")
}

func TestUserList_AdminOnly(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodGet, "/users").As(t, "u1", false).
		Send(f.handler).AssertStatus(t, http.StatusUnauthorized)
	testutil.NewRequest(http.MethodGet, "/users").As(t, "admin", true).
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "users.0.username", "u1")
}

func TestUserApply(t *testing.T) {
	f := setup(pinger{})

	testutil.NewRequest(http.MethodPost, "/users/u1/jobs/9").As(t, "u1", false).
		Send(f.handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "applied", float64(9))
	assert.Equal(t, int64(9), f.users.applied)

	f.users.err = apperr.Conflict("already applied to job 9")
	testutil.NewRequest(http.MethodPost, "/users/u1/jobs/9").As(t, "u1", false).
		Send(f.handler).
		AssertStatus(t, http.StatusConflict)
}

func TestUnexpectedErrorIsMasked(t *testing.T) {
	f := setup(pinger{})
	f.users.err = errors.New("pq: connection reset")

	testutil.NewRequest(http.MethodDelete, "/users/u1").As(t, "u1", false).
		Send(f.handler).
		AssertStatus(t, http.StatusInternalServerError).
		AssertError(t, "internal server error")
}

// -----------------------------------------------------------------------------
// Health
// -----------------------------------------------------------------------------

func TestHealth(t *testing.T) {
	res := testutil.NewRequest(http.MethodGet, "/health").
		Send(setup(pinger{}).handler).
		AssertStatus(t, http.StatusOK).
		AssertData(t, "status", "ok").
		AssertData(t, "cache.driver", "memory")
	_, ok := res.Data(t, "uptime")
	require.True(t, ok)

	testutil.NewRequest(http.MethodGet, "/health").
		Send(setup(pinger{err: errors.New("down")}).handler).
		AssertStatus(t, http.StatusServiceUnavailable).
		AssertData(t, "database", "down")
}
