package services

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/cache"
	"github.com/biyonik/jobly-api/pkg/events"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

var ctx = context.Background()

// recorder captures published events.
type recorder struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (r *recorder) Dispatch(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Name()
	}
	return out
}

func testDeps(rec *recorder) Deps {
	return Deps{
		Cache:    cache.NewMemoryCache("test:"),
		CacheTTL: time.Minute,
		Events:   rec,
		Logger:   zerolog.New(io.Discard),
	}
}

// fakeCompanies keeps companies in a map and records the clauses it was
// given.
type fakeCompanies struct {
	rows     map[string]models.Company
	finds    int
	lastFind sqlfrag.Clause
	lastSet  sqlfrag.Clause
}

func newFakeCompanies(cs ...models.Company) *fakeCompanies {
	f := &fakeCompanies{rows: map[string]models.Company{}}
	for _, c := range cs {
		f.rows[c.Handle] = c
	}
	return f
}

func (f *fakeCompanies) Create(_ context.Context, c models.NewCompany) (models.Company, error) {
	if _, ok := f.rows[c.Handle]; ok {
		return models.Company{}, apperr.BadRequest("duplicate company: %s", c.Handle)
	}
	row := models.Company{Handle: c.Handle, Name: c.Name, Description: c.Description, NumEmployees: c.NumEmployees, LogoURL: c.LogoURL}
	f.rows[c.Handle] = row
	return row, nil
}

func (f *fakeCompanies) FindAll(_ context.Context, where sqlfrag.Clause) ([]models.Company, error) {
	f.finds++
	f.lastFind = where
	out := []models.Company{}
	for _, c := range f.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeCompanies) Get(_ context.Context, handle string) (models.CompanyDetail, error) {
	c, ok := f.rows[handle]
	if !ok {
		return models.CompanyDetail{}, apperr.NotFound("no company: %s", handle)
	}
	return models.CompanyDetail{Company: c, Jobs: []models.JobSummary{}}, nil
}

func (f *fakeCompanies) Update(_ context.Context, handle string, set sqlfrag.Clause) (models.Company, error) {
	f.lastSet = set
	c, ok := f.rows[handle]
	if !ok {
		return models.Company{}, apperr.NotFound("no company: %s", handle)
	}
	return c, nil
}

func (f *fakeCompanies) Remove(_ context.Context, handle string) error {
	if _, ok := f.rows[handle]; !ok {
		return apperr.NotFound("no company: %s", handle)
	}
	delete(f.rows, handle)
	return nil
}

type fakeJobs struct {
	rows     map[int64]models.Job
	nextID   int64
	finds    int
	lastFind sqlfrag.Clause
	lastSet  sqlfrag.Clause
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{rows: map[int64]models.Job{}, nextID: 1}
}

func (f *fakeJobs) Create(_ context.Context, j models.NewJob) (models.Job, error) {
	if j.CompanyHandle == "missing" {
		return models.Job{}, apperr.NotFound("no company: %s", j.CompanyHandle)
	}
	row := models.Job{ID: f.nextID, Title: j.Title, Salary: j.Salary, Equity: j.Equity, CompanyHandle: j.CompanyHandle}
	f.rows[row.ID] = row
	f.nextID++
	return row, nil
}

func (f *fakeJobs) FindAll(_ context.Context, where sqlfrag.Clause) ([]models.Job, error) {
	f.finds++
	f.lastFind = where
	out := []models.Job{}
	for _, j := range f.rows {
		out = append(out, j)
	}
	return out, nil
}

func (f *fakeJobs) Get(_ context.Context, id int64) (models.Job, error) {
	j, ok := f.rows[id]
	if !ok {
		return models.Job{}, apperr.NotFound("no job: %d", id)
	}
	return j, nil
}

func (f *fakeJobs) Update(_ context.Context, id int64, set sqlfrag.Clause) (models.Job, error) {
	f.lastSet = set
	j, ok := f.rows[id]
	if !ok {
		return models.Job{}, apperr.NotFound("no job: %d", id)
	}
	return j, nil
}

func (f *fakeJobs) Remove(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return apperr.NotFound("no job: %d", id)
	}
	delete(f.rows, id)
	return nil
}

type fakeUsers struct {
	rows    map[string]models.UserWithPassword
	applied map[string][]int64
	lastSet sqlfrag.Clause
	updates int
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{rows: map[string]models.UserWithPassword{}, applied: map[string][]int64{}}
}

func (f *fakeUsers) FindWithPassword(_ context.Context, username string) (models.UserWithPassword, error) {
	u, ok := f.rows[username]
	if !ok {
		return u, apperr.NotFound("no user: %s", username)
	}
	return u, nil
}

func (f *fakeUsers) Create(_ context.Context, u models.NewUser, hash string) (models.User, error) {
	if _, ok := f.rows[u.Username]; ok {
		return models.User{}, apperr.BadRequest("duplicate username: %s", u.Username)
	}
	row := models.User{Username: u.Username, FirstName: u.FirstName, LastName: u.LastName, Email: u.Email, IsAdmin: u.IsAdmin}
	f.rows[u.Username] = models.UserWithPassword{User: row, Password: hash}
	return row, nil
}

func (f *fakeUsers) FindAll(_ context.Context) ([]models.User, error) {
	out := []models.User{}
	for _, u := range f.rows {
		out = append(out, u.User)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (f *fakeUsers) Get(_ context.Context, username string) (models.UserDetail, error) {
	u, ok := f.rows[username]
	if !ok {
		return models.UserDetail{}, apperr.NotFound("no user: %s", username)
	}
	jobs := append([]int64{}, f.applied[username]...)
	return models.UserDetail{User: u.User, Jobs: jobs}, nil
}

func (f *fakeUsers) Update(_ context.Context, username string, set sqlfrag.Clause) (models.User, error) {
	f.updates++
	f.lastSet = set
	u, ok := f.rows[username]
	if !ok {
		return models.User{}, apperr.NotFound("no user: %s", username)
	}
	return u.User, nil
}

func (f *fakeUsers) Remove(_ context.Context, username string) error {
	if _, ok := f.rows[username]; !ok {
		return apperr.NotFound("no user: %s", username)
	}
	delete(f.rows, username)
	return nil
}

func (f *fakeUsers) ApplyToJob(_ context.Context, username string, jobID int64) error {
	if _, ok := f.rows[username]; !ok {
		return apperr.NotFound("no user: %s", username)
	}
	for _, id := range f.applied[username] {
		if id == jobID {
			return apperr.Conflict("already applied to job %d", jobID)
		}
	}
	f.applied[username] = append(f.applied[username], jobID)
	return nil
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }
