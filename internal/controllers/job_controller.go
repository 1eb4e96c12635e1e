package controllers

import (
	"context"
	"net/http"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/http/response"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

// JobService is implemented by services.JobService.
type JobService interface {
	Create(ctx context.Context, in models.NewJob) (models.Job, error)
	List(ctx context.Context, q sqlfrag.Filters) ([]models.Job, error)
	Get(ctx context.Context, id int64) (models.Job, error)
	Update(ctx context.Context, id int64, fields sqlfrag.Fields) (models.Job, error)
	Remove(ctx context.Context, id int64) error
}

type JobController struct {
	jobs JobService
}

func NewJobController(jobs JobService) *JobController {
	return &JobController{jobs: jobs}
}

// Create handles POST /jobs.
func (c *JobController) Create(w http.ResponseWriter, r *request.Request) {
	var in models.NewJob
	if err := r.ParseJSON(&in); err != nil {
		fail(w, r, err)
		return
	}

	job, err := c.jobs.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.Created(w, map[string]any{"job": job})
}

// List handles GET /jobs?title=&minSalary=&hasEquity=.
func (c *JobController) List(w http.ResponseWriter, r *request.Request) {
	jobs, err := c.jobs.List(r.Context(), r.Filters())
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.Success(w, http.StatusOK, map[string]any{"jobs": jobs}, listMeta{Count: len(jobs)})
}

// Get handles GET /jobs/{id}.
func (c *JobController) Get(w http.ResponseWriter, r *request.Request) {
	id, err := r.RouteInt("id")
	if err != nil {
		fail(w, r, err)
		return
	}

	job, err := c.jobs.Get(r.Context(), id)
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"job": job})
}

// Update handles PATCH /jobs/{id}.
func (c *JobController) Update(w http.ResponseWriter, r *request.Request) {
	id, err := r.RouteInt("id")
	if err != nil {
		fail(w, r, err)
		return
	}

	var fields sqlfrag.Fields
	if err := r.ParseJSON(&fields); err != nil {
		fail(w, r, err)
		return
	}

	job, err := c.jobs.Update(r.Context(), id, fields)
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"job": job})
}

// Remove handles DELETE /jobs/{id}.
func (c *JobController) Remove(w http.ResponseWriter, r *request.Request) {
	id, err := r.RouteInt("id")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := c.jobs.Remove(r.Context(), id); err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"deleted": id})
}
