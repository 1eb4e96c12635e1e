package services

import (
	"context"
	"strconv"

	"github.com/biyonik/jobly-api/internal/filters"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/cache"
	"github.com/biyonik/jobly-api/pkg/events"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
	"github.com/biyonik/jobly-api/pkg/validation"
)

// JobStore is implemented by repositories.JobRepository.
type JobStore interface {
	Create(ctx context.Context, j models.NewJob) (models.Job, error)
	FindAll(ctx context.Context, where sqlfrag.Clause) ([]models.Job, error)
	Get(ctx context.Context, id int64) (models.Job, error)
	Update(ctx context.Context, id int64, set sqlfrag.Clause) (models.Job, error)
	Remove(ctx context.Context, id int64) error
}

type JobService struct {
	store JobStore
	deps  Deps
}

func NewJobService(store JobStore, deps Deps) *JobService {
	return &JobService{store: store, deps: deps.withDefaults()}
}

// Create validates and inserts a job. An unknown company is not found.
func (s *JobService) Create(ctx context.Context, in models.NewJob) (models.Job, error) {
	if err := validation.Struct(in); err != nil {
		return models.Job{}, err
	}

	job, err := s.store.Create(ctx, in)
	if err != nil {
		return models.Job{}, err
	}

	s.deps.publish(ctx, events.JobCreated, strconv.FormatInt(job.ID, 10), job)
	return job, nil
}

// List returns jobs matching q: title, minSalary and hasEquity.
//
// hasEquity only filters when it is the boolean true; false or absent lists
// jobs with and without equity.
func (s *JobService) List(ctx context.Context, q sqlfrag.Filters) ([]models.Job, error) {
	where, err := sqlfrag.Filter(q, filters.JobRules)
	if err != nil {
		return nil, err
	}

	key := cache.Key(JobsNamespace+"list", where.Fragment, where.Values)
	return cache.Remember(ctx, s.deps.Cache, key, s.deps.CacheTTL, func() ([]models.Job, error) {
		return s.store.FindAll(ctx, where)
	})
}

func (s *JobService) Get(ctx context.Context, id int64) (models.Job, error) {
	key := cache.Key(JobsNamespace+"get", id)
	return cache.Remember(ctx, s.deps.Cache, key, s.deps.CacheTTL, func() (models.Job, error) {
		return s.store.Get(ctx, id)
	})
}

// Update applies a partial update to title, salary or equity.
func (s *JobService) Update(ctx context.Context, id int64, fields sqlfrag.Fields) (models.Job, error) {
	if err := filters.JobPatch.Validate(fields); err != nil {
		return models.Job{}, err
	}

	set, err := sqlfrag.PartialUpdate(fields, filters.JobAliases)
	if err != nil {
		return models.Job{}, err
	}

	job, err := s.store.Update(ctx, id, set)
	if err != nil {
		return models.Job{}, err
	}

	subject := strconv.FormatInt(id, 10)
	s.deps.logUpdated("job", subject, fields)
	s.deps.publish(ctx, events.JobUpdated, subject, job)
	return job, nil
}

func (s *JobService) Remove(ctx context.Context, id int64) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	s.deps.publish(ctx, events.JobDeleted, strconv.FormatInt(id, 10), nil)
	return nil
}
