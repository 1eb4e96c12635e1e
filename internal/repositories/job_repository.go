package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/database"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

const jobColumns = `id, title, salary, equity, company_handle`

// JobRepository reads and writes jobs.
type JobRepository struct {
	db database.Executor
}

func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a job for an existing company.
func (r *JobRepository) Create(ctx context.Context, j models.NewJob) (models.Job, error) {
	var out models.Job
	err := r.db.GetContext(ctx, &out,
		`INSERT INTO jobs (title, salary, equity, company_handle)
VALUES ($1, $2, $3, $4)
RETURNING `+jobColumns,
		j.Title, j.Salary, j.Equity, j.CompanyHandle)
	if isForeignKeyViolation(err) {
		return models.Job{}, apperr.NotFound("no company: %s", j.CompanyHandle)
	}
	if isBadInput(err) {
		return models.Job{}, badInput(err)
	}
	if err != nil {
		return models.Job{}, fmt.Errorf("failed to create job: %w", err)
	}
	return out, nil
}

// FindAll lists jobs matching where, ordered by title.
func (r *JobRepository) FindAll(ctx context.Context, where sqlfrag.Clause) ([]models.Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs` + where.Where() + ` ORDER BY title, id`

	jobs := []models.Job{}
	if err := r.db.SelectContext(ctx, &jobs, query, where.Values...); err != nil {
		if isBadInput(err) {
			return nil, badInput(err)
		}
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	return jobs, nil
}

// Get returns one job.
func (r *JobRepository) Get(ctx context.Context, id int64) (models.Job, error) {
	var out models.Job
	err := r.db.GetContext(ctx, &out, `SELECT `+jobColumns+` FROM jobs WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return out, apperr.NotFound("no job: %d", id)
	}
	if err != nil {
		return out, fmt.Errorf("failed to find job: %w", err)
	}
	return out, nil
}

// Update applies a SET clause built by sqlfrag.PartialUpdate.
func (r *JobRepository) Update(ctx context.Context, id int64, set sqlfrag.Clause) (models.Job, error) {
	query := `UPDATE jobs SET ` + set.Fragment +
		` WHERE id = ` + sqlfrag.Placeholder(set.Next()) +
		` RETURNING ` + jobColumns

	var out models.Job
	err := r.db.GetContext(ctx, &out, query, set.Args(id)...)
	if errors.Is(err, sql.ErrNoRows) {
		return out, apperr.NotFound("no job: %d", id)
	}
	if isBadInput(err) {
		return out, badInput(err)
	}
	if err != nil {
		return out, fmt.Errorf("failed to update job: %w", err)
	}
	return out, nil
}

// Remove deletes a job.
func (r *JobRepository) Remove(ctx context.Context, id int64) error {
	var deleted int64
	err := r.db.GetContext(ctx, &deleted, `DELETE FROM jobs WHERE id = $1 RETURNING id`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("no job: %d", id)
	}
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	return nil
}
