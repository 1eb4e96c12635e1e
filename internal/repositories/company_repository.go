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

const companyColumns = `handle, name, description, num_employees, logo_url`

// CompanyRepository reads and writes companies.
type CompanyRepository struct {
	db database.Executor
}

func NewCompanyRepository(db *sqlx.DB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create inserts a company. A taken handle or name is a bad request.
func (r *CompanyRepository) Create(ctx context.Context, c models.NewCompany) (models.Company, error) {
	var out models.Company
	err := r.db.GetContext(ctx, &out,
		`INSERT INTO companies (handle, name, description, num_employees, logo_url)
VALUES ($1, $2, $3, $4, $5)
RETURNING `+companyColumns,
		c.Handle, c.Name, c.Description, c.NumEmployees, c.LogoURL)
	if isUniqueViolation(err) {
		return models.Company{}, apperr.BadRequest("duplicate company: %s", c.Handle)
	}
	if isBadInput(err) {
		return models.Company{}, badInput(err)
	}
	if err != nil {
		return models.Company{}, fmt.Errorf("failed to create company: %w", err)
	}
	return out, nil
}

// FindAll lists companies matching where, ordered by name. An empty clause
// lists everything.
func (r *CompanyRepository) FindAll(ctx context.Context, where sqlfrag.Clause) ([]models.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies` + where.Where() + ` ORDER BY name`

	companies := []models.Company{}
	if err := r.db.SelectContext(ctx, &companies, query, where.Values...); err != nil {
		if isBadInput(err) {
			return nil, badInput(err)
		}
		return nil, fmt.Errorf("failed to query companies: %w", err)
	}
	return companies, nil
}

// Get returns a company and its jobs.
func (r *CompanyRepository) Get(ctx context.Context, handle string) (models.CompanyDetail, error) {
	var out models.CompanyDetail
	err := r.db.GetContext(ctx, &out.Company,
		`SELECT `+companyColumns+` FROM companies WHERE handle = $1`, handle)
	if errors.Is(err, sql.ErrNoRows) {
		return out, apperr.NotFound("no company: %s", handle)
	}
	if err != nil {
		return out, fmt.Errorf("failed to find company: %w", err)
	}

	out.Jobs = []models.JobSummary{}
	err = r.db.SelectContext(ctx, &out.Jobs,
		`SELECT id, title, salary, equity FROM jobs WHERE company_handle = $1 ORDER BY id`, handle)
	if err != nil {
		return out, fmt.Errorf("failed to query company jobs: %w", err)
	}
	return out, nil
}

// Update applies a SET clause built by sqlfrag.PartialUpdate.
func (r *CompanyRepository) Update(ctx context.Context, handle string, set sqlfrag.Clause) (models.Company, error) {
	query := `UPDATE companies SET ` + set.Fragment +
		` WHERE handle = ` + sqlfrag.Placeholder(set.Next()) +
		` RETURNING ` + companyColumns

	var out models.Company
	err := r.db.GetContext(ctx, &out, query, set.Args(handle)...)
	if errors.Is(err, sql.ErrNoRows) {
		return out, apperr.NotFound("no company: %s", handle)
	}
	if isUniqueViolation(err) {
		return out, apperr.BadRequest("duplicate company name")
	}
	if isBadInput(err) {
		return out, badInput(err)
	}
	if err != nil {
		return out, fmt.Errorf("failed to update company: %w", err)
	}
	return out, nil
}

// Remove deletes a company; its jobs go with it.
func (r *CompanyRepository) Remove(ctx context.Context, handle string) error {
	var deleted string
	err := r.db.GetContext(ctx, &deleted, `DELETE FROM companies WHERE handle = $1 RETURNING handle`, handle)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("no company: %s", handle)
	}
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}
