package services

import (
	"context"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/internal/filters"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/cache"
	"github.com/biyonik/jobly-api/pkg/events"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
	"github.com/biyonik/jobly-api/pkg/validation"
)

// CompanyStore is implemented by repositories.CompanyRepository.
type CompanyStore interface {
	Create(ctx context.Context, c models.NewCompany) (models.Company, error)
	FindAll(ctx context.Context, where sqlfrag.Clause) ([]models.Company, error)
	Get(ctx context.Context, handle string) (models.CompanyDetail, error)
	Update(ctx context.Context, handle string, set sqlfrag.Clause) (models.Company, error)
	Remove(ctx context.Context, handle string) error
}

type CompanyService struct {
	store CompanyStore
	deps  Deps
}

func NewCompanyService(store CompanyStore, deps Deps) *CompanyService {
	return &CompanyService{store: store, deps: deps.withDefaults()}
}

// Create validates and inserts a company.
func (s *CompanyService) Create(ctx context.Context, in models.NewCompany) (models.Company, error) {
	if err := validation.Struct(in); err != nil {
		return models.Company{}, err
	}

	company, err := s.store.Create(ctx, in)
	if err != nil {
		return models.Company{}, err
	}

	s.deps.publish(ctx, events.CompanyCreated, company.Handle, company)
	return company, nil
}

// List returns companies matching q, which may hold name, minEmployees and
// maxEmployees. Other keys are ignored.
//
// Example:
//
//	companies, err := svc.List(ctx, sqlfrag.Filters{"name": "net", "minEmployees": 100})
func (s *CompanyService) List(ctx context.Context, q sqlfrag.Filters) ([]models.Company, error) {
	if err := checkRange(q, "minEmployees", "maxEmployees"); err != nil {
		return nil, err
	}

	where, err := sqlfrag.Filter(q, filters.CompanyRules)
	if err != nil {
		return nil, err
	}

	key := cache.Key(CompaniesNamespace+"list", where.Fragment, where.Values)
	return cache.Remember(ctx, s.deps.Cache, key, s.deps.CacheTTL, func() ([]models.Company, error) {
		return s.store.FindAll(ctx, where)
	})
}

// Get returns a company with its jobs.
func (s *CompanyService) Get(ctx context.Context, handle string) (models.CompanyDetail, error) {
	key := cache.Key(CompaniesNamespace+"get", handle)
	return cache.Remember(ctx, s.deps.Cache, key, s.deps.CacheTTL, func() (models.CompanyDetail, error) {
		return s.store.Get(ctx, handle)
	})
}

// Update applies a partial update. Unknown or mistyped fields are rejected
// before any SQL is built.
func (s *CompanyService) Update(ctx context.Context, handle string, fields sqlfrag.Fields) (models.Company, error) {
	if err := filters.CompanyPatch.Validate(fields); err != nil {
		return models.Company{}, err
	}

	set, err := sqlfrag.PartialUpdate(fields, filters.CompanyAliases)
	if err != nil {
		return models.Company{}, err
	}

	company, err := s.store.Update(ctx, handle, set)
	if err != nil {
		return models.Company{}, err
	}

	s.deps.logUpdated("company", company.Handle, fields)
	s.deps.publish(ctx, events.CompanyUpdated, company.Handle, company)
	return company, nil
}

func (s *CompanyService) Remove(ctx context.Context, handle string) error {
	if err := s.store.Remove(ctx, handle); err != nil {
		return err
	}
	s.deps.publish(ctx, events.CompanyDeleted, handle, nil)
	return nil
}

// checkRange rejects a filter whose lower bound exceeds its upper bound.
// Values that are not numbers are left for sqlfrag.Filter to report.
func checkRange(q sqlfrag.Filters, minKey, maxKey string) error {
	rawMin, okMin := q[minKey]
	rawMax, okMax := q[maxKey]
	if !okMin || !okMax {
		return nil
	}

	lo, errMin := asFloat(rawMin)
	hi, errMax := asFloat(rawMax)
	if errMin != nil || errMax != nil {
		return nil
	}
	if lo > hi {
		return apperr.BadRequest("%s cannot be greater than %s", minKey, maxKey)
	}
	return nil
}

func asFloat(raw any) (float64, error) {
	n, _, err := sqlfrag.Numeric(raw)
	if err != nil {
		return 0, err
	}
	switch v := n.(type) {
	case int64:
		return float64(v), nil
	case float64:
		return v, nil
	}
	return 0, apperr.BadRequest("not a number")
}
