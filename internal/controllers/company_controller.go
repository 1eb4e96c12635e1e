package controllers

import (
	"context"
	"net/http"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/http/response"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

// CompanyService is implemented by services.CompanyService.
type CompanyService interface {
	Create(ctx context.Context, in models.NewCompany) (models.Company, error)
	List(ctx context.Context, q sqlfrag.Filters) ([]models.Company, error)
	Get(ctx context.Context, handle string) (models.CompanyDetail, error)
	Update(ctx context.Context, handle string, fields sqlfrag.Fields) (models.Company, error)
	Remove(ctx context.Context, handle string) error
}

type CompanyController struct {
	companies CompanyService
}

func NewCompanyController(companies CompanyService) *CompanyController {
	return &CompanyController{companies: companies}
}

// Create handles POST /companies.
func (c *CompanyController) Create(w http.ResponseWriter, r *request.Request) {
	var in models.NewCompany
	if err := r.ParseJSON(&in); err != nil {
		fail(w, r, err)
		return
	}

	company, err := c.companies.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.Created(w, map[string]any{"company": company})
}

// List handles GET /companies?name=&minEmployees=&maxEmployees=.
func (c *CompanyController) List(w http.ResponseWriter, r *request.Request) {
	companies, err := c.companies.List(r.Context(), r.Filters())
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.Success(w, http.StatusOK, map[string]any{"companies": companies}, listMeta{Count: len(companies)})
}

// Get handles GET /companies/{handle}.
func (c *CompanyController) Get(w http.ResponseWriter, r *request.Request) {
	company, err := c.companies.Get(r.Context(), r.RouteParam("handle"))
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"company": company})
}

// Update handles PATCH /companies/{handle}.
func (c *CompanyController) Update(w http.ResponseWriter, r *request.Request) {
	var fields sqlfrag.Fields
	if err := r.ParseJSON(&fields); err != nil {
		fail(w, r, err)
		return
	}

	company, err := c.companies.Update(r.Context(), r.RouteParam("handle"), fields)
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"company": company})
}

// Remove handles DELETE /companies/{handle}.
func (c *CompanyController) Remove(w http.ResponseWriter, r *request.Request) {
	handle := r.RouteParam("handle")
	if err := c.companies.Remove(r.Context(), handle); err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"deleted": handle})
}
