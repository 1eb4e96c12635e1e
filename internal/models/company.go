// -----------------------------------------------------------------------------
// Models
// -----------------------------------------------------------------------------
// Row types (db tags for sqlx, json tags for the API) and the request bodies
// that create them. Partial updates do not have a struct: they arrive as
// ordered sqlfrag.Fields and are checked against a patch schema instead.
// -----------------------------------------------------------------------------

package models

// Company is a row of companies.
type Company struct {
	Handle       string  `json:"handle" db:"handle"`
	Name         string  `json:"name" db:"name"`
	Description  string  `json:"description" db:"description"`
	NumEmployees *int    `json:"numEmployees" db:"num_employees"`
	LogoURL      *string `json:"logoUrl" db:"logo_url"`
}

// CompanyDetail is a company with its open jobs.
type CompanyDetail struct {
	Company
	Jobs []JobSummary `json:"jobs"`
}

// NewCompany is the body of POST /companies.
type NewCompany struct {
	Handle       string  `json:"handle" validate:"required,min=1,max=25,lowercase"`
	Name         string  `json:"name" validate:"required,min=1"`
	Description  string  `json:"description" validate:"required"`
	NumEmployees *int    `json:"numEmployees" validate:"omitempty,min=0,max=2147483647"`
	LogoURL      *string `json:"logoUrl" validate:"omitempty,url"`
}
