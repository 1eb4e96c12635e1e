package models

// Job is a row of jobs. Equity is NUMERIC and travels as a decimal string
// ("0.05") to avoid float rounding.
type Job struct {
	ID            int64   `json:"id" db:"id"`
	Title         string  `json:"title" db:"title"`
	Salary        *int    `json:"salary" db:"salary"`
	Equity        *string `json:"equity" db:"equity"`
	CompanyHandle string  `json:"companyHandle" db:"company_handle"`
}

// JobSummary is a job listed under its company.
type JobSummary struct {
	ID     int64   `json:"id" db:"id"`
	Title  string  `json:"title" db:"title"`
	Salary *int    `json:"salary" db:"salary"`
	Equity *string `json:"equity" db:"equity"`
}

// NewJob is the body of POST /jobs.
type NewJob struct {
	Title         string  `json:"title" validate:"required,min=1"`
	Salary        *int    `json:"salary" validate:"omitempty,min=0,max=2147483647"`
	Equity        *string `json:"equity" validate:"omitempty,equity"`
	CompanyHandle string  `json:"companyHandle" validate:"required,min=1,max=25"`
}
