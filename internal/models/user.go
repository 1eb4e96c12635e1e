package models

// User is a row of users without its password hash.
type User struct {
	Username  string `json:"username" db:"username"`
	FirstName string `json:"firstName" db:"first_name"`
	LastName  string `json:"lastName" db:"last_name"`
	Email     string `json:"email" db:"email"`
	IsAdmin   bool   `json:"isAdmin" db:"is_admin"`
}

// UserWithPassword is only used to authenticate.
type UserWithPassword struct {
	User
	Password string `json:"-" db:"password"`
}

// UserDetail is a user with the ids of the jobs they applied to.
type UserDetail struct {
	User
	Jobs []int64 `json:"jobs"`
}

// NewUser is the body of POST /auth/register and POST /users. IsAdmin is
// only honoured on the admin route.
type NewUser struct {
	Username  string `json:"username" validate:"required,min=1,max=25"`
	Password  string `json:"password" validate:"required,min=5,max=20"`
	FirstName string `json:"firstName" validate:"required,min=1,max=30"`
	LastName  string `json:"lastName" validate:"required,min=1,max=30"`
	Email     string `json:"email" validate:"required,min=6,max=60,email"`
	IsAdmin   bool   `json:"isAdmin"`
}

// Credentials is the body of POST /auth/token.
type Credentials struct {
	Username string `json:"username" validate:"required,min=1,max=25"`
	Password string `json:"password" validate:"required,min=1,max=20"`
}

// Application links a user to a job.
type Application struct {
	Username string `json:"username" db:"username"`
	JobID    int64  `json:"jobId" db:"job_id"`
}
