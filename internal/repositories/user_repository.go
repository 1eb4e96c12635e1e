package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/database"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

const userColumns = `username, first_name, last_name, email, is_admin`

// UserRepository reads and writes users and their applications. Passwords
// arrive already hashed.
type UserRepository struct {
	db database.Executor
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindWithPassword loads a user together with the password hash.
func (r *UserRepository) FindWithPassword(ctx context.Context, username string) (models.UserWithPassword, error) {
	var out models.UserWithPassword
	err := r.db.GetContext(ctx, &out,
		`SELECT `+userColumns+`, password FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return out, apperr.NotFound("no user: %s", username)
	}
	if err != nil {
		return out, fmt.Errorf("failed to find user: %w", err)
	}
	return out, nil
}

// Create inserts a user with an already hashed password.
func (r *UserRepository) Create(ctx context.Context, u models.NewUser, passwordHash string) (models.User, error) {
	var out models.User
	err := r.db.GetContext(ctx, &out,
		`INSERT INTO users (username, password, first_name, last_name, email, is_admin)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+userColumns,
		u.Username, passwordHash, u.FirstName, u.LastName, u.Email, u.IsAdmin)
	if isUniqueViolation(err) {
		return models.User{}, apperr.BadRequest("duplicate username: %s", u.Username)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return out, nil
}

// FindAll lists users ordered by username.
func (r *UserRepository) FindAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	if err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY username`); err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	return users, nil
}

// Get returns a user and the ids of the jobs they applied to.
func (r *UserRepository) Get(ctx context.Context, username string) (models.UserDetail, error) {
	var out models.UserDetail
	err := r.db.GetContext(ctx, &out.User, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return out, apperr.NotFound("no user: %s", username)
	}
	if err != nil {
		return out, fmt.Errorf("failed to find user: %w", err)
	}

	out.Jobs = []int64{}
	err = r.db.SelectContext(ctx, &out.Jobs,
		`SELECT job_id FROM applications WHERE username = $1 ORDER BY job_id`, username)
	if err != nil {
		return out, fmt.Errorf("failed to query applications: %w", err)
	}
	return out, nil
}

// Update applies a SET clause built by sqlfrag.PartialUpdate.
func (r *UserRepository) Update(ctx context.Context, username string, set sqlfrag.Clause) (models.User, error) {
	query := `UPDATE users SET ` + set.Fragment +
		` WHERE username = ` + sqlfrag.Placeholder(set.Next()) +
		` RETURNING ` + userColumns

	var out models.User
	err := r.db.GetContext(ctx, &out, query, set.Args(username)...)
	if errors.Is(err, sql.ErrNoRows) {
		return out, apperr.NotFound("no user: %s", username)
	}
	if isBadInput(err) {
		return out, badInput(err)
	}
	if err != nil {
		return out, fmt.Errorf("failed to update user: %w", err)
	}
	return out, nil
}

// Remove deletes a user.
func (r *UserRepository) Remove(ctx context.Context, username string) error {
	var deleted string
	err := r.db.GetContext(ctx, &deleted, `DELETE FROM users WHERE username = $1 RETURNING username`, username)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.NotFound("no user: %s", username)
	}
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return nil
}

// ApplyToJob records an application. A missing user or job is not found;
// applying twice is a conflict.
func (r *UserRepository) ApplyToJob(ctx context.Context, username string, jobID int64) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (username, job_id) VALUES ($1, $2)`, username, jobID)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return apperr.Conflict("already applied to job %d", jobID)
	case isForeignKeyViolation(err):
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && strings.Contains(pqErr.Constraint, "job_id") {
			return apperr.NotFound("no job: %d", jobID)
		}
		return apperr.NotFound("no user: %s", username)
	default:
		return fmt.Errorf("failed to apply to job: %w", err)
	}
}
