package controllers

import (
	"context"
	"net/http"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/http/response"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
)

// UserService is implemented by services.UserService.
type UserService interface {
	Authenticate(ctx context.Context, creds models.Credentials) (string, error)
	Register(ctx context.Context, in models.NewUser) (string, error)
	Create(ctx context.Context, in models.NewUser) (models.User, string, error)
	List(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, username string) (models.UserDetail, error)
	Update(ctx context.Context, username string, fields sqlfrag.Fields, asAdmin bool) (models.User, error)
	Remove(ctx context.Context, username string) error
	Apply(ctx context.Context, username string, jobID int64) error
}

// AuthController serves /auth.
type AuthController struct {
	users UserService
}

func NewAuthController(users UserService) *AuthController {
	return &AuthController{users: users}
}

// Token handles POST /auth/token.
func (c *AuthController) Token(w http.ResponseWriter, r *request.Request) {
	var creds models.Credentials
	if err := r.ParseJSON(&creds); err != nil {
		fail(w, r, err)
		return
	}

	token, err := c.users.Authenticate(r.Context(), creds)
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]string{"token": token})
}

// Register handles POST /auth/register.
func (c *AuthController) Register(w http.ResponseWriter, r *request.Request) {
	var in models.NewUser
	if err := r.ParseJSON(&in); err != nil {
		fail(w, r, err)
		return
	}

	token, err := c.users.Register(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.Created(w, map[string]string{"token": token})
}

// UserController serves /users.
type UserController struct {
	users UserService
}

func NewUserController(users UserService) *UserController {
	return &UserController{users: users}
}

// Create handles POST /users (admin only).
func (c *UserController) Create(w http.ResponseWriter, r *request.Request) {
	var in models.NewUser
	if err := r.ParseJSON(&in); err != nil {
		fail(w, r, err)
		return
	}

	user, token, err := c.users.Create(r.Context(), in)
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.Created(w, map[string]any{"user": user, "token": token})
}

// List handles GET /users (admin only).
func (c *UserController) List(w http.ResponseWriter, r *request.Request) {
	users, err := c.users.List(r.Context())
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.Success(w, http.StatusOK, map[string]any{"users": users}, listMeta{Count: len(users)})
}

// Get handles GET /users/{username}.
func (c *UserController) Get(w http.ResponseWriter, r *request.Request) {
	user, err := c.users.Get(r.Context(), r.RouteParam("username"))
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"user": user})
}

// Update handles PATCH /users/{username}. Only admins may change isAdmin.
func (c *UserController) Update(w http.ResponseWriter, r *request.Request) {
	var fields sqlfrag.Fields
	if err := r.ParseJSON(&fields); err != nil {
		fail(w, r, err)
		return
	}

	user, err := c.users.Update(r.Context(), r.RouteParam("username"), fields, r.IsAdmin())
	if err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"user": user})
}

// Remove handles DELETE /users/{username}.
func (c *UserController) Remove(w http.ResponseWriter, r *request.Request) {
	username := r.RouteParam("username")
	if err := c.users.Remove(r.Context(), username); err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"deleted": username})
}

// Apply handles POST /users/{username}/jobs/{id}.
func (c *UserController) Apply(w http.ResponseWriter, r *request.Request) {
	jobID, err := r.RouteInt("id")
	if err != nil {
		fail(w, r, err)
		return
	}

	if err := c.users.Apply(r.Context(), r.RouteParam("username"), jobID); err != nil {
		fail(w, r, err)
		return
	}
	_ = response.OK(w, map[string]any{"applied": jobID})
}
