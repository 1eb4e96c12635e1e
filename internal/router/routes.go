package router

import (
	"github.com/biyonik/jobly-api/internal/controllers"
	"github.com/biyonik/jobly-api/internal/middleware"
)

// Controllers groups the actions RegisterRoutes mounts.
type Controllers struct {
	Auth      *controllers.AuthController
	Companies *controllers.CompanyController
	Jobs      *controllers.JobController
	Users     *controllers.UserController
	Health    *controllers.HealthController
}

// RegisterRoutes mounts the API:
//
//	POST   /auth/token                    anyone
//	POST   /auth/register                 anyone
//	GET    /companies, /companies/{handle} anyone
//	POST|PATCH|DELETE /companies...       admin
//	GET    /jobs, /jobs/{id}               anyone
//	POST|PATCH|DELETE /jobs...            admin
//	GET|POST /users                       admin
//	GET|PATCH|DELETE /users/{username}    admin or that user
//	POST   /users/{username}/jobs/{id}    admin or that user
//	GET    /health                        anyone
func RegisterRoutes(r *Router, c Controllers) {
	authGroup := r.Group("/auth")
	authGroup.POST("/token", c.Auth.Token)
	authGroup.POST("/register", c.Auth.Register)

	companies := r.Group("/companies")
	companies.GET("", c.Companies.List)
	companies.GET("/{handle}", c.Companies.Get)
	companies.POST("", c.Companies.Create).Middleware(middleware.EnsureAdmin)
	companies.PATCH("/{handle}", c.Companies.Update).Middleware(middleware.EnsureAdmin)
	companies.DELETE("/{handle}", c.Companies.Remove).Middleware(middleware.EnsureAdmin)

	jobs := r.Group("/jobs")
	jobs.GET("", c.Jobs.List)
	jobs.GET("/{id}", c.Jobs.Get)
	jobs.POST("", c.Jobs.Create).Middleware(middleware.EnsureAdmin)
	jobs.PATCH("/{id}", c.Jobs.Update).Middleware(middleware.EnsureAdmin)
	jobs.DELETE("/{id}", c.Jobs.Remove).Middleware(middleware.EnsureAdmin)

	users := r.Group("/users")
	users.GET("", c.Users.List).Middleware(middleware.EnsureAdmin)
	users.POST("", c.Users.Create).Middleware(middleware.EnsureAdmin)

	self := r.Group("/users", middleware.EnsureCorrectUserOrAdmin("username"))
	self.GET("/{username}", c.Users.Get)
	self.PATCH("/{username}", c.Users.Update)
	self.DELETE("/{username}", c.Users.Remove)
	self.POST("/{username}/jobs/{id}", c.Users.Apply)

	r.GET("/health", c.Health.Check)
}
