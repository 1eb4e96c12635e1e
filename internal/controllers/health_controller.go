package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/http/response"
	"github.com/biyonik/jobly-api/pkg/cache"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthController struct {
	db      Pinger
	cache   cache.Cache
	started time.Time
}

func NewHealthController(db Pinger, c cache.Cache) *HealthController {
	return &HealthController{db: db, cache: c, started: time.Now()}
}

// Check handles GET /health. The database must answer within two seconds;
// cache statistics are reported when the driver provides them.
func (c *HealthController) Check(w http.ResponseWriter, r *request.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	data := map[string]any{
		"status":   "ok",
		"database": "up",
		"uptime":   time.Since(c.started).Round(time.Second).String(),
	}
	if s, ok := c.cache.(cache.Stats); ok {
		data["cache"] = s.Stats()
	}

	if err := c.db.PingContext(ctx); err != nil {
		data["status"] = "degraded"
		data["database"] = "down"
		_ = response.Send(w, http.StatusServiceUnavailable, response.JSONResponse{
			Success: false,
			Data:    data,
			Error:   "database unavailable",
		})
		return
	}
	_ = response.OK(w, data)
}
