// -----------------------------------------------------------------------------
// Application
// -----------------------------------------------------------------------------
// The composition root. New registers one provider per component in a
// container.Container and resolves the HTTP handler; everything the handler
// needs is built on the way:
//
//	config -> db -> repositories -> services -> controllers -> router
//	       -> cache -> events (+ listeners) ----^
//
// Close releases what was built, in reverse order.
// -----------------------------------------------------------------------------

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"

	"github.com/biyonik/jobly-api/internal/config"
	"github.com/biyonik/jobly-api/internal/controllers"
	"github.com/biyonik/jobly-api/internal/filters"
	"github.com/biyonik/jobly-api/internal/http/request"
	"github.com/biyonik/jobly-api/internal/listeners"
	"github.com/biyonik/jobly-api/internal/metrics"
	"github.com/biyonik/jobly-api/internal/middleware"
	"github.com/biyonik/jobly-api/internal/migrations"
	"github.com/biyonik/jobly-api/internal/repositories"
	"github.com/biyonik/jobly-api/internal/router"
	"github.com/biyonik/jobly-api/internal/services"
	"github.com/biyonik/jobly-api/pkg/auth"
	"github.com/biyonik/jobly-api/pkg/cache"
	"github.com/biyonik/jobly-api/pkg/container"
	"github.com/biyonik/jobly-api/pkg/database"
	"github.com/biyonik/jobly-api/pkg/database/migration"
	"github.com/biyonik/jobly-api/pkg/events"
)

const (
	cacheSweepInterval     = time.Minute
	rateLimitCleanup       = time.Minute
	rateLimitIdle          = 3 * time.Minute
	eventsShutdownDeadline = 5 * time.Second
)

// App is a wired Jobly API.
type App struct {
	cfg     *config.Config
	logger  zerolog.Logger
	c       *container.Container
	handler http.Handler
}

// Option adjusts New.
type Option func(*container.Container)

// WithDB uses db instead of connecting with the configured DSN. The caller
// keeps ownership of db.
func WithDB(db *sqlx.DB) Option {
	return func(c *container.Container) {
		container.Instance(c, db)
	}
}

// New wires the application. ctx bounds start-up work and stops the
// background sweepers when it is cancelled.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	c := container.New()
	container.Instance(c, cfg)
	provide(ctx, c, cfg, logger)
	for _, opt := range opts {
		opt(c)
	}

	a := &App{cfg: cfg, logger: logger, c: c}

	db, err := container.Resolve[*sqlx.DB](c)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	if err := prepareDatabase(ctx, db, cfg.DB, logger); err != nil {
		_ = a.Close()
		return nil, err
	}

	r, err := container.Resolve[*router.Router](c)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.handler = r
	return a, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.handler
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// for at most the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.Addr(),
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info().Str("addr", srv.Addr).Str("env", a.cfg.App.Env).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

// Close releases connections and stops the event dispatcher.
func (a *App) Close() error {
	return a.c.Close()
}

// prepareDatabase applies pending migrations and checks the filter
// registry against the live schema, as configured.
func prepareDatabase(ctx context.Context, db *sqlx.DB, cfg config.DBConfig, logger zerolog.Logger) error {
	if cfg.AutoMigrate {
		all, err := migrations.All()
		if err != nil {
			return fmt.Errorf("load migrations: %w", err)
		}
		applied, err := migration.NewMigrator(db, logger).Up(ctx, all)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Int("applied", len(applied)).Msg("migrations up to date")
	}

	if cfg.CheckSchema {
		if err := filters.CheckSchema(ctx, database.NewSchema(db), filters.Registry()); err != nil {
			return fmt.Errorf("schema check: %w", err)
		}
		logger.Debug().Msg("filter columns match schema")
	}
	return nil
}

func provide(ctx context.Context, c *container.Container, cfg *config.Config, logger zerolog.Logger) {
	container.Provide(c, func(c *container.Container) (*sqlx.DB, error) {
		dbCfg := database.DefaultConfig(cfg.DB.DSN)
		dbCfg.MaxOpenConns = cfg.DB.MaxOpenConns
		dbCfg.MaxIdleConns = cfg.DB.MaxIdleConns
		dbCfg.ConnMaxLifetime = cfg.DB.ConnMaxLifetime

		db, err := database.Connect(ctx, dbCfg, logger)
		if err != nil {
			return nil, err
		}
		c.OnClose(db.Close)
		return db, nil
	})

	container.Provide(c, func(c *container.Container) (cache.Cache, error) {
		opts := cache.Options{Prefix: cfg.Cache.Prefix}
		if cfg.Cache.Driver == "redis" {
			client, err := cache.NewRedisClient(ctx, cache.RedisConfig{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
				PoolSize: cfg.Redis.PoolSize,
			}, logger)
			if err != nil {
				return nil, err
			}
			c.OnClose(client.Close)
			opts.Redis = client
		}

		store, err := cache.New(cfg.Cache.Driver, opts)
		if err != nil {
			return nil, err
		}
		if mem, ok := store.(*cache.MemoryCache); ok {
			mem.StartSweeper(ctx, cacheSweepInterval)
		}
		logger.Info().Str("driver", cfg.Cache.Driver).Dur("ttl", cfg.Cache.TTL).Msg("cache ready")
		return metrics.Instrument(store), nil
	})

	container.Provide(c, func(c *container.Container) (*events.Dispatcher, error) {
		store, err := container.Resolve[cache.Cache](c)
		if err != nil {
			return nil, err
		}
		d := events.NewDispatcher(logger)
		listeners.Register(d, store, logger)
		c.OnClose(func() error {
			return d.ShutdownWithTimeout(eventsShutdownDeadline)
		})
		return d, nil
	})

	container.Provide(c, func(c *container.Container) (services.Deps, error) {
		store, err := container.Resolve[cache.Cache](c)
		if err != nil {
			return services.Deps{}, err
		}
		d, err := container.Resolve[*events.Dispatcher](c)
		if err != nil {
			return services.Deps{}, err
		}
		return services.Deps{Cache: store, CacheTTL: cfg.Cache.TTL, Events: d, Logger: logger}, nil
	})

	container.Provide(c, func(c *container.Container) (*services.CompanyService, error) {
		db, deps, err := storeDeps(c)
		if err != nil {
			return nil, err
		}
		return services.NewCompanyService(repositories.NewCompanyRepository(db), deps), nil
	})

	container.Provide(c, func(c *container.Container) (*services.JobService, error) {
		db, deps, err := storeDeps(c)
		if err != nil {
			return nil, err
		}
		return services.NewJobService(repositories.NewJobRepository(db), deps), nil
	})

	container.Provide(c, func(c *container.Container) (*services.UserService, error) {
		db, deps, err := storeDeps(c)
		if err != nil {
			return nil, err
		}
		return services.NewUserService(
			repositories.NewUserRepository(db),
			auth.NewHasher(cfg.Security.BcryptCost),
			jwtConfig(cfg),
			deps,
		), nil
	})

	container.Provide(c, func(*container.Container) (*middleware.RateLimiter, error) {
		rl := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
		rl.StartCleanup(ctx, rateLimitCleanup, rateLimitIdle)
		return rl, nil
	})

	container.Provide(c, func(c *container.Container) (*router.Router, error) {
		return buildRouter(c, cfg, logger)
	})
}

func storeDeps(c *container.Container) (*sqlx.DB, services.Deps, error) {
	db, err := container.Resolve[*sqlx.DB](c)
	if err != nil {
		return nil, services.Deps{}, err
	}
	deps, err := container.Resolve[services.Deps](c)
	return db, deps, err
}

func jwtConfig(cfg *config.Config) auth.JWTConfig {
	return auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		ExpirationTime: cfg.JWT.Expiration,
	}
}

func buildRouter(c *container.Container, cfg *config.Config, logger zerolog.Logger) (*router.Router, error) {
	companies, err := container.Resolve[*services.CompanyService](c)
	if err != nil {
		return nil, err
	}
	jobs, err := container.Resolve[*services.JobService](c)
	if err != nil {
		return nil, err
	}
	users, err := container.Resolve[*services.UserService](c)
	if err != nil {
		return nil, err
	}
	db, err := container.Resolve[*sqlx.DB](c)
	if err != nil {
		return nil, err
	}
	store, err := container.Resolve[cache.Cache](c)
	if err != nil {
		return nil, err
	}

	proxies, err := request.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	r := router.New()
	r.Use(
		middleware.Recovery(logger),
		middleware.ClientIP(proxies),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Metrics,
		middleware.CORS(cfg.Security.CORSOrigins),
	)
	if cfg.RateLimit.Enabled {
		rl, err := container.Resolve[*middleware.RateLimiter](c)
		if err != nil {
			return nil, err
		}
		r.Use(rl.Middleware)
	}
	r.Use(middleware.Authenticate(jwtConfig(cfg)))

	router.RegisterRoutes(r, router.Controllers{
		Auth:      controllers.NewAuthController(users),
		Companies: controllers.NewCompanyController(companies),
		Jobs:      controllers.NewJobController(jobs),
		Users:     controllers.NewUserController(users),
		Health:    controllers.NewHealthController(db, store),
	})
	if cfg.Metrics.Enabled {
		r.Handle(http.MethodGet, cfg.Metrics.Path, metrics.Handler())
	}

	logger.Debug().Strs("routes", r.Routes()).Msg("routes registered")
	return r, nil
}
