package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/biyonik/jobly-api/internal/apperr"
	"github.com/biyonik/jobly-api/internal/filters"
	"github.com/biyonik/jobly-api/internal/models"
	"github.com/biyonik/jobly-api/pkg/auth"
	"github.com/biyonik/jobly-api/pkg/events"
	"github.com/biyonik/jobly-api/pkg/sqlfrag"
	"github.com/biyonik/jobly-api/pkg/validation"
)

// UserStore is implemented by repositories.UserRepository.
type UserStore interface {
	FindWithPassword(ctx context.Context, username string) (models.UserWithPassword, error)
	Create(ctx context.Context, u models.NewUser, passwordHash string) (models.User, error)
	FindAll(ctx context.Context) ([]models.User, error)
	Get(ctx context.Context, username string) (models.UserDetail, error)
	Update(ctx context.Context, username string, set sqlfrag.Clause) (models.User, error)
	Remove(ctx context.Context, username string) error
	ApplyToJob(ctx context.Context, username string, jobID int64) error
}

var errBadCredentials = apperr.Unauthorized("invalid username/password")

// UserService owns accounts, authentication and job applications.
type UserService struct {
	store  UserStore
	hasher auth.Hasher
	jwt    auth.JWTConfig
	deps   Deps
}

func NewUserService(store UserStore, hasher auth.Hasher, jwt auth.JWTConfig, deps Deps) *UserService {
	return &UserService{store: store, hasher: hasher, jwt: jwt, deps: deps.withDefaults()}
}

// Authenticate checks credentials and returns a token. Unknown users and
// wrong passwords give the same error.
//
// A hash made with a lower bcrypt cost than configured is upgraded on
// success.
func (s *UserService) Authenticate(ctx context.Context, creds models.Credentials) (string, error) {
	if err := validation.Struct(creds); err != nil {
		return "", err
	}

	u, err := s.store.FindWithPassword(ctx, creds.Username)
	if errors.Is(err, apperr.ErrNotFound) {
		return "", errBadCredentials
	}
	if err != nil {
		return "", err
	}
	if !s.hasher.Check(creds.Password, u.Password) {
		return "", errBadCredentials
	}

	if s.hasher.NeedsRehash(u.Password) {
		s.rehash(ctx, creds)
	}
	return s.token(u.User)
}

func (s *UserService) rehash(ctx context.Context, creds models.Credentials) {
	hash, err := s.hasher.Hash(creds.Password)
	if err == nil {
		var set sqlfrag.Clause
		set, err = sqlfrag.PartialUpdate(sqlfrag.NewFields("password", hash), nil)
		if err == nil {
			_, err = s.store.Update(ctx, creds.Username, set)
		}
	}
	if err != nil {
		s.deps.Logger.Warn().Err(err).Str("username", creds.Username).Msg("password rehash failed")
	}
}

// Register creates a non-admin account and returns a token for it.
func (s *UserService) Register(ctx context.Context, in models.NewUser) (string, error) {
	in.IsAdmin = false

	u, err := s.create(ctx, in)
	if err != nil {
		return "", err
	}

	s.deps.publish(ctx, events.UserRegistered, u.Username, u)
	return s.token(u)
}

// Create is the admin route: IsAdmin is honoured. It returns the user and a
// token for them.
func (s *UserService) Create(ctx context.Context, in models.NewUser) (models.User, string, error) {
	u, err := s.create(ctx, in)
	if err != nil {
		return models.User{}, "", err
	}

	s.deps.publish(ctx, events.UserCreated, u.Username, u)
	token, err := s.token(u)
	return u, token, err
}

func (s *UserService) create(ctx context.Context, in models.NewUser) (models.User, error) {
	if err := validation.Struct(in); err != nil {
		return models.User{}, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}
	return s.store.Create(ctx, in, hash)
}

func (s *UserService) List(ctx context.Context) ([]models.User, error) {
	return s.store.FindAll(ctx)
}

func (s *UserService) Get(ctx context.Context, username string) (models.UserDetail, error) {
	return s.store.Get(ctx, username)
}

// Update applies a partial update. asAdmin selects filters.AdminUserPatch.
// A new password is hashed before it reaches the SET clause.
func (s *UserService) Update(ctx context.Context, username string, fields sqlfrag.Fields, asAdmin bool) (models.User, error) {
	schema := filters.UserPatch
	if asAdmin {
		schema = filters.AdminUserPatch
	}
	if err := schema.Validate(fields); err != nil {
		return models.User{}, err
	}

	if raw, ok := fields.Get("password"); ok {
		hash, err := s.hasher.Hash(raw.(string))
		if err != nil {
			return models.User{}, fmt.Errorf("failed to hash password: %w", err)
		}
		fields = fields.Set("password", hash)
	}

	set, err := sqlfrag.PartialUpdate(fields, filters.UserAliases)
	if err != nil {
		return models.User{}, err
	}

	u, err := s.store.Update(ctx, username, set)
	if err != nil {
		return models.User{}, err
	}

	s.deps.logUpdated("user", username, fields)
	s.deps.publish(ctx, events.UserUpdated, username, u)
	return u, nil
}

func (s *UserService) Remove(ctx context.Context, username string) error {
	if err := s.store.Remove(ctx, username); err != nil {
		return err
	}
	s.deps.publish(ctx, events.UserDeleted, username, nil)
	return nil
}

// Apply records username's application to jobID.
func (s *UserService) Apply(ctx context.Context, username string, jobID int64) error {
	if err := s.store.ApplyToJob(ctx, username, jobID); err != nil {
		return err
	}
	s.deps.publish(ctx, events.ApplicationCreated, username, models.Application{Username: username, JobID: jobID})
	return nil
}

func (s *UserService) token(u models.User) (string, error) {
	token, err := auth.GenerateToken(u.Username, u.IsAdmin, s.jwt)
	if err != nil {
		return "", fmt.Errorf("failed to sign token for %q: %w", u.Username, err)
	}
	return token, nil
}
