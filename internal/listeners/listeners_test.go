package listeners

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biyonik/jobly-api/pkg/cache"
	"github.com/biyonik/jobly-api/pkg/events"
)

func seed(t *testing.T, c cache.Cache, keys ...string) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, c.Set(context.Background(), k, []byte("x"), time.Minute))
	}
}

func present(c cache.Cache, key string) bool {
	_, ok, _ := c.Get(context.Background(), key)
	return ok
}

func TestCacheInvalidator_CompanyClearsBoth(t *testing.T) {
	c := cache.NewMemoryCache("")
	seed(t, c, "companies:list:a", "jobs:list:b", "users:x")

	err := NewCacheInvalidator(c).Handle(context.Background(), events.New(events.CompanyUpdated, "acme", nil))
	require.NoError(t, err)

	assert.False(t, present(c, "companies:list:a"))
	assert.False(t, present(c, "jobs:list:b"))
	assert.True(t, present(c, "users:x"))
}

func TestCacheInvalidator_IgnoresUserEvents(t *testing.T) {
	c := cache.NewMemoryCache("")
	seed(t, c, "companies:list:a")

	err := NewCacheInvalidator(c).Handle(context.Background(), events.New(events.UserUpdated, "u1", nil))
	require.NoError(t, err)

	assert.True(t, present(c, "companies:list:a"))
}

func TestAuditLog(t *testing.T) {
	var buf bytes.Buffer
	l := NewAuditLog(zerolog.New(&buf))

	require.NoError(t, l.Handle(context.Background(), events.New(events.JobDeleted, "42", nil)))

	out := buf.String()
	assert.Contains(t, out, `"event":"job.deleted"`)
	assert.Contains(t, out, `"subject":"42"`)
	assert.Contains(t, out, `"component":"audit"`)
}

func TestRegister(t *testing.T) {
	c := cache.NewMemoryCache("")
	seed(t, c, "jobs:get:1")

	var buf bytes.Buffer
	d := events.NewDispatcher(zerolog.Nop())

	Register(d, c, zerolog.New(&buf))

	require.NoError(t, d.Dispatch(context.Background(), events.New(events.JobCreated, "9", nil)))
	assert.False(t, present(c, "jobs:get:1"))

	// The audit line is written in the background; shutdown waits for it.
	require.NoError(t, d.ShutdownWithTimeout(time.Second))
	assert.Contains(t, buf.String(), "job.created")
}
