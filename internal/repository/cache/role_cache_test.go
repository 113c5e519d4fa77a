package cache

import (
	"context"
	"testing"
	"time"

	"institute-service/internal/domain/role"
	"institute-service/internal/repository"
	apperrors "institute-service/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingRoles struct {
	repository.RoleRepository
	roles map[int64]string
	calls int
	// duringWrite runs after the write is accepted but before it is applied.
	duringWrite func(id int64)
}

func (r *countingRoles) beforeApply(id int64) {
	if r.duringWrite != nil {
		r.duringWrite(id)
	}
}

func (r *countingRoles) GetByID(ctx context.Context, id int64) (*role.Role, error) {
	r.calls++
	name, ok := r.roles[id]
	if !ok {
		return nil, apperrors.NotFound("role not found")
	}
	return &role.Role{ID: id, Name: name}, nil
}

func (r *countingRoles) Update(ctx context.Context, id int64, input role.UpdateRoleInput) (*role.Role, error) {
	r.beforeApply(id)
	r.roles[id] = *input.Name
	return &role.Role{ID: id, Name: *input.Name}, nil
}

func (r *countingRoles) Delete(ctx context.Context, id int64) error {
	r.beforeApply(id)
	delete(r.roles, id)
	return nil
}

type fixedClock struct{ t time.Time }

func (c *fixedClock) now() time.Time { return c.t }

func newTestCache(ttl time.Duration) (*RoleCache, *countingRoles, *fixedClock) {
	next := &countingRoles{roles: map[int64]string{1: "teacher", 2: "admin"}}
	clock := &fixedClock{t: time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)}
	c := NewRoleCache(next, ttl)
	c.now = clock.now
	return c, next, clock
}

func TestRoleCacheServesRepeatLookups(t *testing.T) {
	c, next, _ := newTestCache(time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rl, err := c.GetByID(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, "teacher", rl.Name)
	}
	assert.Equal(t, 1, next.calls)
}

func TestRoleCacheReturnsCopies(t *testing.T) {
	c, _, _ := newTestCache(time.Minute)
	ctx := context.Background()

	rl, err := c.GetByID(ctx, 1)
	require.NoError(t, err)
	rl.Name = "mutated"

	again, err := c.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "teacher", again.Name)
}

func TestRoleCacheExpires(t *testing.T) {
	c, next, clock := newTestCache(time.Minute)
	ctx := context.Background()

	_, err := c.GetByID(ctx, 1)
	require.NoError(t, err)

	clock.t = clock.t.Add(2 * time.Minute)
	_, err = c.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestRoleCacheDoesNotCacheMisses(t *testing.T) {
	c, next, _ := newTestCache(time.Minute)
	ctx := context.Background()

	_, err := c.GetByID(ctx, 9)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = c.GetByID(ctx, 9)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.Equal(t, 2, next.calls)
	assert.Zero(t, c.Len())
}

func TestRoleCacheInvalidatesOnWrite(t *testing.T) {
	c, _, _ := newTestCache(time.Hour)
	ctx := context.Background()

	_, err := c.GetByID(ctx, 1)
	require.NoError(t, err)

	name := "faculty"
	_, err = c.Update(ctx, 1, role.UpdateRoleInput{Name: &name})
	require.NoError(t, err)

	rl, err := c.GetByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "faculty", rl.Name)

	require.NoError(t, c.Delete(ctx, 1))
	_, err = c.GetByID(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRoleCacheDropsRowsLoadedDuringWrite(t *testing.T) {
	c, next, _ := newTestCache(time.Hour)
	ctx := context.Background()

	var seen []string
	next.duringWrite = func(id int64) {
		rl, err := c.GetByID(ctx, id)
		require.NoError(t, err)
		seen = append(seen, rl.Name)
	}

	require.NoError(t, c.Delete(ctx, 1))
	_, err := c.GetByID(ctx, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "deleted role must not resolve from cache")

	name := "faculty"
	_, err = c.Update(ctx, 2, role.UpdateRoleInput{Name: &name})
	require.NoError(t, err)
	rl, err := c.GetByID(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "faculty", rl.Name)

	assert.Equal(t, []string{"teacher", "admin"}, seen, "lookups during the writes saw the old rows")
}

func TestRoleCachePurge(t *testing.T) {
	c, _, clock := newTestCache(time.Minute)
	ctx := context.Background()

	_, err := c.GetByID(ctx, 1)
	require.NoError(t, err)
	clock.t = clock.t.Add(30 * time.Second)
	_, err = c.GetByID(ctx, 2)
	require.NoError(t, err)

	clock.t = clock.t.Add(45 * time.Second)
	c.Purge()
	assert.Equal(t, 1, c.Len())
}
