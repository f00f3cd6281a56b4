package cache

import (
	"context"
	"testing"
	"time"

	"github.com/gateway/backend/internal/domain/access"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRefs() []access.EndpointRef {
	return []access.EndpointRef{
		{PermissionID: 1, Name: "Create bucket", Pattern: "create-bucket"},
		{PermissionID: 2, Name: "Get bucket", Pattern: "get-bucket"},
	}
}

func mustSet(t *testing.T, c access.EntitlementCache, planID int64, refs []access.EndpointRef) {
	t.Helper()
	ctx := context.Background()
	gen, err := c.Generation(ctx, planID)
	require.NoError(t, err)
	stored, err := c.Set(ctx, planID, gen, refs)
	require.NoError(t, err)
	require.True(t, stored)
}

func TestMemoryEntitlementCache_GetSet(t *testing.T) {
	c := NewMemoryEntitlementCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	refs, ok, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, refs)

	mustSet(t, c, 7, testRefs())

	refs, ok, err = c.Get(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, testRefs(), refs)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Size)
}

func TestMemoryEntitlementCache_EmptyPlanIsAHit(t *testing.T) {
	c := NewMemoryEntitlementCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	mustSet(t, c, 3, nil)
	refs, ok, err := c.Get(ctx, 3)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, refs)
}

func TestMemoryEntitlementCache_ReturnsCopies(t *testing.T) {
	c := NewMemoryEntitlementCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	refs := testRefs()
	mustSet(t, c, 7, refs)
	refs[0].Pattern = "mutated"

	cached, _, err := c.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, "create-bucket", cached[0].Pattern)
}

func TestMemoryEntitlementCache_Expiry(t *testing.T) {
	c := NewMemoryEntitlementCache(20 * time.Millisecond)
	defer c.Close()
	ctx := context.Background()

	mustSet(t, c, 7, testRefs())
	assert.Eventually(t, func() bool {
		_, ok, _ := c.Get(ctx, 7)
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryEntitlementCache_Invalidate(t *testing.T) {
	c := NewMemoryEntitlementCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	mustSet(t, c, 1, testRefs())
	mustSet(t, c, 2, testRefs())
	require.NoError(t, c.Invalidate(ctx, 1, 99))

	_, ok, _ := c.Get(ctx, 1)
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, 2)
	assert.True(t, ok)
}

func TestMemoryEntitlementCache_CloseTwice(t *testing.T) {
	c := NewMemoryEntitlementCache(0)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestMemoryEntitlementCache_SetAfterInvalidateIsRejected(t *testing.T) {
	c := NewMemoryEntitlementCache(time.Minute)
	defer c.Close()
	ctx := context.Background()

	gen, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), gen)

	require.NoError(t, c.Invalidate(ctx, 7))

	stored, err := c.Set(ctx, 7, gen, testRefs())
	require.NoError(t, err)
	assert.False(t, stored)
	_, ok, _ := c.Get(ctx, 7)
	assert.False(t, ok)

	next, err := c.Generation(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), next)
	stored, err = c.Set(ctx, 7, next, testRefs())
	require.NoError(t, err)
	assert.True(t, stored)
}
