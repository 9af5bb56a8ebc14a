package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLockerMutualExclusion(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	token, acquired, err := l.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	require.True(t, acquired)
	require.NotEmpty(t, token)

	_, acquired, err = l.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	// A different job name is an independent lock.
	_, acquired, err = l.TryAcquire(ctx, "notify", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	require.NoError(t, l.Release(ctx, "sync", token))

	_, acquired, err = l.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestMemoryLockerLeaseExpiry(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	token, acquired, err := l.TryAcquire(ctx, "sync", time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	time.Sleep(5 * time.Millisecond)

	// Lease expired: the lock is reclaimable and renewal fails.
	_, acquired, err = l.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	assert.True(t, acquired)

	assert.ErrorIs(t, l.Renew(ctx, "sync", token, time.Minute), ErrLockLost)
}

func TestMemoryLockerRenewExtendsLease(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	token, acquired, err := l.TryAcquire(ctx, "sync", 50*time.Millisecond)
	require.NoError(t, err)
	require.True(t, acquired)

	require.NoError(t, l.Renew(ctx, "sync", token, time.Minute))

	time.Sleep(60 * time.Millisecond)

	_, acquired, err = l.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)
}

func TestMemoryLockerReleaseIgnoresStaleToken(t *testing.T) {
	l := NewMemoryLocker()
	ctx := context.Background()

	token, _, err := l.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)

	require.NoError(t, l.Release(ctx, "sync", "stale-token"))

	// The real holder still owns the lock.
	_, acquired, err := l.TryAcquire(ctx, "sync", time.Minute)
	require.NoError(t, err)
	assert.False(t, acquired)

	require.NoError(t, l.Release(ctx, "sync", token))
}
