package lock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

func testLocker(t *testing.T, ttl time.Duration) *Locker {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	require.NoError(t, client.Ping(context.Background()).Err())

	l := New(client, ttl)
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func TestKey(t *testing.T) {
	assert.Equal(t, "lottery:deploy-lock:goerli", Key("goerli"))
}

func TestNewDefaultsTTL(t *testing.T) {
	l := New(nil, 0)
	assert.Equal(t, DefaultTTL, l.ttl)
	assert.Equal(t, DefaultTTL/3, l.renewEvery)
}

func TestAcquireRelease(t *testing.T) {
	l := testLocker(t, time.Minute)
	ctx := context.Background()
	network := "test-" + uuid.NewString()

	release, err := l.Acquire(ctx, network)
	require.NoError(t, err)

	_, err = l.Acquire(ctx, network)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrLocked)

	require.NoError(t, release(ctx))

	release, err = l.Acquire(ctx, network)
	require.NoError(t, err)
	require.NoError(t, release(ctx))
}

func TestReleaseDoesNotDropForeignLock(t *testing.T) {
	l := testLocker(t, time.Minute)
	ctx := context.Background()
	network := "test-" + uuid.NewString()

	release, err := l.Acquire(ctx, network)
	require.NoError(t, err)

	// Simulate expiry followed by another run taking the lock.
	require.NoError(t, l.client.Set(ctx, Key(network), "someone-else", time.Minute).Err())
	require.NoError(t, release(ctx))

	val, err := l.client.Get(ctx, Key(network)).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", val)
	require.NoError(t, l.client.Del(ctx, Key(network)).Err())
}

func TestHeldLockOutlivesTTL(t *testing.T) {
	l := testLocker(t, 300*time.Millisecond)
	ctx := context.Background()
	network := "test-" + uuid.NewString()

	release, err := l.Acquire(ctx, network)
	require.NoError(t, err)

	time.Sleep(time.Second)
	_, err = l.Acquire(ctx, network)
	assert.ErrorIs(t, err, apperrors.ErrLocked)

	require.NoError(t, release(ctx))
	require.NoError(t, release(ctx))

	n, err := l.client.Exists(ctx, Key(network)).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReleasedLockStopsRenewing(t *testing.T) {
	l := testLocker(t, 300*time.Millisecond)
	ctx := context.Background()
	network := "test-" + uuid.NewString()

	release, err := l.Acquire(ctx, network)
	require.NoError(t, err)
	require.NoError(t, release(ctx))

	// Another run takes the lock with a short TTL; it must expire on its own.
	require.NoError(t, l.client.Set(ctx, Key(network), "someone-else", 200*time.Millisecond).Err())
	time.Sleep(500 * time.Millisecond)

	n, err := l.client.Exists(ctx, Key(network)).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
