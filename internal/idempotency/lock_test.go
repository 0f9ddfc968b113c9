package idempotency

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rosadoagency/appointment-api/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, redis.RedisAdapter) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	connName := t.Name() + "-" + mr.Addr()
	adapter, err := redis.NewRedisAdapter(connName, "test:", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = adapter.Close() })

	return mr, adapter
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	locker := NewRedisLocker(adapter, DefaultConfig())
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, 7)
	require.NoError(t, err)
	assert.True(t, mr.Exists("test:reminder:lock:7"))

	_, err = locker.Acquire(ctx, 7)
	assert.ErrorIs(t, err, ErrLockHeld)

	other, err := locker.Acquire(ctx, 8)
	require.NoError(t, err)
	require.NoError(t, other.Release(ctx))

	require.NoError(t, lease.Release(ctx))
	assert.False(t, mr.Exists("test:reminder:lock:7"))
	require.NoError(t, lease.Release(ctx))

	again, err := locker.Acquire(ctx, 7)
	require.NoError(t, err)
	require.NoError(t, again.Release(ctx))
}

func TestRedisLocker_Expiry(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	locker := NewRedisLocker(adapter, Config{LockTTL: time.Second, LockKeyPrefix: "lock:"})
	ctx := context.Background()

	stale, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)

	mr.FastForward(2 * time.Second)

	fresh, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)

	// the expired holder must not drop the new holder's key
	require.NoError(t, stale.Release(ctx))
	assert.True(t, mr.Exists("test:lock:1"))

	require.NoError(t, fresh.Release(ctx))
	assert.False(t, mr.Exists("test:lock:1"))
}

func TestRedisLocker_RedisDown(t *testing.T) {
	mr, adapter := setupTestRedis(t)
	locker := NewRedisLocker(adapter, DefaultConfig())

	mr.Close()

	_, err := locker.Acquire(context.Background(), 1)
	assert.ErrorIs(t, err, ErrLockAcquireFailed)
}

func TestLocalLocker(t *testing.T) {
	locker := NewLocalLocker()
	ctx := context.Background()

	lease, err := locker.Acquire(ctx, 1)
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, 1)
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, lease.Release(ctx))

	lease, err = locker.Acquire(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, lease.Release(ctx))
}

func TestLockers_SingleWinner(t *testing.T) {
	_, adapter := setupTestRedis(t)

	lockers := map[string]Locker{
		"redis": NewRedisLocker(adapter, DefaultConfig()),
		"local": NewLocalLocker(),
	}

	for name, locker := range lockers {
		t.Run(name, func(t *testing.T) {
			var acquired atomic.Int32
			var wg sync.WaitGroup
			start := make(chan struct{})

			for i := 0; i < 20; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					if _, err := locker.Acquire(context.Background(), 42); err == nil {
						acquired.Add(1)
					}
				}()
			}
			close(start)
			wg.Wait()

			assert.Equal(t, int32(1), acquired.Load())
		})
	}
}
