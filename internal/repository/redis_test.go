package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"courtbooking/internal/config"
)

func newTestLocker(t *testing.T, ttl time.Duration) (*RedisSlotLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := NewRedisClient(config.RedisConfig{Address: mr.Addr()})
	t.Cleanup(func() { _ = Close(client) })
	require.NoError(t, Ping(context.Background(), client))
	return NewRedisSlotLocker(client, ttl), mr
}

func TestRedisSlotLocker_AcquireAndRelease(t *testing.T) {
	l, mr := newTestLocker(t, 10*time.Second)
	key := slotLockKey("C1|2024-06-01")

	held, unlock, err := l.Lock(context.Background(), "C1|2024-06-01")
	require.NoError(t, err)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, 10*time.Second, mr.TTL(key))

	deadline, ok := held.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(8*time.Second), deadline, time.Second)

	unlock()
	unlock()
	assert.False(t, mr.Exists(key))
	assert.Error(t, held.Err())
}

func TestRedisSlotLocker_Contention(t *testing.T) {
	l, _ := newTestLocker(t, 10*time.Second)

	_, unlock, err := l.Lock(context.Background(), "C1|2024-06-01")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, _, err = l.Lock(ctx, "C1|2024-06-01")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, other, err := l.Lock(context.Background(), "C2|2024-06-01")
	require.NoError(t, err)
	other()

	acquired := make(chan struct{})
	go func() {
		_, again, err := l.Lock(context.Background(), "C1|2024-06-01")
		if assert.NoError(t, err) {
			again()
		}
		close(acquired)
	}()
	unlock()

	select {
	case <-acquired:
	case <-time.After(2 * time.Second):
		t.Fatal("waiter did not get the lock after release")
	}
}

func TestRedisSlotLocker_StaleHolderKeepsNewOwnersKey(t *testing.T) {
	l, mr := newTestLocker(t, 10*time.Second)
	key := slotLockKey("C1|2024-06-01")

	_, stale, err := l.Lock(context.Background(), "C1|2024-06-01")
	require.NoError(t, err)

	mr.FastForward(11 * time.Second)
	require.False(t, mr.Exists(key))

	_, owner, err := l.Lock(context.Background(), "C1|2024-06-01")
	require.NoError(t, err)
	current, err := mr.Get(key)
	require.NoError(t, err)

	stale()
	got, err := mr.Get(key)
	require.NoError(t, err)
	assert.Equal(t, current, got)

	owner()
	assert.False(t, mr.Exists(key))
}

func TestLeaseFor(t *testing.T) {
	assert.Equal(t, 8*time.Second, leaseFor(10*time.Second))
	assert.Equal(t, 800*time.Millisecond, leaseFor(time.Second))
	assert.Equal(t, 58*time.Second, leaseFor(time.Minute))
}
