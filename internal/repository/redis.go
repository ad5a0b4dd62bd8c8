package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"courtbooking/internal/config"
)

const (
	slotLockPrefix = "courtbooking:slot:"
	lockRetryDelay = 25 * time.Millisecond
	maxLeaseMargin = 2 * time.Second
)

// releaseScript deletes the lock only if this holder still owns it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedisClient creates a Redis client from configuration
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// Ping checks the Redis connection
func Ping(ctx context.Context, client *redis.Client) error {
	if _, err := client.Ping(ctx).Result(); err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}

// RedisSlotLocker serializes admissions across API instances. Each lock expires
// after ttl so a crashed holder cannot block a slot forever. The context handed
// to the holder ends a safety margin before the key expires.
type RedisSlotLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSlotLocker(client *redis.Client, ttl time.Duration) *RedisSlotLocker {
	return &RedisSlotLocker{client: client, ttl: ttl}
}

func (l *RedisSlotLocker) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	k := slotLockKey(key)
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryDelay)
	defer ticker.Stop()
	var acquired time.Time
	for {
		acquired = time.Now()
		ok, err := l.client.SetNX(ctx, k, token, l.ttl).Result()
		if err != nil {
			return nil, nil, fmt.Errorf("redis lock %s: %w", k, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, nil, ctx.Err()
		case <-ticker.C:
		}
	}

	held, cancel := context.WithDeadline(ctx, acquired.Add(leaseFor(l.ttl)))
	var once sync.Once
	return held, func() {
		once.Do(func() {
			cancel()
			releaseCtx, stop := context.WithTimeout(context.Background(), time.Second)
			defer stop()
			if err := releaseScript.Run(releaseCtx, l.client, []string{k}, token).Err(); err != nil {
				log.Warn().Err(err).Str("key", k).Msg("Failed to release slot lock, it will expire")
			}
		})
	}, nil
}

// leaseFor is how long a holder may act on a lock that expires after ttl.
func leaseFor(ttl time.Duration) time.Duration {
	margin := ttl / 5
	if margin > maxLeaseMargin {
		margin = maxLeaseMargin
	}
	return ttl - margin
}

func slotLockKey(key string) string {
	return slotLockPrefix + key
}
