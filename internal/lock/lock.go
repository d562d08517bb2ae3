// Package lock serializes deploy runs per network through Redis.
package lock

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nathanTypo/lottery-pc/internal/config"
	apperrors "github.com/nathanTypo/lottery-pc/internal/pkg/errors"
)

// DefaultTTL bounds how long a crashed run can keep a network locked. A live run
// extends the lock every third of the TTL until it is released.
const DefaultTTL = 10 * time.Minute

const keyPrefix = "lottery:deploy-lock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// extendScript refreshes the TTL only while the key still holds our token.
var extendScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

// ReleaseFunc releases a held lock.
type ReleaseFunc func(ctx context.Context) error

// Locker hands out per-network deploy locks.
type Locker struct {
	client     *redis.Client
	ttl        time.Duration
	renewEvery time.Duration
	owner      string
	logger     *slog.Logger
}

// New wraps an existing Redis client.
func New(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	host, _ := os.Hostname()
	return &Locker{
		client:     client,
		ttl:        ttl,
		renewEvery: ttl / 3,
		owner:      host,
		logger:     slog.Default(),
	}
}

// NewRedis connects to Redis and returns a Locker using it.
func NewRedis(cfg config.RedisConfig) (*Locker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return New(client, cfg.LockTTL), nil
}

// Key returns the Redis key guarding network.
func Key(network string) string {
	return keyPrefix + network
}

// Acquire takes the lock for network. It fails with ErrLocked when another
// run holds it.
func (l *Locker) Acquire(ctx context.Context, network string) (ReleaseFunc, error) {
	key := Key(network)
	token := fmt.Sprintf("%s/%d/%s", l.owner, os.Getpid(), uuid.NewString())

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire deploy lock: %w", err)
	}
	if !ok {
		holder, _ := l.client.Get(ctx, key).Result()
		return nil, apperrors.ErrLocked.WithDetails(map[string]string{
			"network": network,
			"holder":  holder,
		})
	}

	renewCtx, stop := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		l.keepAlive(renewCtx, key, token)
	}()

	var once sync.Once
	release := func(ctx context.Context) error {
		var err error
		once.Do(func() {
			stop()
			<-done
			if rerr := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); rerr != nil {
				err = fmt.Errorf("release deploy lock: %w", rerr)
			}
		})
		return err
	}
	return release, nil
}

// keepAlive extends the lock until ctx is cancelled or the lock is lost.
func (l *Locker) keepAlive(ctx context.Context, key, token string) {
	ticker := time.NewTicker(l.renewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := extendScript.Run(ctx, l.client, []string{key}, token, l.ttl.Milliseconds()).Int()
			switch {
			case ctx.Err() != nil:
				return
			case err != nil:
				l.logger.Warn("failed to extend deploy lock", slog.String("key", key), slog.String("error", err.Error()))
			case n == 0:
				l.logger.Warn("deploy lock lost", slog.String("key", key))
				return
			}
		}
	}
}

// Close closes the Redis connection.
func (l *Locker) Close() error {
	if l.client != nil {
		return l.client.Close()
	}
	return nil
}
