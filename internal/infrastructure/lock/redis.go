// Package lock provides the Redis-backed per-shipment edit lock.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"freightdesk/internal/core/apperror"
	"freightdesk/internal/domain/shipment"
	"freightdesk/pkg/logger"
)

// DefaultTTL bounds how long a crashed holder can block edits.
const DefaultTTL = 30 * time.Second

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ErrNotHeld is returned by release when the lock expired or was taken over.
var ErrNotHeld = errors.New("lock: not held")

// NewClient creates a Redis client and verifies the connection.
func NewClient(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("lock: ping redis: %w", err)
	}
	return client, nil
}

// RedisLocker implements shipment.Locker with SET NX PX and a compare-and-delete release.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a locker. A non-positive ttl falls back to DefaultTTL.
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

var _ shipment.Locker = (*RedisLocker)(nil)

// Acquire takes key or returns a SHIPMENT_LOCKED error when another session holds it.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(context.Context) error, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("lock: acquire %s: %w", key, err)
	}
	if !ok {
		return nil, apperror.NewShipmentLocked(strings.TrimPrefix(key, "lock:shipment:"))
	}

	release := func(ctx context.Context) error {
		n, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int64()
		if err != nil {
			return fmt.Errorf("lock: release %s: %w", key, err)
		}
		if n == 0 {
			logger.Warn(ctx, "edit lock expired before release", "key", key, "ttl", l.ttl)
			return ErrNotHeld
		}
		return nil
	}
	return release, nil
}

// Ping reports whether Redis is reachable.
func (l *RedisLocker) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}
