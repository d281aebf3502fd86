package redislock

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/brightpathcs/brightpath-backend/internal/pkg/envutil"
	"github.com/brightpathcs/brightpath-backend/internal/pkg/logger"
)

// ErrLockHeld is returned when another process holds the lock.
var ErrLockHeld = fmt.Errorf("lock already held")

// Locker serializes regeneration per customer across service instances.
// Regeneration clears and recreates rows, so two concurrent runs for the
// same customer must never interleave.
type Locker interface {
	// Acquire takes the named lock or fails fast with ErrLockHeld.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
	Close() error
}

type redisLocker struct {
	log    *logger.Logger
	rdb    *goredis.Client
	prefix string
}

func New(log *logger.Logger) (Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(envutil.String("REDIS_ADDR", ""))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisLocker{
		log:    log.With("service", "RedisLocker"),
		rdb:    rdb,
		prefix: envutil.String("REDIS_LOCK_PREFIX", "brightpath:lock:"),
	}, nil
}

func (l *redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	full := l.prefix + key
	token := uuid.NewString()

	ok, err := l.rdb.SetNX(ctx, full, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return nil, ErrLockHeld
	}

	release := func() {
		// Only release if we still own the lock.
		script := goredis.NewScript(`
			if redis.call("get", KEYS[1]) == ARGV[1] then
				return redis.call("del", KEYS[1])
			end
			return 0
		`)
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := script.Run(releaseCtx, l.rdb, []string{full}, token).Err(); err != nil {
			l.log.Warn("lock release failed", "key", full, "error", err)
		}
	}
	return release, nil
}

func (l *redisLocker) Close() error { return l.rdb.Close() }
