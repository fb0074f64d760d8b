package lock

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ppiankov/verifier/internal/model"
	"github.com/ppiankov/verifier/internal/retry"
)

// releaseScript deletes the key only when it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker coordinates groups across engine processes with SETNX
type RedisLocker struct {
	rdb     redis.UniversalClient
	ttl     time.Duration
	backoff retry.Backoff
	logger  *slog.Logger
}

// NewRedisClient connects using a redis:// URL
func NewRedisClient(ctx context.Context, cfg model.RedisConfig) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return rdb, nil
}

// NewRedisLocker creates a locker; locks expire after ttl if a holder dies
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisLocker{
		rdb:     rdb,
		ttl:     ttl,
		backoff: retry.Exponential(50*time.Millisecond, time.Second),
		logger:  logger,
	}
}

func lockKey(key string) string {
	return fmt.Sprintf("verifier:group-lock:%s", key)
}

// Lock polls SETNX until the key is free or ctx is done. The wait between
// polls doubles up to a second while the group stays held.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	token := uuid.NewString()
	redisKey := lockKey(key)

	for attempt := 1; ; attempt++ {
		ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("setnx %s: %w", redisKey, err)
		}
		if ok {
			break
		}
		timer := time.NewTimer(l.backoff(attempt + 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	return func() {
		// release must not depend on the caller's context being alive
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		n, err := releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Int()
		if err != nil {
			l.logger.Warn("release group lock", "key", key, "error", err)
			return
		}
		if n == 0 {
			l.logger.Warn("group lock expired before release", "key", key, "error", ErrNotHeld)
		}
	}, nil
}
