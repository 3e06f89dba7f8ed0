package scheduler

import (
	"context"
	"time"

	"poolroute_backend/platform/config"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "poolroute:runlock:"

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Locker guards a scheduled run so replicas do not repeat it concurrently.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

// RunLock is a Redis SET NX PX lock.
type RunLock struct {
	rdb *redis.Client
}

func NewRunLock(rdb *redis.Client) *RunLock {
	return &RunLock{rdb: rdb}
}

// NewRunLockFromConfig connects to the scheduler's Redis.
func NewRunLockFromConfig(cfg config.SchedulerConfig) (*RunLock, error) {
	opt, err := redisOptions(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}
	return NewRunLock(redis.NewClient(opt)), nil
}

// Acquire takes key for ttl. ok is false when another holder has it.
// The returned release is safe to call after the lock expired.
func (l *RunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, lockKeyPrefix+key, token, ttl).Result()
	if err != nil || !ok {
		return func() {}, false, err
	}
	return func() {
		_ = releaseScript.Run(context.WithoutCancel(ctx), l.rdb, []string{lockKeyPrefix + key}, token).Err()
	}, true, nil
}

func (l *RunLock) Close() error {
	return l.rdb.Close()
}
