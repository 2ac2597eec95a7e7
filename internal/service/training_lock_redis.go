package service

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisTrainingReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

type redisLocker interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// redisTrainingLock extiende el lock local entre replicas que comparten el mismo
// directorio de checkpoints.
type redisTrainingLock struct {
	local  TrainingLock
	client redisLocker
	key    string
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisTrainingLock(client *redis.Client, ttl time.Duration, logger *zap.Logger) TrainingLock {
	if client == nil {
		return NewLocalTrainingLock()
	}
	return newRedisTrainingLock(client, ttl, logger)
}

func newRedisTrainingLock(client redisLocker, ttl time.Duration, logger *zap.Logger) *redisTrainingLock {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &redisTrainingLock{
		local:  NewLocalTrainingLock(),
		client: client,
		key:    "sentiment:training:lock",
		ttl:    ttl,
		logger: logger,
	}
}

// TryAcquire toma primero el lock local. Si Redis falla sigue adelante (fail-open entre
// replicas); dentro del proceso la exclusion se mantiene.
func (l *redisTrainingLock) TryAcquire(ctx context.Context, runID string) (bool, error) {
	ok, err := l.local.TryAcquire(ctx, runID)
	if err != nil || !ok {
		return ok, err
	}

	ctxRedis, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	acquired, err := l.client.SetNX(ctxRedis, l.key, runID, l.ttl).Result()
	if err != nil {
		l.logger.Warn("redis training lock unavailable, continuing with local lock", zap.Error(err))
		return true, nil
	}
	if !acquired {
		_ = l.local.Release(ctx, runID)
		return false, nil
	}
	return true, nil
}

func (l *redisTrainingLock) Release(ctx context.Context, runID string) error {
	defer l.local.Release(ctx, runID)

	ctxRedis, cancel := context.WithTimeout(ctx, 500*time.Millisecond)
	defer cancel()
	if err := l.client.Eval(ctxRedis, redisTrainingReleaseScript, []string{l.key}, runID).Err(); err != nil {
		l.logger.Warn("redis training lock release failed", zap.Error(err), zap.String("run_id", runID))
		return err
	}
	return nil
}
