package storage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const lockKeyPrefix = "lock:"

// Only the holder whose token still matches may delete the key.
var releaseLockScript = redis.NewScript(`
if redis.call('get', KEYS[1]) == ARGV[1] then
	return redis.call('del', KEYS[1])
else
	return 0
end
`)

type RedisLock struct {
	client *redis.Client
}

func NewRedisLock(client *redis.Client) *RedisLock {
	return &RedisLock{client: client}
}

// Acquire issues one SET NX EX with a fresh token. An empty token with a nil
// error means the lock is currently held by someone else.
func (l *RedisLock) Acquire(ctx context.Context, resource string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKeyPrefix+resource, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

func (l *RedisLock) Release(ctx context.Context, resource string, token string) (bool, error) {
	result, err := releaseLockScript.Run(ctx, l.client, []string{lockKeyPrefix + resource}, token).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}
