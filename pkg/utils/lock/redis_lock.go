package lock

import (
	"context"
	"sync"
	"time"

	"arb-client/pkg/safe_random"

	"github.com/redis/go-redis/v9"
)

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock 基于 Redis SET NX 的实现, 多个进程共用同一个发送地址时使用
type RedisLock struct {
	client redis.Cmdable
	prefix string

	mu     sync.Mutex
	tokens map[string]string // key -> 本实例写入的 value
}

func NewRedisLock(client redis.Cmdable) *RedisLock {
	return &RedisLock{
		client: client,
		prefix: "lock:",
		tokens: make(map[string]string),
	}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token, err := newToken()
	if err != nil {
		return false, err
	}

	// SET key token NX PX ttl
	success, err := l.client.SetNX(ctx, l.prefix+key, token, ttl).Result()
	if err != nil {
		return false, err
	}
	if success {
		l.mu.Lock()
		l.tokens[key] = token
		l.mu.Unlock()
	}
	return success, nil
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	token, ok := l.tokens[key]
	delete(l.tokens, key)
	l.mu.Unlock()
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, l.client, []string{l.prefix + key}, token).Err()
}

func newToken() (string, error) {
	return safe_random.Hex(16)
}
