package lock

import (
	"context"
	"errors"
	"sync"
	"time"
)

// DistributedLock 定义锁接口, 本地和 Redis 实现语义一致: 非阻塞的 try-lock
type DistributedLock interface {
	// Acquire 尝试获取锁
	// key: 锁的唯一标识
	// ttl: 锁的过期时间
	// 返回: (是否成功, error)
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release 释放锁
	Release(ctx context.Context, key string) error
}

// ErrNotAcquired 在 ctx 结束前没能拿到锁时返回
var ErrNotAcquired = errors.New("lock not acquired")

// DefaultRetryInterval 是 Wait 重试 Acquire 的间隔
const DefaultRetryInterval = 50 * time.Millisecond

// Wait 反复尝试 Acquire 直到成功或 ctx 结束
func Wait(ctx context.Context, l DistributedLock, key string, ttl, retry time.Duration) error {
	if retry <= 0 {
		retry = DefaultRetryInterval
	}
	ticker := time.NewTicker(retry)
	defer ticker.Stop()

	for {
		ok, err := l.Acquire(ctx, key, ttl)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Join(ErrNotAcquired, ctx.Err())
		case <-ticker.C:
		}
	}
}

// LocalLock 是进程内实现, 单个 CLI 进程内串行化同一个 key
type LocalLock struct {
	mu    sync.Mutex
	held  map[string]time.Time // key -> 过期时间
	clock func() time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

func (l *LocalLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	// 零值过期时间表示不过期, 只能显式释放
	if expiry, ok := l.held[key]; ok && (expiry.IsZero() || now.Before(expiry)) {
		return false, nil
	}

	var expiry time.Time
	if ttl > 0 {
		expiry = now.Add(ttl)
	}
	l.held[key] = expiry
	return true, nil
}

func (l *LocalLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
