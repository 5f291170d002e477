package transfer

import (
	"context"
	"errors"
	"time"

	"arb-client/pkg/errno"
	"arb-client/pkg/utils/lock"

	"github.com/ethereum/go-ethereum/common"
)

// NonceSource is the part of chain.Client the nonce manager needs.
type NonceSource interface {
	PendingNonce(ctx context.Context, addr common.Address) (uint64, error)
}

// NonceManager serializes nonce assignment per sender. The lock is held from
// the pending-nonce read until the broadcast returns, so two attempts from the
// same sender never sign with the same nonce.
type NonceManager struct {
	locker lock.DistributedLock
	ttl    time.Duration
}

const defaultNonceLockTTL = 2 * time.Minute

func NewNonceManager(locker lock.DistributedLock, ttl time.Duration) *NonceManager {
	if locker == nil {
		locker = lock.NewLocalLock()
	}
	if ttl <= 0 {
		ttl = defaultNonceLockTTL
	}
	return &NonceManager{locker: locker, ttl: ttl}
}

func nonceLockKey(addr common.Address) string {
	return "nonce:" + addr.Hex()
}

// Reserve takes the sender lock and reads the pending nonce. release must be
// called once the transaction is broadcast or abandoned.
func (m *NonceManager) Reserve(ctx context.Context, src NonceSource, sender common.Address) (uint64, func(), error) {
	key := nonceLockKey(sender)
	if err := lock.Wait(ctx, m.locker, key, m.ttl, lock.DefaultRetryInterval); err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return 0, nil, errno.Wrap(errno.ErrTimeout, err, "nonce lock for %s", sender.Hex())
		}
		return 0, nil, errno.Wrap(errno.ErrNetwork, err, "nonce lock for %s", sender.Hex())
	}

	release := func() {
		// 调用方的 ctx 可能已经结束, 释放锁用独立的短超时
		rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.locker.Release(rctx, key)
	}

	nonce, err := src.PendingNonce(ctx, sender)
	if err != nil {
		release()
		return 0, nil, err
	}
	return nonce, release, nil
}
