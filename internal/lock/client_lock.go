package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	keyClientReconcile = "recaudo:reconcile:client:%s"

	defaultClientLockTTL  = 30 * time.Second
	defaultClientLockWait = 10 * time.Second
)

// ClientLock serializes reconciliation per client: always in process, and
// across replicas when Redis is configured.
type ClientLock struct {
	local   *KeyedMutex
	remote  *Locker
	log     *zap.Logger
	metrics *obsmetrics.DomainMetrics
	ttl     time.Duration
	wait    time.Duration
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Redis   *redis.Client             `optional:"true"`
	Metrics *obsmetrics.DomainMetrics `optional:"true"`
}

func NewClientLock(p Params) *ClientLock {
	return &ClientLock{
		local:   NewKeyedMutex(),
		remote:  NewLocker(p.Redis),
		log:     p.Log.Named("lock.client"),
		metrics: p.Metrics,
		ttl:     defaultClientLockTTL,
		wait:    defaultClientLockWait,
	}
}

// Lock returns once the caller exclusively owns clientID. The returned func
// must be called to release it.
func (c *ClientLock) Lock(ctx context.Context, clientID snowflake.ID) (func(), error) {
	start := time.Now()
	key := fmt.Sprintf(keyClientReconcile, clientID.String())

	unlockLocal, err := c.local.Lock(ctx, key)
	if err != nil {
		return nil, err
	}
	if c.remote == nil {
		c.metrics.ObserveLockWait(time.Since(start))
		return unlockLocal, nil
	}

	token, err := c.remote.Acquire(ctx, key, c.ttl, c.wait, 0)
	if err != nil {
		unlockLocal()
		return nil, err
	}
	c.metrics.ObserveLockWait(time.Since(start))

	return func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := c.remote.Release(releaseCtx, key, token); err != nil {
			c.log.Warn("release client lock failed", zap.String("key", key), zap.Error(err))
		}
		unlockLocal()
	}, nil
}
