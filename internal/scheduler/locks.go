package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const keyJobLock = "recaudo:scheduler:job:%s"

// runLocked runs j while holding its Redis job lock so only one replica
// executes a tick. Without Redis the job runs unguarded.
func (s *Scheduler) runLocked(ctx context.Context, j job) error {
	if s.locker == nil {
		return s.runJob(ctx, j.name, j.timeout, j.run)
	}

	key := fmt.Sprintf(keyJobLock, j.name)
	token, ok, err := s.locker.TryLock(ctx, key, s.cfg.LockTTL)
	if err != nil {
		s.domainMetrics().IncJobError(j.name, err)
		return fmt.Errorf("%s: acquire lock: %w", j.name, err)
	}
	if !ok {
		s.domainMetrics().IncJobSkipped(j.name)
		s.log.Info("scheduler.job.skipped", zap.String("job", j.name), zap.String("reason", "lock_held"))
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.log.Warn("release job lock failed", zap.String("job", j.name), zap.Error(err))
		}
	}()

	return s.runJob(ctx, j.name, j.timeout, j.run)
}
