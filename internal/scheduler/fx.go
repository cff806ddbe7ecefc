package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("scheduler",
	fx.Provide(ProvideConfig),
	fx.Provide(New),
	fx.Invoke(NewScheduler),
)

// Cron registers the jobs on their configured schedules in the billing timezone.
func (s *Scheduler) Cron(ctx context.Context) (*cron.Cron, error) {
	billing := s.billing.Get()
	c := cron.New(cron.WithLocation(billing.Location()))

	schedules := map[string]string{
		JobGenerateDebts: billing.GenerateSchedule,
		JobDebtSweep:     billing.SweepSchedule,
	}
	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.name) {
			continue
		}
		j := j
		if _, err := c.AddFunc(schedules[j.name], func() {
			if err := s.runLocked(ctx, j); err != nil {
				s.log.Error("scheduler.job.failed", zap.String("job", j.name), zap.Error(err))
			}
		}); err != nil {
			return nil, fmt.Errorf("%w: schedule %s: %v", ErrInvalidConfig, j.name, err)
		}
	}
	return c, nil
}

func NewScheduler(lc fx.Lifecycle, sched *Scheduler) {
	var (
		c      *cron.Cron
		cancel context.CancelFunc
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())

			var err error
			c, err = sched.Cron(ctx)
			if err != nil {
				cancel()
				return err
			}
			c.Start()
			sched.log.Info("scheduler started", zap.Int("entries", len(c.Entries())))
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			if c == nil {
				return nil
			}
			cancel()
			select {
			case <-c.Stop().Done():
				return nil
			case <-stopCtx.Done():
				return errors.Join(errors.New("scheduler: jobs still running at shutdown"), stopCtx.Err())
			}
		},
	})
}
