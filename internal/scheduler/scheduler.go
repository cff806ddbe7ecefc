package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	billingcycledomain "github.com/smallbiznis/recaudo/internal/billingcycle/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	"github.com/smallbiznis/recaudo/internal/lock"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	JobGenerateDebts = "generate_debts"
	JobDebtSweep     = "debt_sweep"
)

var ErrInvalidConfig = errors.New("scheduler: invalid config")

type Params struct {
	fx.In

	Log             *zap.Logger
	GenID           *snowflake.Node
	Clock           clock.Clock
	BillingCycleSvc billingcycledomain.Service
	DebtSvc         debtdomain.Service

	Locker  *lock.Locker                `optional:"true"`
	Billing *config.BillingConfigHolder `optional:"true"`
	Metrics *obsmetrics.DomainMetrics   `optional:"true"`
	Config  Config                      `optional:"true"`
}

type Scheduler struct {
	log             *zap.Logger
	cfg             Config
	genID           *snowflake.Node
	clock           clock.Clock
	billingCycleSvc billingcycledomain.Service
	debtSvc         debtdomain.Service
	locker          *lock.Locker
	billing         *config.BillingConfigHolder
	metrics         *obsmetrics.DomainMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.Log == nil || p.GenID == nil || p.Clock == nil || p.BillingCycleSvc == nil || p.DebtSvc == nil {
		return nil, ErrInvalidConfig
	}
	billing := p.Billing
	if billing == nil {
		billing = config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	}
	return &Scheduler{
		log:             p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:             p.Config.withDefaults(),
		genID:           p.GenID,
		clock:           p.Clock,
		billingCycleSvc: p.BillingCycleSvc,
		debtSvc:         p.DebtSvc,
		locker:          p.Locker,
		billing:         billing,
		metrics:         p.Metrics,
	}, nil
}

func (s *Scheduler) domainMetrics() *obsmetrics.DomainMetrics {
	if s.metrics != nil {
		return s.metrics
	}
	return obsmetrics.Domain()
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx = actorcontext.WithActor(ctx, actorcontext.System)
	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	log := s.logger(ctx).With(
		zap.String("job", name),
		zap.String("run_id", run.runID),
	)
	m := s.domainMetrics()
	m.IncJobRun(name)

	err := fn(ctx)
	m.ObserveJobDuration(name, time.Since(start))
	if owner {
		if err != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// deadline is a soft timeout; the next tick resumes the work
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		m.IncJobTimeout(name)
	}
	m.IncJobError(name, err)
	if isTimeout {
		log.Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

type job struct {
	name    string
	timeout time.Duration
	run     func(context.Context) error
}

func (s *Scheduler) jobs() []job {
	return []job{
		{JobGenerateDebts, s.cfg.GenerateTimeout, s.GenerateDebtsJob},
		{JobDebtSweep, s.cfg.SweepTimeout, s.DebtSweepJob},
	}
}

// RunOnce runs every enabled job once, in order, and joins their errors.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	for _, j := range s.jobs() {
		if !s.isJobEnabled(j.name) {
			continue
		}
		err = errors.Join(err, s.runLocked(parent, j))
	}
	return err
}

// RunJob runs a single named job with the same locking and metrics as the cron tick.
func (s *Scheduler) RunJob(ctx context.Context, name string) error {
	for _, j := range s.jobs() {
		if j.name == name {
			return s.runLocked(ctx, j)
		}
	}
	return fmt.Errorf("%w: unknown job %q", ErrInvalidConfig, name)
}

func (s *Scheduler) isJobEnabled(name string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if enabled == name {
			return true
		}
	}
	return false
}

// GenerateDebtsJob generates the current billing month in the billing timezone.
func (s *Scheduler) GenerateDebtsJob(ctx context.Context) error {
	loc := s.billing.Get().Location()
	month := clock.MonthStart(s.clock.Now().In(loc))

	result, err := s.billingCycleSvc.GenerateMonth(ctx, month, billingcycledomain.TriggerScheduler)
	if run := jobRunFromContext(ctx); run != nil {
		run.AddProcessed(result.CreatedCount)
		for range result.Errors {
			run.IncError()
		}
	}
	if err != nil {
		return err
	}
	s.logger(ctx).Info("scheduler.generate.done",
		zap.String("billing_month", result.BillingMonth),
		zap.String("billing_run_id", result.RunID),
		zap.Int("created", result.CreatedCount),
		zap.Int("skipped", result.SkippedCount),
		zap.Int("errors", len(result.Errors)),
	)
	return nil
}

// DebtSweepJob expires pending debts whose due date has passed.
func (s *Scheduler) DebtSweepJob(ctx context.Context) error {
	expired, err := s.debtSvc.Sweep(ctx, s.debtSvc.Today())
	if err != nil {
		return err
	}
	if run := jobRunFromContext(ctx); run != nil {
		run.AddProcessed(int(expired))
	}
	return nil
}
