package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	JobReasonDeadlineExceeded     = "deadline_exceeded"
	JobReasonDBLockTimeout        = "db_lock_timeout"
	JobReasonSerializationFailure = "serialization_failure"
	JobReasonUniqueViolation      = "unique_violation"
	JobReasonLockHeld             = "lock_held"
	JobReasonUnknown              = "unknown"
)

// DomainMetrics are the Prometheus series scraped from /metrics.
type DomainMetrics struct {
	jobRuns             *prometheus.CounterVec
	jobDuration         *prometheus.HistogramVec
	jobTimeouts         *prometheus.CounterVec
	jobErrors           *prometheus.CounterVec
	jobSkipped          *prometheus.CounterVec
	generationResults   *prometheus.CounterVec
	reconcileDuration   prometheus.Histogram
	reconcileRetries    prometheus.Counter
	reconcileLockWait   prometheus.Histogram
	auditWriteFailures  *prometheus.CounterVec
	tariffCacheLookups  *prometheus.CounterVec
	expiredDebtsBySweep prometheus.Counter
}

var (
	domainMetricsOnce sync.Once
	domainMetrics     *DomainMetrics
)

// Domain returns the process-wide metrics registry.
func Domain() *DomainMetrics {
	return DomainWithConfig(Config{})
}

func DomainWithConfig(cfg Config) *DomainMetrics {
	domainMetricsOnce.Do(func() {
		domainMetrics = newDomainMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return domainMetrics
}

// ResetDomainMetricsForTest resets the singleton so tests can swap registries.
func ResetDomainMetricsForTest() {
	domainMetricsOnce = sync.Once{}
	domainMetrics = nil
}

func newDomainMetrics(registerer prometheus.Registerer, cfg Config) *DomainMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "recaudo"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{"service": serviceName, "env": environment}

	m := &DomainMetrics{
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "recaudo_scheduler_job_runs_total",
			Help:        "Scheduler job runs by name.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "recaudo_scheduler_job_duration_seconds",
			Help:        "Scheduler job latency.",
			Buckets:     []float64{0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300, 900},
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobTimeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "recaudo_scheduler_job_timeouts_total",
			Help:        "Scheduler jobs that hit their timeout.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		jobErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "recaudo_scheduler_job_errors_total",
			Help:        "Scheduler job errors by reason.",
			ConstLabels: constLabels,
		}, []string{"job", "reason"}),
		jobSkipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "recaudo_scheduler_job_skipped_total",
			Help:        "Scheduler job runs skipped because another replica holds the lock.",
			ConstLabels: constLabels,
		}, []string{"job"}),
		generationResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "recaudo_billing_generation_services_total",
			Help:        "Services processed by billing generation, by outcome.",
			ConstLabels: constLabels,
		}, []string{"outcome"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "recaudo_reconcile_duration_seconds",
			Help:        "Payment reconciliation transaction latency.",
			Buckets:     prometheus.DefBuckets,
			ConstLabels: constLabels,
		}),
		reconcileRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "recaudo_reconcile_retries_total",
			Help:        "Reconciliation transactions retried after a persistence error.",
			ConstLabels: constLabels,
		}),
		reconcileLockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:        "recaudo_reconcile_lock_wait_seconds",
			Help:        "Time spent waiting for the per-client reconciliation lock.",
			Buckets:     []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
			ConstLabels: constLabels,
		}),
		auditWriteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "recaudo_audit_write_failures_total",
			Help:        "Audit entries that could not be persisted.",
			ConstLabels: constLabels,
		}, []string{"entity"}),
		tariffCacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "recaudo_tariff_cache_lookups_total",
			Help:        "Tariff resolution cache lookups by result.",
			ConstLabels: constLabels,
		}, []string{"result"}),
		expiredDebtsBySweep: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "recaudo_debts_expired_total",
			Help:        "Debts transitioned to expired by the sweep.",
			ConstLabels: constLabels,
		}),
	}

	m.jobRuns = registerCounterVec(registerer, m.jobRuns)
	m.jobDuration = registerHistogramVec(registerer, m.jobDuration)
	m.jobTimeouts = registerCounterVec(registerer, m.jobTimeouts)
	m.jobErrors = registerCounterVec(registerer, m.jobErrors)
	m.jobSkipped = registerCounterVec(registerer, m.jobSkipped)
	m.generationResults = registerCounterVec(registerer, m.generationResults)
	m.auditWriteFailures = registerCounterVec(registerer, m.auditWriteFailures)
	m.tariffCacheLookups = registerCounterVec(registerer, m.tariffCacheLookups)
	m.reconcileDuration = registerCollector(registerer, m.reconcileDuration)
	m.reconcileRetries = registerCollector(registerer, m.reconcileRetries)
	m.reconcileLockWait = registerCollector(registerer, m.reconcileLockWait)
	m.expiredDebtsBySweep = registerCollector(registerer, m.expiredDebtsBySweep)

	return m
}

func registerCounterVec(registerer prometheus.Registerer, c *prometheus.CounterVec) *prometheus.CounterVec {
	return registerCollector(registerer, c)
}

func registerHistogramVec(registerer prometheus.Registerer, h *prometheus.HistogramVec) *prometheus.HistogramVec {
	return registerCollector(registerer, h)
}

// registerCollector returns the already registered collector on a duplicate registration.
func registerCollector[T prometheus.Collector](registerer prometheus.Registerer, c T) T {
	if err := registerer.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(T); ok {
				return existing
			}
		}
	}
	return c
}

func (m *DomainMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.jobRuns.WithLabelValues(job).Inc()
}

func (m *DomainMetrics) ObserveJobDuration(job string, duration time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(job).Observe(duration.Seconds())
}

func (m *DomainMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.jobTimeouts.WithLabelValues(job).Inc()
}

func (m *DomainMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.jobErrors.WithLabelValues(job, ClassifyJobReason(err)).Inc()
}

func (m *DomainMetrics) IncJobSkipped(job string) {
	if m == nil {
		return
	}
	m.jobSkipped.WithLabelValues(job).Inc()
}

func (m *DomainMetrics) AddGenerationResult(outcome string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.generationResults.WithLabelValues(outcome).Add(float64(count))
}

func (m *DomainMetrics) ObserveReconcile(duration time.Duration) {
	if m == nil {
		return
	}
	m.reconcileDuration.Observe(duration.Seconds())
}

func (m *DomainMetrics) IncReconcileRetry() {
	if m == nil {
		return
	}
	m.reconcileRetries.Inc()
}

func (m *DomainMetrics) ObserveLockWait(duration time.Duration) {
	if m == nil {
		return
	}
	m.reconcileLockWait.Observe(duration.Seconds())
}

func (m *DomainMetrics) IncAuditWriteFailure(entity string) {
	if m == nil {
		return
	}
	m.auditWriteFailures.WithLabelValues(entity).Inc()
}

func (m *DomainMetrics) IncTariffCache(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.tariffCacheLookups.WithLabelValues(result).Inc()
}

func (m *DomainMetrics) AddExpiredDebts(count int64) {
	if m == nil || count <= 0 {
		return
	}
	m.expiredDebtsBySweep.Add(float64(count))
}

// ClassifyJobReason maps job errors to low-cardinality reasons.
func ClassifyJobReason(err error) string {
	if err == nil {
		return JobReasonUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return JobReasonDeadlineExceeded
	}
	if hasPGCode(err, "55P03") {
		return JobReasonDBLockTimeout
	}
	if hasPGCode(err, "40001") {
		return JobReasonSerializationFailure
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || hasPGCode(err, "23505") {
		return JobReasonUniqueViolation
	}
	return JobReasonUnknown
}

func hasPGCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return false
}
