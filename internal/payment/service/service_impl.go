package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/cenkalti/backoff/v5"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	ledgerdomain "github.com/smallbiznis/recaudo/internal/ledger/domain"
	"github.com/smallbiznis/recaudo/internal/lock"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"github.com/smallbiznis/recaudo/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       paymentdomain.Repository
	ClientSvc  clientdomain.Service
	DebtSvc    debtdomain.Service
	LedgerSvc  ledgerdomain.Service
	AuditSvc   auditdomain.Recorder
	Locks      *lock.ClientLock
	Billing    *config.BillingConfigHolder `optional:"true"`
	Metrics    *obsmetrics.DomainMetrics   `optional:"true"`
	ObsMetrics *obsmetrics.Metrics         `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       paymentdomain.Repository
	clientSvc  clientdomain.Service
	debtSvc    debtdomain.Service
	ledgerSvc  ledgerdomain.Service
	auditSvc   auditdomain.Recorder
	locks      *lock.ClientLock
	billing    *config.BillingConfigHolder
	metrics    *obsmetrics.DomainMetrics
	obsMetrics *obsmetrics.Metrics
	// retryInterval overrides the first backoff step; tests shrink it.
	retryInterval time.Duration
}

func New(p Params) paymentdomain.Service {
	billing := p.Billing
	if billing == nil {
		billing = config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	}
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		repo:          p.Repo,
		clientSvc:     p.ClientSvc,
		debtSvc:       p.DebtSvc,
		ledgerSvc:     p.LedgerSvc,
		auditSvc:      p.AuditSvc,
		locks:         p.Locks,
		billing:       billing,
		metrics:       p.Metrics,
		obsMetrics:    p.ObsMetrics,
		retryInterval: 100 * time.Millisecond,
	}
}

func (s *Service) Submit(ctx context.Context, req paymentdomain.SubmitRequest) (paymentdomain.Payment, error) {
	clientID, err := parseID(req.ClientID)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidClient
	}
	amount := req.Amount
	if !amount.IsPositive() || !amount.Equal(amount.Round(2)) {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidAmount
	}
	method := paymentdomain.Method(strings.ToLower(strings.TrimSpace(req.Method)))
	if !method.Valid() {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidMethod
	}
	reference := strings.TrimSpace(req.ReferenceNumber)
	proof := strings.TrimSpace(req.ProofReference)
	if method.RequiresReference() {
		if reference == "" {
			return paymentdomain.Payment{}, paymentdomain.ErrMissingReference
		}
		if proof == "" {
			return paymentdomain.Payment{}, paymentdomain.ErrMissingProof
		}
	}

	actor := actorcontext.ActorOrSystem(ctx)
	payment := paymentdomain.Payment{
		ID:               s.genID.Generate(),
		ClientID:         clientID,
		Amount:           amount,
		Method:           method,
		ReferenceNumber:  reference,
		ProofReference:   proof,
		ValidationStatus: paymentdomain.StatusPending,
		SubmittedBy:      actor.AuditID(),
		CreatedAt:        s.clock.Now().UTC(),
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.checkClient(ctx, tx, clientID); err != nil {
			return err
		}
		if err := s.repo.Insert(ctx, tx, &payment); err != nil {
			return dbpkg.Wrap("payment.insert", err)
		}
		s.auditSvc.Record(ctx, tx, auditdomain.Event{
			EntityName: "payment",
			EntityID:   payment.ID.String(),
			Action:     auditdomain.ActionCreate,
			Detail: map[string]any{
				"client_id":        clientID.String(),
				"amount":           amount.StringFixed(2),
				"method":           string(method),
				"reference_number": reference,
				"proof_reference":  proof,
			},
		})
		return nil
	})
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	s.obsMetrics.RecordPaymentSubmitted(ctx, string(method))
	s.log.Info("payment submitted",
		zap.String("payment_id", payment.ID.String()),
		zap.String("client_id", clientID.String()),
		zap.String("method", string(method)),
	)
	return payment, nil
}

func (s *Service) Validate(ctx context.Context, id string, decision string) (paymentdomain.Payment, error) {
	paymentID, err := parseID(id)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidID
	}
	d, err := paymentdomain.ParseDecision(strings.ToLower(strings.TrimSpace(decision)))
	if err != nil {
		return paymentdomain.Payment{}, err
	}

	current, err := s.repo.FindByID(ctx, s.db, paymentID, false)
	if err != nil {
		return paymentdomain.Payment{}, dbpkg.Wrap("payment.find", err)
	}
	if current == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrNotFound
	}
	if current.Cancelled || current.ValidationStatus != paymentdomain.StatusPending {
		return paymentdomain.Payment{}, paymentdomain.ErrNotPending
	}

	if d == paymentdomain.DecisionReject {
		payment, err := s.retry(ctx, "reject", func() (paymentdomain.Payment, error) {
			return s.rejectOnce(ctx, paymentID)
		})
		if err != nil {
			return paymentdomain.Payment{}, err
		}
		s.obsMetrics.RecordPaymentDecision(ctx, string(paymentdomain.StatusRejected))
		return payment, nil
	}

	start := time.Now()
	unlock, err := s.locks.Lock(ctx, current.ClientID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	defer unlock()

	payment, err := s.retry(ctx, "reconcile", func() (paymentdomain.Payment, error) {
		return s.reconcileOnce(ctx, paymentID)
	})
	s.metrics.ObserveReconcile(time.Since(start))
	if err != nil {
		s.log.Warn("payment reconciliation failed",
			zap.String("payment_id", paymentID.String()),
			zap.Error(err),
		)
		return paymentdomain.Payment{}, err
	}
	s.obsMetrics.RecordPaymentDecision(ctx, string(paymentdomain.StatusValidated))
	return payment, nil
}

func (s *Service) rejectOnce(ctx context.Context, paymentID snowflake.ID) (paymentdomain.Payment, error) {
	var result paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.loadPending(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		payment.ValidationStatus = paymentdomain.StatusRejected
		payment.ValidatedBy = actorcontext.ActorOrSystem(ctx).AuditID()
		payment.ValidatedAt = &now
		if err := s.repo.UpdateDecision(ctx, tx, payment); err != nil {
			return dbpkg.Wrap("payment.update_decision", err)
		}

		s.auditSvc.Record(ctx, tx, auditdomain.Event{
			EntityName: "payment",
			EntityID:   payment.ID.String(),
			Action:     auditdomain.ActionReject,
			Detail: map[string]any{
				"amount":           payment.Amount.StringFixed(2),
				"method":           string(payment.Method),
				"reference_number": payment.ReferenceNumber,
			},
		})
		result = *payment
		return nil
	})
	return result, persistence("payment.reject", err)
}

// reconcileOnce validates the payment and applies it to the client's
// outstanding debts in one transaction.
func (s *Service) reconcileOnce(ctx context.Context, paymentID snowflake.ID) (paymentdomain.Payment, error) {
	var result paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.loadPending(ctx, tx, paymentID)
		if err != nil {
			return err
		}

		now := s.clock.Now().UTC()
		payment.ValidationStatus = paymentdomain.StatusValidated
		payment.ValidatedBy = actorcontext.ActorOrSystem(ctx).AuditID()
		payment.ValidatedAt = &now
		if err := s.repo.UpdateDecision(ctx, tx, payment); err != nil {
			return dbpkg.Wrap("payment.update_decision", err)
		}

		debts, err := s.debtSvc.OutstandingTx(ctx, tx, payment.ClientID)
		if err != nil {
			return err
		}
		byID := make(map[snowflake.ID]debtdomain.Debt, len(debts))
		for _, debt := range debts {
			byID[debt.ID] = debt
		}

		plan, leftover := paymentdomain.Allocate(debts, payment.Amount)
		today := s.debtSvc.Today()
		clientID := payment.ClientID
		allocations := make([]paymentdomain.PaymentAllocation, 0, len(plan))
		lines := []ledgerdomain.PostingLine{{
			Account:   ledgerdomain.AccountCodeCash,
			Direction: ledgerdomain.LedgerEntryDirectionDebit,
			Amount:    payment.Amount,
			ClientID:  &clientID,
		}}
		applied := make([]map[string]any, 0, len(plan))

		for _, step := range plan {
			debt := byID[step.DebtID]
			if _, err := s.debtSvc.SetPaidTx(ctx, tx, debt, debt.PaidAmount.Add(step.Amount), today); err != nil {
				return err
			}
			allocations = append(allocations, paymentdomain.PaymentAllocation{
				ID:        s.genID.Generate(),
				PaymentID: payment.ID,
				DebtID:    step.DebtID,
				Amount:    step.Amount,
				CreatedAt: now,
			})
			lines = append(lines, ledgerdomain.PostingLine{
				Account:   ledgerdomain.AccountCodeAccountsReceivable,
				Direction: ledgerdomain.LedgerEntryDirectionCredit,
				Amount:    step.Amount,
				ClientID:  &clientID,
			})
			applied = append(applied, map[string]any{
				"debt_id":       step.DebtID.String(),
				"billing_month": debt.BillingMonth.Format("2006-01"),
				"amount":        step.Amount.StringFixed(2),
			})
		}
		if leftover.IsPositive() {
			lines = append(lines, ledgerdomain.PostingLine{
				Account:   ledgerdomain.AccountCodeClientCredit,
				Direction: ledgerdomain.LedgerEntryDirectionCredit,
				Amount:    leftover,
				ClientID:  &clientID,
			})
		}

		if err := s.repo.InsertAllocations(ctx, tx, allocations); err != nil {
			return dbpkg.Wrap("payment.insert_allocations", err)
		}
		posted, err := s.ledgerSvc.PostTx(ctx, tx, ledgerdomain.Posting{
			SourceType: ledgerdomain.SourceTypePayment,
			SourceID:   payment.ID,
			OccurredAt: now,
			Lines:      lines,
		})
		if err != nil {
			return err
		}
		if !posted {
			return paymentdomain.ErrNotPending
		}

		s.auditSvc.Record(ctx, tx, auditdomain.Event{
			EntityName: "payment",
			EntityID:   payment.ID.String(),
			Action:     auditdomain.ActionValidate,
			Detail: map[string]any{
				"amount":           payment.Amount.StringFixed(2),
				"method":           string(payment.Method),
				"reference_number": payment.ReferenceNumber,
				"allocations":      applied,
				"credit":           leftover.StringFixed(2),
			},
		})
		result = *payment
		return nil
	})
	return result, persistence("payment.reconcile", err)
}

func (s *Service) Cancel(ctx context.Context, id string, reason string) (paymentdomain.Payment, error) {
	paymentID, err := parseID(id)
	if err != nil {
		return paymentdomain.Payment{}, paymentdomain.ErrInvalidID
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return paymentdomain.Payment{}, paymentdomain.ErrMissingReason
	}

	current, err := s.repo.FindByID(ctx, s.db, paymentID, false)
	if err != nil {
		return paymentdomain.Payment{}, dbpkg.Wrap("payment.find", err)
	}
	if current == nil {
		return paymentdomain.Payment{}, paymentdomain.ErrNotFound
	}
	if current.Method == paymentdomain.MethodCash {
		return paymentdomain.Payment{}, paymentdomain.ErrCashNotCancelled
	}

	unlock, err := s.locks.Lock(ctx, current.ClientID)
	if err != nil {
		return paymentdomain.Payment{}, err
	}
	defer unlock()

	return s.retry(ctx, "cancel", func() (paymentdomain.Payment, error) {
		return s.cancelOnce(ctx, paymentID, reason)
	})
}

func (s *Service) cancelOnce(ctx context.Context, paymentID snowflake.ID, reason string) (paymentdomain.Payment, error) {
	var result paymentdomain.Payment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		payment, err := s.repo.FindByID(ctx, tx, paymentID, dbpkg.SupportsRowLocks(tx))
		if err != nil {
			return dbpkg.Wrap("payment.find", err)
		}
		if payment == nil {
			return paymentdomain.ErrNotFound
		}
		if payment.Cancelled {
			return paymentdomain.ErrAlreadyCancelled
		}
		if payment.ValidationStatus == paymentdomain.StatusRejected {
			return paymentdomain.ErrRejectedCancel
		}

		previous := payment.ValidationStatus
		reversed := 0
		if previous == paymentdomain.StatusValidated {
			n, err := s.reverseAllocations(ctx, tx, payment)
			if err != nil {
				return err
			}
			reversed = n
		} else {
			payment.ValidationStatus = paymentdomain.StatusRejected
		}

		now := s.clock.Now().UTC()
		payment.Cancelled = true
		payment.CancelledBy = actorcontext.ActorOrSystem(ctx).AuditID()
		payment.CancelledAt = &now
		payment.CancelReason = reason
		if err := s.repo.UpdateCancel(ctx, tx, payment); err != nil {
			return dbpkg.Wrap("payment.update_cancel", err)
		}

		s.auditSvc.Record(ctx, tx, auditdomain.Event{
			EntityName: "payment",
			EntityID:   payment.ID.String(),
			Action:     auditdomain.ActionCancel,
			Detail: map[string]any{
				"reason":               reason,
				"previous_status":      string(previous),
				"reversed_allocations": reversed,
				"reference_number":     payment.ReferenceNumber,
			},
		})
		result = *payment
		return nil
	})
	return result, persistence("payment.cancel", err)
}

// reverseAllocations gives back to each debt what the payment paid on it and
// posts the mirror ledger entry.
func (s *Service) reverseAllocations(ctx context.Context, tx *gorm.DB, payment *paymentdomain.Payment) (int, error) {
	allocations, err := s.repo.ListAllocations(ctx, tx, payment.ID)
	if err != nil {
		return 0, dbpkg.Wrap("payment.list_allocations", err)
	}
	active := make([]paymentdomain.PaymentAllocation, 0, len(allocations))
	ids := make([]snowflake.ID, 0, len(allocations))
	for _, allocation := range allocations {
		if allocation.Reversed {
			continue
		}
		active = append(active, allocation)
		ids = append(ids, allocation.DebtID)
	}

	debts, err := s.debtSvc.FindTx(ctx, tx, ids)
	if err != nil {
		return 0, err
	}
	byID := make(map[snowflake.ID]debtdomain.Debt, len(debts))
	for _, debt := range debts {
		byID[debt.ID] = debt
	}

	today := s.debtSvc.Today()
	for _, allocation := range active {
		debt, ok := byID[allocation.DebtID]
		if !ok {
			continue
		}
		paid := debt.PaidAmount.Sub(allocation.Amount)
		if paid.IsNegative() {
			paid = decimal.Zero
		}
		if _, err := s.debtSvc.SetPaidTx(ctx, tx, debt, paid, today); err != nil {
			return 0, err
		}
	}
	if err := s.repo.MarkAllocationsReversed(ctx, tx, payment.ID); err != nil {
		return 0, dbpkg.Wrap("payment.reverse_allocations", err)
	}

	posted, err := s.ledgerSvc.ReverseTx(ctx, tx, ledgerdomain.SourceTypePayment, payment.ID, ledgerdomain.SourceTypePaymentReversal)
	if err != nil {
		return 0, err
	}
	if !posted {
		return 0, paymentdomain.ErrAlreadyCancelled
	}
	return len(active), nil
}

func (s *Service) CreditBalance(ctx context.Context, clientID string) (decimal.Decimal, error) {
	id, err := parseID(clientID)
	if err != nil {
		return decimal.Zero, paymentdomain.ErrInvalidClient
	}
	if err := s.checkClient(ctx, s.db, id); err != nil {
		return decimal.Zero, err
	}
	balance, err := s.ledgerSvc.ClientCreditTx(ctx, s.db, id)
	if err != nil {
		return decimal.Zero, dbpkg.Wrap("payment.credit_balance", err)
	}
	return balance, nil
}

func (s *Service) Get(ctx context.Context, id string) (paymentdomain.Detail, error) {
	paymentID, err := parseID(id)
	if err != nil {
		return paymentdomain.Detail{}, paymentdomain.ErrInvalidID
	}
	payment, err := s.repo.FindByID(ctx, s.db, paymentID, false)
	if err != nil {
		return paymentdomain.Detail{}, dbpkg.Wrap("payment.find", err)
	}
	if payment == nil {
		return paymentdomain.Detail{}, paymentdomain.ErrNotFound
	}
	if err := s.checkClient(ctx, s.db, payment.ClientID); err != nil {
		if errors.Is(err, paymentdomain.ErrClientNotFound) {
			return paymentdomain.Detail{}, paymentdomain.ErrNotFound
		}
		return paymentdomain.Detail{}, err
	}
	allocations, err := s.repo.ListAllocations(ctx, s.db, paymentID)
	if err != nil {
		return paymentdomain.Detail{}, dbpkg.Wrap("payment.list_allocations", err)
	}
	return paymentdomain.Detail{Payment: *payment, Allocations: allocations}, nil
}

func (s *Service) List(ctx context.Context, req paymentdomain.ListRequest) (paymentdomain.ListResponse, error) {
	page := req.Pagination.Normalize()
	filter := paymentdomain.ListFilter{Limit: page.PageSize}

	if raw := strings.TrimSpace(req.ClientID); raw != "" {
		clientID, err := parseID(raw)
		if err != nil {
			return paymentdomain.ListResponse{}, paymentdomain.ErrInvalidClient
		}
		filter.ClientID = &clientID
	}
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status := paymentdomain.ValidationStatus(strings.ToLower(raw))
		if !status.Valid() {
			return paymentdomain.ListResponse{}, paymentdomain.ErrInvalidStatus
		}
		filter.Status = status
	}
	if raw := strings.TrimSpace(req.Method); raw != "" {
		method := paymentdomain.Method(strings.ToLower(raw))
		if !method.Valid() {
			return paymentdomain.ListResponse{}, paymentdomain.ErrInvalidMethod
		}
		filter.Method = method
	}
	if actor, ok := actorcontext.FromContext(ctx); ok && actor.IsCollector() {
		collectorID := actor.ID
		filter.CollectorID = &collectorID
	}
	if token := strings.TrimSpace(page.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return paymentdomain.ListResponse{}, paymentdomain.ErrInvalidPageToken
		}
		afterID, err := parseID(cursor.ID)
		if err != nil {
			return paymentdomain.ListResponse{}, paymentdomain.ErrInvalidPageToken
		}
		filter.AfterID = &afterID
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return paymentdomain.ListResponse{}, dbpkg.Wrap("payment.list", err)
	}
	items, pageInfo := pagination.BuildCursorPageInfo(items, page.PageSize, func(p *paymentdomain.Payment) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        p.ID.String(),
			CreatedAt: p.CreatedAt.Format(time.RFC3339),
		})
		if err != nil {
			return ""
		}
		return token
	})

	payments := make([]paymentdomain.Payment, 0, len(items))
	for _, item := range items {
		payments = append(payments, *item)
	}
	return paymentdomain.ListResponse{PageInfo: pageInfo, Payments: payments}, nil
}

func (s *Service) loadPending(ctx context.Context, tx *gorm.DB, paymentID snowflake.ID) (*paymentdomain.Payment, error) {
	payment, err := s.repo.FindByID(ctx, tx, paymentID, dbpkg.SupportsRowLocks(tx))
	if err != nil {
		return nil, dbpkg.Wrap("payment.find", err)
	}
	if payment == nil {
		return nil, paymentdomain.ErrNotFound
	}
	if payment.Cancelled || payment.ValidationStatus != paymentdomain.StatusPending {
		return nil, paymentdomain.ErrNotPending
	}
	return payment, nil
}

// checkClient fails with ErrClientNotFound when the client is missing or not
// assigned to a collector actor.
func (s *Service) checkClient(ctx context.Context, db *gorm.DB, clientID snowflake.ID) error {
	client, err := s.clientSvc.Lookup(ctx, db, clientID)
	if err != nil {
		return err
	}
	if client == nil {
		return paymentdomain.ErrClientNotFound
	}
	if actor, ok := actorcontext.FromContext(ctx); ok && actor.IsCollector() {
		if client.AssignedCollectorID == nil || *client.AssignedCollectorID != actor.ID {
			return paymentdomain.ErrClientNotFound
		}
	}
	return nil
}

// retry reruns op with exponential backoff while it fails with a persistence
// error. Domain errors end the loop at once.
func (s *Service) retry(ctx context.Context, op string, fn func() (paymentdomain.Payment, error)) (paymentdomain.Payment, error) {
	attempts := s.billing.Get().ReconcileMaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retryInterval
	policy.MaxInterval = 2 * time.Second

	return backoff.Retry(ctx, func() (paymentdomain.Payment, error) {
		payment, err := fn()
		if err != nil && !errors.Is(err, dbpkg.ErrPersistence) {
			return payment, backoff.Permanent(err)
		}
		return payment, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.metrics.IncReconcileRetry()
			s.log.Warn("retrying payment operation",
				zap.String("op", op),
				zap.Duration("next", next),
				zap.Error(err),
			)
		}),
	)
}

var domainErrors = []error{
	context.Canceled,
	context.DeadlineExceeded,
	paymentdomain.ErrNotFound,
	paymentdomain.ErrNotPending,
	paymentdomain.ErrAlreadyCancelled,
	paymentdomain.ErrRejectedCancel,
	debtdomain.ErrInvalidPaidAmount,
	ledgerdomain.ErrInvalidSourceType,
	ledgerdomain.ErrInvalidSourceID,
	ledgerdomain.ErrInvalidOccurredAt,
	ledgerdomain.ErrInvalidEntryLines,
	ledgerdomain.ErrInvalidLineAmount,
	ledgerdomain.ErrInvalidLineDirection,
	ledgerdomain.ErrUnknownAccount,
	ledgerdomain.ErrUnbalancedEntry,
	ledgerdomain.ErrEntryNotFound,
}

// persistence wraps storage failures so retry can tell them from domain errors.
func persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, domainErr := range domainErrors {
		if errors.Is(err, domainErr) {
			return err
		}
	}
	return dbpkg.Wrap(op, err)
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, paymentdomain.ErrInvalidID
	}
	return id, nil
}
