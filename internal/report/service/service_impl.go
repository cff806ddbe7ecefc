package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/actorcontext"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	"github.com/smallbiznis/recaudo/internal/report/domain"
	dbpkg "github.com/smallbiznis/recaudo/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const defaultDebtorsLimit = 100

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Billing *config.BillingConfigHolder `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	billing *config.BillingConfigHolder
}

func New(p Params) domain.Service {
	billing := p.Billing
	if billing == nil {
		billing = config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	}
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("report.service"),
		clock:   p.Clock,
		billing: billing,
	}
}

// scope narrows every report to the clients the caller may see.
type scope struct {
	sedeID      *snowflake.ID
	collectorID *snowflake.ID
}

func (sc scope) apply(db *gorm.DB) *gorm.DB {
	if sc.sedeID != nil {
		db = db.Where("clients.sede_id = ?", *sc.sedeID)
	}
	if sc.collectorID != nil {
		db = db.Where("clients.assigned_collector_id = ?", *sc.collectorID)
	}
	return db
}

func (s *Service) Dashboard(ctx context.Context, req domain.DashboardRequest) (domain.Dashboard, error) {
	asOf, err := s.asOf(req.AsOf)
	if err != nil {
		return domain.Dashboard{}, err
	}
	sc, err := resolveScope(ctx, req.SedeID)
	if err != nil {
		return domain.Dashboard{}, err
	}
	db := s.db.WithContext(ctx)

	var total, active int64
	if err := sc.apply(db.Model(&clientdomain.Client{})).Count(&total).Error; err != nil {
		return domain.Dashboard{}, dbpkg.Wrap("report.count_clients", err)
	}
	if err := sc.apply(db.Model(&clientdomain.Client{})).Where("clients.active = ?", true).Count(&active).Error; err != nil {
		return domain.Dashboard{}, dbpkg.Wrap("report.count_active_clients", err)
	}

	debts, err := s.outstanding(ctx, sc, asOf)
	if err != nil {
		return domain.Dashboard{}, err
	}
	totalDebt := decimal.Zero
	for _, d := range debts {
		totalDebt = totalDebt.Add(d.Remaining())
	}

	monthStart := clock.MonthStart(asOf)
	var revenueRows []paymentdomain.Payment
	err = sc.apply(db.Model(&paymentdomain.Payment{}).
		Select("payments.amount").
		Joins("JOIN clients ON clients.id = payments.client_id").
		Where("payments.validation_status = ? AND payments.cancelled = ?", paymentdomain.StatusValidated, false).
		Where("payments.validated_at >= ? AND payments.validated_at < ?", monthStart, monthStart.AddDate(0, 1, 0))).
		Find(&revenueRows).Error
	if err != nil {
		return domain.Dashboard{}, dbpkg.Wrap("report.revenue", err)
	}
	revenue := decimal.Zero
	for _, p := range revenueRows {
		revenue = revenue.Add(p.Amount)
	}

	var pending int64
	err = sc.apply(db.Model(&paymentdomain.Payment{}).
		Joins("JOIN clients ON clients.id = payments.client_id").
		Where("payments.validation_status = ? AND payments.cancelled = ?", paymentdomain.StatusPending, false)).
		Count(&pending).Error
	if err != nil {
		return domain.Dashboard{}, dbpkg.Wrap("report.pending_payments", err)
	}

	return domain.Dashboard{
		AsOf:            asOf.Format(time.DateOnly),
		TotalClients:    total,
		ActiveClients:   active,
		TotalDebt:       totalDebt.Round(2),
		MonthlyRevenue:  revenue.Round(2),
		PendingPayments: pending,
	}, nil
}

func (s *Service) Debtors(ctx context.Context, req domain.DebtorsRequest) ([]domain.Debtor, error) {
	asOf, err := s.asOf(req.AsOf)
	if err != nil {
		return nil, err
	}
	sc, err := resolveScope(ctx, req.SedeID)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit <= 0 || limit > 1000 {
		limit = defaultDebtorsLimit
	}

	debts, err := s.outstanding(ctx, sc, asOf)
	if err != nil {
		return nil, err
	}
	if len(debts) == 0 {
		return []domain.Debtor{}, nil
	}

	byClient := make(map[snowflake.ID]*domain.Debtor)
	oldest := make(map[snowflake.ID]time.Time)
	clientIDs := make([]snowflake.ID, 0)
	for _, d := range debts {
		debtor, ok := byClient[d.ClientID]
		if !ok {
			debtor = &domain.Debtor{ClientID: d.ClientID.String(), Outstanding: decimal.Zero}
			byClient[d.ClientID] = debtor
			clientIDs = append(clientIDs, d.ClientID)
		}
		debtor.DebtCount++
		debtor.Outstanding = debtor.Outstanding.Add(d.Remaining())
		if first, ok := oldest[d.ClientID]; !ok || d.BillingMonth.Before(first) {
			oldest[d.ClientID] = d.BillingMonth
		}
	}

	var clients []clientdomain.Client
	if err := s.db.WithContext(ctx).Where("id IN ?", clientIDs).Find(&clients).Error; err != nil {
		return nil, dbpkg.Wrap("report.debtor_clients", err)
	}
	for _, c := range clients {
		debtor := byClient[c.ID]
		debtor.Code = c.Code
		debtor.Name = c.Name
		debtor.Phone = c.Phone
	}

	debtors := make([]domain.Debtor, 0, len(byClient))
	for id, debtor := range byClient {
		debtor.Outstanding = debtor.Outstanding.Round(2)
		debtor.OldestMonth = oldest[id].Format("2006-01")
		debtors = append(debtors, *debtor)
	}
	sort.Slice(debtors, func(i, j int) bool {
		if cmp := debtors[i].Outstanding.Cmp(debtors[j].Outstanding); cmp != 0 {
			return cmp > 0
		}
		return debtors[i].OldestMonth < debtors[j].OldestMonth
	})
	if len(debtors) > limit {
		debtors = debtors[:limit]
	}
	return debtors, nil
}

func (s *Service) Revenue(ctx context.Context, req domain.RevenueRequest) (domain.Revenue, error) {
	window, err := s.dateRange(req.StartDate, req.EndDate)
	if err != nil {
		return domain.Revenue{}, err
	}
	sc, err := resolveScope(ctx, req.SedeID)
	if err != nil {
		return domain.Revenue{}, err
	}

	payments, err := s.validatedPayments(ctx, sc, window)
	if err != nil {
		return domain.Revenue{}, err
	}
	clients, err := s.clientsOf(ctx, payments)
	if err != nil {
		return domain.Revenue{}, err
	}

	loc := s.billing.Get().Location()
	total := decimal.Zero
	transactions := make([]domain.RevenueTransaction, 0, len(payments))
	for _, p := range payments {
		total = total.Add(p.Amount)
		client := clients[p.ClientID]
		transactions = append(transactions, domain.RevenueTransaction{
			PaymentID:  p.ID.String(),
			Date:       paidAt(p).In(loc).Format(time.DateOnly),
			Amount:     p.Amount.Round(2),
			Method:     string(p.Method),
			ClientID:   p.ClientID.String(),
			ClientCode: client.Code,
			ClientName: client.Name,
		})
	}

	return domain.Revenue{
		StartDate:    window.startLabel(),
		EndDate:      window.endLabel(),
		Transactions: transactions,
		TotalRevenue: total.Round(2),
	}, nil
}

func (s *Service) Collectors(ctx context.Context, req domain.CollectorsRequest) ([]domain.CollectorSummary, error) {
	if actor, ok := actorcontext.FromContext(ctx); ok &&
		actor.Role != actorcontext.RoleAdmin && actor.Role != actorcontext.RoleOffice {
		return nil, domain.ErrForbidden
	}
	window, err := s.dateRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}
	sc, err := resolveScope(ctx, req.SedeID)
	if err != nil {
		return nil, err
	}

	payments, err := s.validatedPayments(ctx, sc, window)
	if err != nil {
		return nil, err
	}
	clients, err := s.clientsOf(ctx, payments)
	if err != nil {
		return nil, err
	}

	byCollector := make(map[string]*domain.CollectorSummary)
	for _, p := range payments {
		key := ""
		if id := clients[p.ClientID].AssignedCollectorID; id != nil {
			key = id.String()
		}
		summary, ok := byCollector[key]
		if !ok {
			summary = &domain.CollectorSummary{CollectorID: key, TotalCollected: decimal.Zero}
			byCollector[key] = summary
		}
		summary.TotalCollected = summary.TotalCollected.Add(p.Amount)
		summary.TransactionCount++
	}

	out := make([]domain.CollectorSummary, 0, len(byCollector))
	for _, summary := range byCollector {
		summary.TotalCollected = summary.TotalCollected.Round(2)
		out = append(out, *summary)
	}
	sort.Slice(out, func(i, j int) bool {
		if cmp := out[i].TotalCollected.Cmp(out[j].TotalCollected); cmp != 0 {
			return cmp > 0
		}
		return out[i].CollectorID < out[j].CollectorID
	})
	return out, nil
}

// dateWindow is a half-open range of instants; nil bounds are unbounded.
type dateWindow struct {
	from *time.Time
	to   *time.Time
}

func (w dateWindow) startLabel() string {
	if w.from == nil {
		return ""
	}
	return w.from.Format(time.DateOnly)
}

func (w dateWindow) endLabel() string {
	if w.to == nil {
		return ""
	}
	return w.to.AddDate(0, 0, -1).Format(time.DateOnly)
}

// dateRange turns inclusive calendar dates into a window in the billing
// timezone.
func (s *Service) dateRange(start, end string) (dateWindow, error) {
	loc := s.billing.Get().Location()
	var w dateWindow
	if start = strings.TrimSpace(start); start != "" {
		t, err := time.ParseInLocation(time.DateOnly, start, loc)
		if err != nil {
			return dateWindow{}, domain.ErrInvalidDateRange
		}
		w.from = &t
	}
	if end = strings.TrimSpace(end); end != "" {
		t, err := time.ParseInLocation(time.DateOnly, end, loc)
		if err != nil {
			return dateWindow{}, domain.ErrInvalidDateRange
		}
		next := t.AddDate(0, 0, 1)
		w.to = &next
	}
	if w.from != nil && w.to != nil && !w.from.Before(*w.to) {
		return dateWindow{}, domain.ErrInvalidDateRange
	}
	return w, nil
}

// validatedPayments loads validated, uncancelled payments in scope, newest
// first.
func (s *Service) validatedPayments(ctx context.Context, sc scope, w dateWindow) ([]paymentdomain.Payment, error) {
	stmt := s.db.WithContext(ctx).
		Model(&paymentdomain.Payment{}).
		Select("payments.*").
		Joins("JOIN clients ON clients.id = payments.client_id").
		Where("payments.validation_status = ? AND payments.cancelled = ?", paymentdomain.StatusValidated, false)
	if w.from != nil {
		stmt = stmt.Where("payments.validated_at >= ?", w.from.UTC())
	}
	if w.to != nil {
		stmt = stmt.Where("payments.validated_at < ?", w.to.UTC())
	}

	var payments []paymentdomain.Payment
	if err := sc.apply(stmt).Order("payments.validated_at DESC, payments.id DESC").Find(&payments).Error; err != nil {
		return nil, dbpkg.Wrap("report.validated_payments", err)
	}
	return payments, nil
}

func (s *Service) clientsOf(ctx context.Context, payments []paymentdomain.Payment) (map[snowflake.ID]clientdomain.Client, error) {
	out := make(map[snowflake.ID]clientdomain.Client)
	if len(payments) == 0 {
		return out, nil
	}
	ids := make([]snowflake.ID, 0, len(payments))
	for _, p := range payments {
		if _, seen := out[p.ClientID]; !seen {
			out[p.ClientID] = clientdomain.Client{}
			ids = append(ids, p.ClientID)
		}
	}

	var clients []clientdomain.Client
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&clients).Error; err != nil {
		return nil, dbpkg.Wrap("report.payment_clients", err)
	}
	for _, c := range clients {
		out[c.ID] = c
	}
	return out, nil
}

func paidAt(p paymentdomain.Payment) time.Time {
	if p.ValidatedAt != nil {
		return *p.ValidatedAt
	}
	return p.CreatedAt
}

// outstanding loads unpaid debts billed up to asOf. Sums are done in Go so
// results match on every dialect.
func (s *Service) outstanding(ctx context.Context, sc scope, asOf time.Time) ([]debtdomain.Debt, error) {
	var debts []debtdomain.Debt
	err := sc.apply(s.db.WithContext(ctx).
		Model(&debtdomain.Debt{}).
		Select("debts.*").
		Joins("JOIN clients ON clients.id = debts.client_id").
		Where("debts.paid_amount < debts.amount AND debts.billing_month <= ?", asOf)).
		Find(&debts).Error
	if err != nil {
		return nil, dbpkg.Wrap("report.outstanding", err)
	}
	return debts, nil
}

func (s *Service) asOf(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return clock.Date(s.clock.Now().In(s.billing.Get().Location())), nil
	}
	t, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, domain.ErrInvalidAsOf
	}
	return t, nil
}

// resolveScope pins collectors to their clients and office staff to their
// sede. Only admins and managers may pick a sede explicitly.
func resolveScope(ctx context.Context, requested string) (scope, error) {
	var sc scope
	actor, ok := actorcontext.FromContext(ctx)
	if ok && actor.IsCollector() {
		id := actor.ID
		sc.collectorID = &id
	}
	if ok && actor.SedeID != nil && actor.Role != actorcontext.RoleAdmin && actor.Role != actorcontext.RoleManager {
		id := *actor.SedeID
		sc.sedeID = &id
		return sc, nil
	}
	if requested = strings.TrimSpace(requested); requested != "" {
		id, err := snowflake.ParseString(requested)
		if err != nil || id == 0 {
			return scope{}, domain.ErrInvalidSede
		}
		sc.sedeID = &id
	}
	return sc, nil
}
