package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/clock"
	"github.com/smallbiznis/recaudo/internal/config"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	"github.com/smallbiznis/recaudo/internal/receipt/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const dateLayout = "02/01/2006"

type Params struct {
	fx.In

	Log        *zap.Logger
	Clock      clock.Clock
	Config     config.Config
	Renderer   domain.Renderer
	PaymentSvc paymentdomain.Service
	ClientSvc  clientdomain.Service
	DebtSvc    debtdomain.Service
	Billing    *config.BillingConfigHolder `optional:"true"`
}

type Service struct {
	log        *zap.Logger
	clock      clock.Clock
	issuer     string
	renderer   domain.Renderer
	paymentSvc paymentdomain.Service
	clientSvc  clientdomain.Service
	debtSvc    debtdomain.Service
	billing    *config.BillingConfigHolder
}

func New(p Params) domain.Service {
	billing := p.Billing
	if billing == nil {
		billing = config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())
	}
	return &Service{
		log:        p.Log.Named("receipt.service"),
		clock:      p.Clock,
		issuer:     p.Config.AppName,
		renderer:   p.Renderer,
		paymentSvc: p.PaymentSvc,
		clientSvc:  p.ClientSvc,
		debtSvc:    p.DebtSvc,
		billing:    billing,
	}
}

func (s *Service) Render(ctx context.Context, paymentID string) ([]byte, error) {
	data, err := s.Build(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	doc, err := s.renderer.Render(ctx, data)
	if err != nil {
		s.log.Error("failed to render receipt", zap.String("payment_id", paymentID), zap.Error(err))
		return nil, err
	}
	return doc, nil
}

// Build gathers the receipt content without rendering it.
func (s *Service) Build(ctx context.Context, paymentID string) (domain.Data, error) {
	detail, err := s.paymentSvc.Get(ctx, paymentID)
	if err != nil {
		return domain.Data{}, err
	}
	if detail.ValidationStatus != paymentdomain.StatusValidated || detail.Cancelled {
		return domain.Data{}, domain.ErrNotValidated
	}

	client, err := s.clientSvc.Lookup(ctx, nil, detail.ClientID)
	if err != nil {
		return domain.Data{}, err
	}
	if client == nil {
		return domain.Data{}, paymentdomain.ErrClientNotFound
	}

	debts, err := s.debtSvc.List(ctx, debtdomain.ListRequest{ClientID: detail.ClientID.String()})
	if err != nil {
		return domain.Data{}, err
	}
	months := make(map[snowflake.ID]time.Time, len(debts))
	for _, d := range debts {
		months[d.ID] = d.BillingMonth
	}

	loc := s.billing.Get().Location()
	allocated := decimal.Zero
	lines := make([]domain.Line, 0, len(detail.Allocations))
	for _, allocation := range detail.Allocations {
		allocated = allocated.Add(allocation.Amount)
		month := allocation.DebtID.String()
		if billingMonth, ok := months[allocation.DebtID]; ok {
			month = billingMonth.Format("2006-01")
		}
		lines = append(lines, domain.Line{BillingMonth: month, Amount: money(allocation.Amount)})
	}

	data := domain.Data{
		Issuer:          s.issuer,
		Number:          detail.ID.String(),
		IssuedAt:        s.clock.Now().In(loc).Format(dateLayout),
		ClientCode:      client.Code,
		ClientName:      client.Name,
		ClientDNI:       client.DNI,
		ClientAddress:   client.Address,
		Method:          string(detail.Method),
		ReferenceNumber: detail.ReferenceNumber,
		Lines:           lines,
		Total:           money(detail.Amount),
	}
	if detail.ValidatedAt != nil {
		data.ValidatedAt = detail.ValidatedAt.In(loc).Format(dateLayout)
	}
	if credit := detail.Amount.Sub(allocated); credit.IsPositive() {
		data.Credit = money(credit)
	}
	return data, nil
}

func money(d decimal.Decimal) string {
	return "S/ " + d.StringFixed(2)
}
