package domain

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

type DashboardRequest struct {
	AsOf   string `form:"as_of"`
	SedeID string `form:"sede_id"`
}

type Dashboard struct {
	AsOf            string          `json:"as_of"`
	TotalClients    int64           `json:"total_clients"`
	ActiveClients   int64           `json:"active_clients"`
	TotalDebt       decimal.Decimal `json:"total_debt"`
	MonthlyRevenue  decimal.Decimal `json:"monthly_revenue"`
	PendingPayments int64           `json:"pending_payments"`
}

type DebtorsRequest struct {
	AsOf   string `form:"as_of"`
	SedeID string `form:"sede_id"`
	Limit  int    `form:"limit"`
}

// Debtor aggregates the unpaid debts of one client.
type Debtor struct {
	ClientID    string          `json:"client_id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	DebtCount   int             `json:"debt_count"`
	Outstanding decimal.Decimal `json:"outstanding"`
	OldestMonth string          `json:"oldest_month"`
}

// RevenueRequest bounds are inclusive dates on the validation day. Either
// may be empty.
type RevenueRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SedeID    string `form:"sede_id"`
}

type RevenueTransaction struct {
	PaymentID  string          `json:"payment_id"`
	Date       string          `json:"date"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method"`
	ClientID   string          `json:"client_id"`
	ClientCode string          `json:"client_code"`
	ClientName string          `json:"client_name"`
}

type Revenue struct {
	StartDate    string               `json:"start_date,omitempty"`
	EndDate      string               `json:"end_date,omitempty"`
	Transactions []RevenueTransaction `json:"transactions"`
	TotalRevenue decimal.Decimal      `json:"total_revenue"`
}

type CollectorsRequest struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	SedeID    string `form:"sede_id"`
}

// CollectorSummary totals validated payments by the collector assigned to
// the paying client. CollectorID is empty for unassigned clients.
type CollectorSummary struct {
	CollectorID      string          `json:"collector_id"`
	TotalCollected   decimal.Decimal `json:"total_collected"`
	TransactionCount int64           `json:"transaction_count"`
}

type Service interface {
	Dashboard(ctx context.Context, req DashboardRequest) (Dashboard, error)
	// Debtors lists clients with unpaid debts billed up to AsOf, largest
	// balance first.
	Debtors(ctx context.Context, req DebtorsRequest) ([]Debtor, error)
	// Revenue lists validated, uncancelled payments newest first.
	Revenue(ctx context.Context, req RevenueRequest) (Revenue, error)
	// Collectors is restricted to admins and office staff.
	Collectors(ctx context.Context, req CollectorsRequest) ([]CollectorSummary, error)
}

var (
	ErrInvalidAsOf      = errors.New("invalid_as_of")
	ErrInvalidSede      = errors.New("invalid_sede_id")
	ErrInvalidDateRange = errors.New("invalid_date_range")
	ErrForbidden        = errors.New("forbidden")
)
