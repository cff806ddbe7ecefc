package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/clock"
)

type Status string

const (
	StatusPending Status = "pending"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusExpired Status = "expired"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPartial, StatusPaid, StatusExpired:
		return true
	default:
		return false
	}
}

// Debt is the monthly fee of one service for one billing month.
type Debt struct {
	ID           snowflake.ID    `json:"id" gorm:"primaryKey"`
	ServiceID    snowflake.ID    `json:"service_id" gorm:"not null;uniqueIndex:ux_debts_service_month,priority:1"`
	ClientID     snowflake.ID    `json:"client_id" gorm:"not null;index:ix_debts_client_month,priority:1"`
	BillingMonth time.Time       `json:"billing_month" gorm:"type:date;not null;uniqueIndex:ux_debts_service_month,priority:2;index:ix_debts_client_month,priority:2"`
	Amount       decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	PaidAmount   decimal.Decimal `json:"paid_amount" gorm:"type:numeric(12,2);not null;default:0;check:ck_debts_paid_within_amount,paid_amount <= amount"`
	DueDate      time.Time       `json:"due_date" gorm:"type:date;not null;index"`
	Status       Status          `json:"status" gorm:"type:varchar(16);not null;index"`
	CreatedAt    time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt    time.Time       `json:"updated_at" gorm:"not null"`
}

func (Debt) TableName() string { return "debts" }

// Remaining is the unpaid part of the debt, never negative.
func (d Debt) Remaining() decimal.Decimal {
	rest := d.Amount.Sub(d.PaidAmount)
	if rest.IsNegative() {
		return decimal.Zero
	}
	return rest
}

// DeriveStatus computes the status of a debt from its payments and dates.
// Expiry is strict: a debt due today is not expired yet.
func DeriveStatus(paid, amount decimal.Decimal, dueDate, asOf time.Time) Status {
	switch {
	case paid.GreaterThanOrEqual(amount):
		return StatusPaid
	case paid.IsPositive():
		return StatusPartial
	case dueDate.Before(asOf):
		return StatusExpired
	default:
		return StatusPending
	}
}

// ParseBillingMonth accepts YYYY-MM or a YYYY-MM-DD date and returns the first
// day of that month.
func ParseBillingMonth(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse("2006-01", value); err == nil {
		return clock.MonthStart(t), nil
	}
	if t, err := time.Parse(time.DateOnly, value); err == nil {
		return clock.MonthStart(t), nil
	}
	return time.Time{}, ErrInvalidBillingMonth
}
