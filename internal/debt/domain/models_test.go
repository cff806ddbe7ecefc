package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDeriveStatus(t *testing.T) {
	due := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(50)

	cases := []struct {
		name string
		paid decimal.Decimal
		asOf time.Time
		want Status
	}{
		{"unpaid before due", decimal.Zero, due.AddDate(0, 0, -1), StatusPending},
		{"unpaid on due date", decimal.Zero, due, StatusPending},
		{"unpaid after due", decimal.Zero, due.AddDate(0, 0, 1), StatusExpired},
		{"partially paid after due", decimal.NewFromInt(10), due.AddDate(0, 1, 0), StatusPartial},
		{"fully paid", amount, due.AddDate(0, 1, 0), StatusPaid},
		{"overpaid", decimal.NewFromInt(60), due, StatusPaid},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveStatus(tc.paid, amount, due, tc.asOf))
		})
	}
}

func TestRemaining(t *testing.T) {
	d := Debt{Amount: decimal.NewFromInt(50), PaidAmount: decimal.RequireFromString("20.50")}
	assert.Equal(t, "29.5", d.Remaining().String())

	d.PaidAmount = decimal.NewFromInt(70)
	assert.True(t, d.Remaining().IsZero())
}

func TestParseBillingMonth(t *testing.T) {
	got, err := ParseBillingMonth("2024-02")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseBillingMonth("2024-02-17")
	assert.NoError(t, err)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseBillingMonth("02/2024")
	assert.ErrorIs(t, err, ErrInvalidBillingMonth)
}
