package domain

import (
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
)

// Allocation is one step of a reconciliation plan.
type Allocation struct {
	DebtID snowflake.ID
	Amount decimal.Decimal
}

// Allocate spreads amount over debts in the order given, paying each one's
// remaining balance before moving on. Callers pass debts oldest first. The
// part of amount left after every debt is settled is returned as leftover.
func Allocate(debts []debtdomain.Debt, amount decimal.Decimal) ([]Allocation, decimal.Decimal) {
	remaining := amount
	plan := make([]Allocation, 0, len(debts))
	for _, debt := range debts {
		if !remaining.IsPositive() {
			break
		}
		owed := debt.Remaining()
		if !owed.IsPositive() {
			continue
		}
		applied := decimal.Min(remaining, owed)
		plan = append(plan, Allocation{DebtID: debt.ID, Amount: applied})
		remaining = remaining.Sub(applied)
	}
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return plan, remaining
}
