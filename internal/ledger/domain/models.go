package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type LedgerEntryDirection string

const (
	LedgerEntryDirectionDebit  LedgerEntryDirection = "debit"
	LedgerEntryDirectionCredit LedgerEntryDirection = "credit"
)

type LedgerSourceType string

const (
	SourceTypePayment         LedgerSourceType = "payment"
	SourceTypePaymentReversal LedgerSourceType = "payment_reversal"
)

type LedgerAccountCode string

const (
	AccountCodeCash               LedgerAccountCode = "cash"
	AccountCodeAccountsReceivable LedgerAccountCode = "accounts_receivable"
	// AccountCodeClientCredit holds overpayments owed back to clients.
	AccountCodeClientCredit LedgerAccountCode = "client_credit"
)

// DefaultAccounts is the chart of accounts seeded at startup.
var DefaultAccounts = map[LedgerAccountCode]string{
	AccountCodeCash:               "Cash and bank",
	AccountCodeAccountsReceivable: "Accounts receivable",
	AccountCodeClientCredit:       "Client credit balance",
}

type LedgerAccount struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	Code      LedgerAccountCode `gorm:"type:varchar(64);not null;uniqueIndex:ux_ledger_accounts_code"`
	Name      string            `gorm:"type:varchar(128);not null"`
	CreatedAt time.Time         `gorm:"not null"`
}

func (LedgerAccount) TableName() string { return "ledger_accounts" }

// LedgerEntry is the immutable header of one financial event.
type LedgerEntry struct {
	ID         snowflake.ID     `gorm:"primaryKey"`
	SourceType LedgerSourceType `gorm:"type:varchar(32);not null;uniqueIndex:ux_ledger_entries_source,priority:1"`
	SourceID   snowflake.ID     `gorm:"not null;uniqueIndex:ux_ledger_entries_source,priority:2"`
	OccurredAt time.Time        `gorm:"not null"`
	CreatedAt  time.Time        `gorm:"not null"`
}

func (LedgerEntry) TableName() string { return "ledger_entries" }

type LedgerEntryLine struct {
	ID            snowflake.ID         `gorm:"primaryKey"`
	LedgerEntryID snowflake.ID         `gorm:"not null;index"`
	AccountID     snowflake.ID         `gorm:"not null;index:idx_ledger_lines_account_client,priority:1"`
	ClientID      *snowflake.ID        `gorm:"index:idx_ledger_lines_account_client,priority:2"`
	Direction     LedgerEntryDirection `gorm:"type:varchar(8);not null"`
	Amount        decimal.Decimal      `gorm:"type:numeric(12,2);not null"`
	CreatedAt     time.Time            `gorm:"not null"`
}

func (LedgerEntryLine) TableName() string { return "ledger_entry_lines" }
