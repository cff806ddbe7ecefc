package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PostingLine names its account by code; the service resolves the id.
type PostingLine struct {
	Account   LedgerAccountCode
	Direction LedgerEntryDirection
	Amount    decimal.Decimal
	ClientID  *snowflake.ID
}

type Posting struct {
	SourceType LedgerSourceType
	SourceID   snowflake.ID
	OccurredAt time.Time
	Lines      []PostingLine
}

type Service interface {
	// PostTx writes a balanced entry using tx. It reports false when an entry
	// for the same source already exists.
	PostTx(ctx context.Context, tx *gorm.DB, posting Posting) (bool, error)
	// ReverseTx posts the mirror image of the entry recorded for the source.
	ReverseTx(ctx context.Context, tx *gorm.DB, sourceType LedgerSourceType, sourceID snowflake.ID, reversalType LedgerSourceType) (bool, error)
	// ClientCreditTx is the client's unconsumed credit as seen by tx.
	ClientCreditTx(ctx context.Context, tx *gorm.DB, clientID snowflake.ID) (decimal.Decimal, error)
	EnsureAccounts(ctx context.Context) error
}

var (
	ErrInvalidSourceType    = errors.New("invalid_source_type")
	ErrInvalidSourceID      = errors.New("invalid_source_id")
	ErrInvalidOccurredAt    = errors.New("invalid_occurred_at")
	ErrInvalidEntryLines    = errors.New("invalid_entry_lines")
	ErrInvalidLineAmount    = errors.New("invalid_line_amount")
	ErrInvalidLineDirection = errors.New("invalid_line_direction")
	ErrUnknownAccount       = errors.New("unknown_ledger_account")
	ErrUnbalancedEntry      = errors.New("unbalanced_entry")
	ErrEntryNotFound        = errors.New("ledger_entry_not_found")
)

// ValidateBalanced checks that debits equal credits.
func ValidateBalanced(lines []PostingLine) error {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, line := range lines {
		switch line.Direction {
		case LedgerEntryDirectionDebit:
			debit = debit.Add(line.Amount)
		case LedgerEntryDirectionCredit:
			credit = credit.Add(line.Amount)
		default:
			return ErrInvalidLineDirection
		}
	}
	if !debit.Equal(credit) {
		return ErrUnbalancedEntry
	}
	return nil
}
