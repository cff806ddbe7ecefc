package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/clock"
	ledgerdomain "github.com/smallbiznis/recaudo/internal/ledger/domain"
	obsmetrics "github.com/smallbiznis/recaudo/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("ledger.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) EnsureAccounts(ctx context.Context) error {
	now := s.clock.Now().UTC()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for code, name := range ledgerdomain.DefaultAccounts {
			account := ledgerdomain.LedgerAccount{
				ID:        s.genID.Generate(),
				Code:      code,
				Name:      name,
				CreatedAt: now,
			}
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&account).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Service) PostTx(ctx context.Context, tx *gorm.DB, posting ledgerdomain.Posting) (bool, error) {
	if strings.TrimSpace(string(posting.SourceType)) == "" {
		return false, ledgerdomain.ErrInvalidSourceType
	}
	if posting.SourceID == 0 {
		return false, ledgerdomain.ErrInvalidSourceID
	}
	if posting.OccurredAt.IsZero() {
		return false, ledgerdomain.ErrInvalidOccurredAt
	}

	lines := make([]ledgerdomain.PostingLine, 0, len(posting.Lines))
	for _, line := range posting.Lines {
		if line.Amount.IsNegative() {
			return false, ledgerdomain.ErrInvalidLineAmount
		}
		if line.Amount.IsZero() {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 2 {
		return false, ledgerdomain.ErrInvalidEntryLines
	}
	if err := ledgerdomain.ValidateBalanced(lines); err != nil {
		return false, err
	}

	accounts, err := s.accountIDs(ctx, tx)
	if err != nil {
		return false, err
	}

	now := s.clock.Now().UTC()
	entry := ledgerdomain.LedgerEntry{
		ID:         s.genID.Generate(),
		SourceType: posting.SourceType,
		SourceID:   posting.SourceID,
		OccurredAt: posting.OccurredAt.UTC(),
		CreatedAt:  now,
	}
	result := tx.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		return false, nil
	}

	rows := make([]ledgerdomain.LedgerEntryLine, 0, len(lines))
	for _, line := range lines {
		accountID, ok := accounts[line.Account]
		if !ok {
			return false, ledgerdomain.ErrUnknownAccount
		}
		rows = append(rows, ledgerdomain.LedgerEntryLine{
			ID:            s.genID.Generate(),
			LedgerEntryID: entry.ID,
			AccountID:     accountID,
			ClientID:      line.ClientID,
			Direction:     line.Direction,
			Amount:        line.Amount.Round(2),
			CreatedAt:     now,
		})
	}
	if err := tx.WithContext(ctx).Create(&rows).Error; err != nil {
		return false, err
	}

	s.obsMetrics.RecordLedgerEntry(ctx, string(posting.SourceType))
	return true, nil
}

func (s *Service) ReverseTx(ctx context.Context, tx *gorm.DB, sourceType ledgerdomain.LedgerSourceType, sourceID snowflake.ID, reversalType ledgerdomain.LedgerSourceType) (bool, error) {
	var entry ledgerdomain.LedgerEntry
	err := tx.WithContext(ctx).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, ledgerdomain.ErrEntryNotFound
	}
	if err != nil {
		return false, err
	}

	var lines []ledgerdomain.LedgerEntryLine
	if err := tx.WithContext(ctx).
		Where("ledger_entry_id = ?", entry.ID).
		Order("id ASC").
		Find(&lines).Error; err != nil {
		return false, err
	}

	codes, err := s.accountCodes(ctx, tx)
	if err != nil {
		return false, err
	}

	mirror := make([]ledgerdomain.PostingLine, 0, len(lines))
	for _, line := range lines {
		direction := ledgerdomain.LedgerEntryDirectionDebit
		if line.Direction == ledgerdomain.LedgerEntryDirectionDebit {
			direction = ledgerdomain.LedgerEntryDirectionCredit
		}
		mirror = append(mirror, ledgerdomain.PostingLine{
			Account:   codes[line.AccountID],
			Direction: direction,
			Amount:    line.Amount,
			ClientID:  line.ClientID,
		})
	}

	return s.PostTx(ctx, tx, ledgerdomain.Posting{
		SourceType: reversalType,
		SourceID:   sourceID,
		OccurredAt: s.clock.Now(),
		Lines:      mirror,
	})
}

// ClientCreditTx sums in Go so the result is exact on every dialect.
func (s *Service) ClientCreditTx(ctx context.Context, tx *gorm.DB, clientID snowflake.ID) (decimal.Decimal, error) {
	if tx == nil {
		tx = s.db
	}
	var lines []ledgerdomain.LedgerEntryLine
	err := tx.WithContext(ctx).
		Table("ledger_entry_lines AS l").
		Select("l.direction, l.amount").
		Joins("JOIN ledger_accounts a ON a.id = l.account_id").
		Where("a.code = ? AND l.client_id = ?", ledgerdomain.AccountCodeClientCredit, clientID).
		Scan(&lines).Error
	if err != nil {
		return decimal.Zero, err
	}

	balance := decimal.Zero
	for _, line := range lines {
		if line.Direction == ledgerdomain.LedgerEntryDirectionCredit {
			balance = balance.Add(line.Amount)
		} else {
			balance = balance.Sub(line.Amount)
		}
	}
	return balance.Round(2), nil
}

func (s *Service) accountIDs(ctx context.Context, tx *gorm.DB) (map[ledgerdomain.LedgerAccountCode]snowflake.ID, error) {
	var accounts []ledgerdomain.LedgerAccount
	if err := tx.WithContext(ctx).Find(&accounts).Error; err != nil {
		return nil, err
	}
	out := make(map[ledgerdomain.LedgerAccountCode]snowflake.ID, len(accounts))
	for _, account := range accounts {
		out[account.Code] = account.ID
	}
	return out, nil
}

func (s *Service) accountCodes(ctx context.Context, tx *gorm.DB) (map[snowflake.ID]ledgerdomain.LedgerAccountCode, error) {
	ids, err := s.accountIDs(ctx, tx)
	if err != nil {
		return nil, err
	}
	out := make(map[snowflake.ID]ledgerdomain.LedgerAccountCode, len(ids))
	for code, id := range ids {
		out[id] = code
	}
	return out, nil
}

