package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/debt/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, debt *domain.Debt) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO debts (id, service_id, client_id, billing_month, amount, paid_amount, due_date, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		debt.ID,
		debt.ServiceID,
		debt.ClientID,
		debt.BillingMonth,
		debt.Amount,
		debt.PaidAmount,
		debt.DueDate,
		debt.Status,
		debt.CreatedAt,
		debt.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Debt, error) {
	var debt domain.Debt
	err := db.WithContext(ctx).Where("id = ?", id).First(&debt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &debt, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID, lock bool) ([]domain.Debt, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	stmt := db.WithContext(ctx)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var debts []domain.Debt
	err := stmt.Where("id IN ?", ids).Order("billing_month ASC, id ASC").Find(&debts).Error
	return debts, err
}

func (r *repo) Exists(ctx context.Context, db *gorm.DB, serviceID snowflake.ID, billingMonth time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Debt{}).
		Where("service_id = ? AND billing_month = ?", serviceID, billingMonth).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Debt, error) {
	stmt := db.WithContext(ctx).Model(&domain.Debt{}).Select("debts.*")
	if filter.ClientID != nil {
		stmt = stmt.Where("debts.client_id = ?", *filter.ClientID)
	}
	if filter.BillingMonth != nil {
		stmt = stmt.Where("debts.billing_month = ?", *filter.BillingMonth)
	}
	if filter.CollectorID != nil {
		stmt = stmt.Joins("JOIN clients ON clients.id = debts.client_id").
			Where("clients.assigned_collector_id = ?", *filter.CollectorID)
	}
	var debts []domain.Debt
	err := stmt.Order("debts.billing_month ASC, debts.id ASC").Find(&debts).Error
	return debts, err
}

func (r *repo) ListOutstanding(ctx context.Context, db *gorm.DB, clientID snowflake.ID, lock bool) ([]domain.Debt, error) {
	stmt := db.WithContext(ctx)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var debts []domain.Debt
	err := stmt.
		Where("client_id = ? AND paid_amount < amount", clientID).
		Order("billing_month ASC, id ASC").
		Find(&debts).Error
	return debts, err
}

func (r *repo) UpdatePaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paid decimal.Decimal, status domain.Status, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE debts SET paid_amount = ?, status = ?, updated_at = ? WHERE id = ?`,
		paid,
		status,
		updatedAt,
		id,
	).Error
}

func (r *repo) ExpirePending(ctx context.Context, db *gorm.DB, asOf time.Time, updatedAt time.Time) (int64, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE debts SET status = ?, updated_at = ? WHERE status = ? AND due_date < ?`,
		domain.StatusExpired,
		updatedAt,
		domain.StatusPending,
		asOf,
	)
	return result.RowsAffected, result.Error
}

func (r *repo) CollectorOwnsClient(ctx context.Context, db *gorm.DB, collectorID, clientID snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM clients WHERE id = ? AND assigned_collector_id = ?`,
		clientID,
		collectorID,
	).Scan(&count).Error
	return count > 0, err
}
