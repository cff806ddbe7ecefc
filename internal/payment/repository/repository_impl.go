package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/payment/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payments (id, client_id, amount, method, reference_number, proof_reference, validation_status, submitted_by, cancelled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		payment.ID,
		payment.ClientID,
		payment.Amount,
		payment.Method,
		payment.ReferenceNumber,
		payment.ProofReference,
		payment.ValidationStatus,
		payment.SubmittedBy,
		payment.Cancelled,
		payment.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*domain.Payment, error) {
	stmt := db.WithContext(ctx)
	if lock {
		stmt = stmt.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var payment domain.Payment
	err := stmt.Where("id = ?", id).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.Payment, error) {
	stmt := db.WithContext(ctx).Model(&domain.Payment{}).Select("payments.*")
	if filter.ClientID != nil {
		stmt = stmt.Where("payments.client_id = ?", *filter.ClientID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("payments.validation_status = ?", filter.Status)
	}
	if filter.Method != "" {
		stmt = stmt.Where("payments.method = ?", filter.Method)
	}
	if filter.CollectorID != nil {
		stmt = stmt.Joins("JOIN clients ON clients.id = payments.client_id").
			Where("clients.assigned_collector_id = ?", *filter.CollectorID)
	}
	if filter.AfterID != nil {
		stmt = stmt.Where("payments.id < ?", *filter.AfterID)
	}
	stmt = stmt.Order("payments.id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	var payments []*domain.Payment
	if err := stmt.Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

func (r *repo) UpdateDecision(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET validation_status = ?, validated_by = ?, validated_at = ? WHERE id = ?`,
		payment.ValidationStatus,
		payment.ValidatedBy,
		payment.ValidatedAt,
		payment.ID,
	).Error
}

func (r *repo) UpdateCancel(ctx context.Context, db *gorm.DB, payment *domain.Payment) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payments SET validation_status = ?, cancelled = ?, cancelled_by = ?, cancelled_at = ?, cancel_reason = ? WHERE id = ?`,
		payment.ValidationStatus,
		payment.Cancelled,
		payment.CancelledBy,
		payment.CancelledAt,
		payment.CancelReason,
		payment.ID,
	).Error
}

func (r *repo) InsertAllocations(ctx context.Context, db *gorm.DB, allocations []domain.PaymentAllocation) error {
	if len(allocations) == 0 {
		return nil
	}
	return db.WithContext(ctx).Create(&allocations).Error
}

func (r *repo) ListAllocations(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]domain.PaymentAllocation, error) {
	var allocations []domain.PaymentAllocation
	err := db.WithContext(ctx).
		Where("payment_id = ?", paymentID).
		Order("id ASC").
		Find(&allocations).Error
	return allocations, err
}

func (r *repo) MarkAllocationsReversed(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payment_allocations SET reversed = ? WHERE payment_id = ?`,
		true,
		paymentID,
	).Error
}
