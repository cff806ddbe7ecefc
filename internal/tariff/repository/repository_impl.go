package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	"github.com/smallbiznis/recaudo/internal/tariff/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, tariff *domain.Tariff) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tariffs (id, zone_id, service_type, base_price, effective_from, active, active_from, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tariff.ID,
		tariff.ZoneID,
		tariff.ServiceType,
		tariff.BasePrice,
		tariff.EffectiveFrom,
		tariff.Active,
		activeFrom(tariff),
		tariff.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Tariff, error) {
	var tariff domain.Tariff
	err := db.WithContext(ctx).Where("id = ?", id).First(&tariff).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tariff, nil
}

func (r *repo) ExistsActive(ctx context.Context, db *gorm.DB, zoneID snowflake.ID, serviceType servicetype.Type, effectiveFrom time.Time) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Tariff{}).
		Where("zone_id = ? AND service_type = ? AND effective_from = ? AND active = ?", zoneID, serviceType, effectiveFrom, true).
		Count(&count).Error
	return count > 0, err
}

func (r *repo) ListActiveFor(ctx context.Context, db *gorm.DB, zoneID snowflake.ID, serviceType servicetype.Type) ([]domain.Tariff, error) {
	var tariffs []domain.Tariff
	err := db.WithContext(ctx).
		Where("zone_id = ? AND service_type = ? AND active = ?", zoneID, serviceType, true).
		Order("effective_from DESC, id DESC").
		Find(&tariffs).Error
	return tariffs, err
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Tariff, error) {
	stmt := db.WithContext(ctx).Model(&domain.Tariff{})
	if filter.ZoneID != nil {
		stmt = stmt.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.ServiceType != "" {
		stmt = stmt.Where("service_type = ?", filter.ServiceType)
	}
	if filter.ActiveOnly {
		stmt = stmt.Where("active = ?", true)
	}
	var tariffs []domain.Tariff
	err := stmt.Order("zone_id ASC, service_type ASC, effective_from DESC, id DESC").Find(&tariffs).Error
	return tariffs, err
}

func (r *repo) Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(`UPDATE tariffs SET active = ?, active_from = NULL WHERE id = ?`, false, id).Error
}

func activeFrom(tariff *domain.Tariff) *time.Time {
	if !tariff.Active {
		return nil
	}
	from := tariff.EffectiveFrom
	return &from
}
