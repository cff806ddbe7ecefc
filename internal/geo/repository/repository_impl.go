package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/geo/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, node *domain.GeoNode) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO geo_nodes (id, level, name, code, parent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		node.ID,
		node.Level,
		node.Name,
		node.Code,
		node.ParentID,
		node.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.GeoNode, error) {
	var node domain.GeoNode
	err := db.WithContext(ctx).Where("id = ?", id).First(&node).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &node, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, level domain.Level, parentID *snowflake.ID) ([]domain.GeoNode, error) {
	var nodes []domain.GeoNode
	stmt := db.WithContext(ctx).Model(&domain.GeoNode{})
	if level != "" {
		stmt = stmt.Where("level = ?", level)
	}
	if parentID != nil {
		stmt = stmt.Where("parent_id = ?", *parentID)
	}
	if err := stmt.Order("name ASC, id ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *repo) ListAll(ctx context.Context, db *gorm.DB) ([]domain.GeoNode, error) {
	var nodes []domain.GeoNode
	if err := db.WithContext(ctx).Order("id ASC").Find(&nodes).Error; err != nil {
		return nil, err
	}
	return nodes, nil
}

func (r *repo) CountClientsInZones(ctx context.Context, db *gorm.DB, zoneIDs []snowflake.ID) (int64, error) {
	if len(zoneIDs) == 0 {
		return 0, nil
	}
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM clients WHERE zone_id IN ?`,
		zoneIDs,
	).Scan(&count).Error
	return count, err
}

func (r *repo) DeleteTariffsForZones(ctx context.Context, db *gorm.DB, zoneIDs []snowflake.ID) error {
	if len(zoneIDs) == 0 {
		return nil
	}
	return db.WithContext(ctx).Exec(`DELETE FROM tariffs WHERE zone_id IN ?`, zoneIDs).Error
}

func (r *repo) DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).Exec(`DELETE FROM geo_nodes WHERE id IN ?`, ids)
	return result.RowsAffected, result.Error
}
