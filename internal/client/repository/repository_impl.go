package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/recaudo/internal/client/domain"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertClient(ctx context.Context, db *gorm.DB, client *domain.Client) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO clients (id, code, name, dni, phone, address, zone_id, sede_id, assigned_collector_id, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		client.ID,
		client.Code,
		client.Name,
		client.DNI,
		client.Phone,
		client.Address,
		client.ZoneID,
		client.SedeID,
		client.AssignedCollectorID,
		client.Active,
		client.CreatedAt,
		client.UpdatedAt,
	).Error
}

func (r *repo) FindClient(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Client, error) {
	var client domain.Client
	err := db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

func (r *repo) DNIExists(ctx context.Context, db *gorm.DB, dni string) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.Client{}).Where("dni = ?", dni).Count(&count).Error
	return count > 0, err
}

func (r *repo) SedeExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM sedes WHERE id = ?`, id).Scan(&count).Error
	return count > 0, err
}

func (r *repo) ListClients(ctx context.Context, db *gorm.DB, filter domain.ListClientsFilter) ([]*domain.Client, error) {
	var clients []*domain.Client
	stmt := db.WithContext(ctx).Model(&domain.Client{})
	if filter.SedeID != nil {
		stmt = stmt.Where("sede_id = ?", *filter.SedeID)
	}
	if filter.CollectorID != nil {
		stmt = stmt.Where("assigned_collector_id = ?", *filter.CollectorID)
	}
	if filter.ZoneID != nil {
		stmt = stmt.Where("zone_id = ?", *filter.ZoneID)
	}
	if filter.AfterID != nil {
		stmt = stmt.Where("id < ?", *filter.AfterID)
	}
	stmt = stmt.Order("id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}
	if err := stmt.Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *repo) UpdateClient(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	return db.WithContext(ctx).Model(&domain.Client{}).Where("id = ?", id).Updates(fields).Error
}

func (r *repo) InsertService(ctx context.Context, db *gorm.DB, service *domain.ClientService) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO services (id, client_id, service_type, monthly_price, status, active_type, started_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		service.ID,
		service.ClientID,
		service.ServiceType,
		service.MonthlyPrice,
		service.Status,
		activeType(service.Status, service.ServiceType),
		service.StartedAt,
		service.CreatedAt,
		service.UpdatedAt,
	).Error
}

func (r *repo) FindService(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.ClientService, error) {
	var service domain.ClientService
	err := db.WithContext(ctx).Where("id = ?", id).First(&service).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &service, nil
}

func (r *repo) CountActiveServices(ctx context.Context, db *gorm.DB, clientID snowflake.ID, serviceType string, excludeID snowflake.ID) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Model(&domain.ClientService{}).
		Where("client_id = ? AND service_type = ? AND status = ? AND id <> ?",
			clientID, serviceType, domain.ServiceActive, excludeID).
		Count(&count).Error
	return count, err
}

func (r *repo) UpdateServiceStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status domain.ServiceStatus, fields map[string]any) error {
	updates := map[string]any{"status": status, "active_type": nil}
	if status == domain.ServiceActive {
		updates["active_type"] = gorm.Expr("service_type")
	}
	for k, v := range fields {
		updates[k] = v
	}
	return db.WithContext(ctx).Model(&domain.ClientService{}).Where("id = ?", id).Updates(updates).Error
}

func (r *repo) ListServices(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]domain.ClientService, error) {
	var services []domain.ClientService
	err := db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at asc, id asc").
		Find(&services).Error
	return services, err
}

func (r *repo) ListActiveServices(ctx context.Context, db *gorm.DB) ([]domain.ActiveService, error) {
	var services []domain.ActiveService
	err := db.WithContext(ctx).Raw(
		`SELECT s.id AS service_id, s.client_id, c.zone_id, s.service_type, s.monthly_price
		 FROM services s
		 JOIN clients c ON c.id = s.client_id
		 WHERE s.status = ?
		 ORDER BY s.id ASC`,
		domain.ServiceActive,
	).Scan(&services).Error
	return services, err
}

func activeType(status domain.ServiceStatus, serviceType servicetype.Type) *servicetype.Type {
	if status != domain.ServiceActive {
		return nil
	}
	return &serviceType
}
