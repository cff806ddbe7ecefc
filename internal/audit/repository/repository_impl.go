package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/recaudo/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.AuditEntry) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO audit_entries (
			id, occurred_at, actor_id, entity_name, entity_id, action, detail
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Timestamp,
		entry.ActorID,
		entry.EntityName,
		entry.EntityID,
		entry.Action,
		entry.Detail,
	).Error
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]*domain.AuditEntry, error) {
	var entries []*domain.AuditEntry
	stmt := db.WithContext(ctx).Model(&domain.AuditEntry{})

	if name := strings.TrimSpace(filter.EntityName); name != "" {
		stmt = stmt.Where("entity_name = ?", name)
	}
	if id := strings.TrimSpace(filter.EntityID); id != "" {
		stmt = stmt.Where("entity_id = ?", id)
	}
	if filter.Action != "" {
		stmt = stmt.Where("action = ?", filter.Action)
	}
	if actor := strings.TrimSpace(filter.ActorID); actor != "" {
		stmt = stmt.Where("actor_id = ?", actor)
	}
	if filter.Cursor != nil {
		stmt = stmt.Where("(occurred_at < ?) OR (occurred_at = ? AND id < ?)",
			filter.Cursor.Timestamp,
			filter.Cursor.Timestamp,
			filter.Cursor.ID,
		)
	}

	stmt = stmt.Order("occurred_at desc, id desc")
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit + 1)
	}

	if err := stmt.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
