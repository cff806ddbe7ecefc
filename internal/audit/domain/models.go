package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Action string

const (
	ActionCreate   Action = "CREATE"
	ActionUpdate   Action = "UPDATE"
	ActionDelete   Action = "DELETE"
	ActionValidate Action = "VALIDATE"
	ActionReject   Action = "REJECT"
	ActionCancel   Action = "CANCEL"
)

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete, ActionValidate, ActionReject, ActionCancel:
		return true
	default:
		return false
	}
}

// AuditEntry is append-only. Nothing updates or deletes rows of this table.
type AuditEntry struct {
	ID         snowflake.ID      `json:"id" gorm:"primaryKey"`
	Timestamp  time.Time         `json:"timestamp" gorm:"column:occurred_at;not null;index:idx_audit_entries_ts"`
	ActorID    string            `json:"actor_id" gorm:"type:varchar(64);not null;index"`
	EntityName string            `json:"entity_name" gorm:"type:varchar(64);not null;index:idx_audit_entries_entity"`
	EntityID   string            `json:"entity_id" gorm:"type:varchar(64);not null;index:idx_audit_entries_entity"`
	Action     Action            `json:"action" gorm:"type:varchar(16);not null"`
	Detail     datatypes.JSONMap `json:"detail" gorm:"type:json"`
}

func (AuditEntry) TableName() string { return "audit_entries" }

type AuditCursor struct {
	ID        snowflake.ID
	Timestamp time.Time
}

type ListFilter struct {
	EntityName string
	EntityID   string
	Action     Action
	ActorID    string
	Cursor     *AuditCursor
	Limit      int
}
