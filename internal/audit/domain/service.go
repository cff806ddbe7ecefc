package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/recaudo/pkg/db/pagination"
	"gorm.io/gorm"
)

// Event describes one state change to be appended to the trail.
type Event struct {
	EntityName string
	EntityID   string
	Action     Action
	Detail     map[string]any
}

// Recorder appends audit entries using the caller's transaction handle.
type Recorder interface {
	Record(ctx context.Context, db *gorm.DB, event Event)
}

type ListRequest struct {
	pagination.Pagination
	EntityName string
	EntityID   string
	Action     string
	ActorID    string
}

type ListResponse struct {
	pagination.PageInfo
	Entries []AuditEntry `json:"entries"`
}

type Service interface {
	Recorder
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *AuditEntry) error
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*AuditEntry, error)
}

var (
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrInvalidAction    = errors.New("invalid_action")
)
