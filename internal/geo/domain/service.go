package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type CreateRequest struct {
	Level    string
	Name     string
	Code     string
	ParentID string
}

type ListRequest struct {
	Level    string
	ParentID string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (GeoNode, error)
	Get(ctx context.Context, id string) (GeoNode, error)
	List(ctx context.Context, req ListRequest) ([]GeoNode, error)
	Ancestors(ctx context.Context, id string) ([]GeoNode, error)
	Descendants(ctx context.Context, id string) ([]GeoNode, error)
	// Delete removes the node and its subtree. It refuses while any client
	// is assigned to a zone in the subtree, and then deletes nothing.
	Delete(ctx context.Context, id string) error
	// ZoneExists reports whether id names a node of level zone.
	ZoneExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, node *GeoNode) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*GeoNode, error)
	List(ctx context.Context, db *gorm.DB, level Level, parentID *snowflake.ID) ([]GeoNode, error)
	ListAll(ctx context.Context, db *gorm.DB) ([]GeoNode, error)
	CountClientsInZones(ctx context.Context, db *gorm.DB, zoneIDs []snowflake.ID) (int64, error)
	DeleteTariffsForZones(ctx context.Context, db *gorm.DB, zoneIDs []snowflake.ID) error
	DeleteByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) (int64, error)
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidLevel  = errors.New("invalid_level")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidParent = errors.New("invalid_parent")
	ErrNotFound      = errors.New("geo_node_not_found")
	ErrCodeTaken     = errors.New("zone_code_taken")
	ErrHasDependents = errors.New("geo_node_has_dependents")
)
