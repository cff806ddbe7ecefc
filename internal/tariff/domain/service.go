package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	"gorm.io/gorm"
)

// CacheMode selects how Resolve caches prices inside one process. Processes
// that never write tariffs cannot see another process purge its cache, so
// they run with CacheOff.
type CacheMode string

const (
	CacheDefault CacheMode = ""
	CacheOff     CacheMode = "off"
)

type CreateRequest struct {
	ZoneID        string          `json:"zone_id"`
	ServiceType   string          `json:"service_type"`
	BasePrice     decimal.Decimal `json:"base_price"`
	EffectiveFrom string          `json:"effective_from"`
}

type ListRequest struct {
	ZoneID      string
	ServiceType string
	ActiveOnly  bool
}

type ListFilter struct {
	ZoneID      *snowflake.ID
	ServiceType servicetype.Type
	ActiveOnly  bool
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (Tariff, error)
	Deactivate(ctx context.Context, id string) (Tariff, error)
	List(ctx context.Context, req ListRequest) ([]Tariff, error)
	// Resolve returns the tariff in force for the zone and type on asOf, or
	// ErrNoTariffFound.
	Resolve(ctx context.Context, zoneID snowflake.ID, serviceType servicetype.Type, asOf time.Time) (Resolution, error)
}

// ZoneLookup answers whether an id names an existing zone.
type ZoneLookup interface {
	ZoneExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, tariff *Tariff) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Tariff, error)
	ExistsActive(ctx context.Context, db *gorm.DB, zoneID snowflake.ID, serviceType servicetype.Type, effectiveFrom time.Time) (bool, error)
	ListActiveFor(ctx context.Context, db *gorm.DB, zoneID snowflake.ID, serviceType servicetype.Type) ([]Tariff, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Tariff, error)
	Deactivate(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}

var (
	ErrInvalidID            = errors.New("invalid_id")
	ErrInvalidZone          = errors.New("invalid_zone")
	ErrInvalidPrice         = errors.New("invalid_base_price")
	ErrInvalidEffectiveFrom = errors.New("invalid_effective_from")
	ErrNotFound             = errors.New("tariff_not_found")
	ErrConflict             = errors.New("tariff_already_exists")
	ErrAlreadyInactive      = errors.New("tariff_already_inactive")
	ErrNoTariffFound        = errors.New("no_tariff_found")
)
