package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/pkg/db/pagination"
	"gorm.io/gorm"
)

type CreateClientRequest struct {
	Name        string `json:"name"`
	DNI         string `json:"dni"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	ZoneID      string `json:"zone_id"`
	SedeID      string `json:"sede_id"`
	CollectorID string `json:"assigned_collector_id"`
}

// UpdateClientRequest changes only the non-nil fields. An empty string clears
// ZoneID or CollectorID.
type UpdateClientRequest struct {
	ZoneID      *string `json:"zone_id"`
	CollectorID *string `json:"assigned_collector_id"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	Active      *bool   `json:"active"`
}

type ListClientsRequest struct {
	pagination.Pagination
	SedeID      string
	CollectorID string
	ZoneID      string
}

type ListClientsFilter struct {
	SedeID      *snowflake.ID
	CollectorID *snowflake.ID
	ZoneID      *snowflake.ID
	AfterID     *snowflake.ID
	Limit       int
}

type ListClientsResponse struct {
	pagination.PageInfo
	Clients []Client `json:"clients"`
}

type AddServiceRequest struct {
	ServiceType  string          `json:"service_type"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	StartedAt    string          `json:"started_at"`
}

type Service interface {
	CreateClient(ctx context.Context, req CreateClientRequest) (Client, error)
	GetClient(ctx context.Context, id string) (Client, error)
	ListClients(ctx context.Context, req ListClientsRequest) (ListClientsResponse, error)
	UpdateClient(ctx context.Context, id string, req UpdateClientRequest) (Client, error)
	AddService(ctx context.Context, clientID string, req AddServiceRequest) (ClientService, error)
	ChangeServiceStatus(ctx context.Context, serviceID string, status string) (ClientService, error)
	ListServices(ctx context.Context, clientID string) ([]ClientService, error)
	ListActiveServices(ctx context.Context) ([]ActiveService, error)
	// Lookup reads a client through db without actor scoping; nil when absent.
	Lookup(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
}

// ZoneLookup answers whether an id names an existing zone.
type ZoneLookup interface {
	ZoneExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
}

type Repository interface {
	InsertClient(ctx context.Context, db *gorm.DB, client *Client) error
	FindClient(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Client, error)
	DNIExists(ctx context.Context, db *gorm.DB, dni string) (bool, error)
	SedeExists(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	ListClients(ctx context.Context, db *gorm.DB, filter ListClientsFilter) ([]*Client, error)
	UpdateClient(ctx context.Context, db *gorm.DB, id snowflake.ID, fields map[string]any) error

	InsertService(ctx context.Context, db *gorm.DB, service *ClientService) error
	FindService(ctx context.Context, db *gorm.DB, id snowflake.ID) (*ClientService, error)
	CountActiveServices(ctx context.Context, db *gorm.DB, clientID snowflake.ID, serviceType string, excludeID snowflake.ID) (int64, error)
	UpdateServiceStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status ServiceStatus, fields map[string]any) error
	ListServices(ctx context.Context, db *gorm.DB, clientID snowflake.ID) ([]ClientService, error)
	ListActiveServices(ctx context.Context, db *gorm.DB) ([]ActiveService, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidName         = errors.New("invalid_name")
	ErrInvalidDNI          = errors.New("invalid_dni")
	ErrInvalidZone         = errors.New("invalid_zone")
	ErrInvalidSede         = errors.New("invalid_sede")
	ErrInvalidCollector    = errors.New("invalid_collector")
	ErrInvalidMonthlyPrice = errors.New("invalid_monthly_price")
	ErrInvalidStartedAt    = errors.New("invalid_started_at")
	ErrInvalidStatus       = errors.New("invalid_service_status")
	ErrInvalidPageToken    = errors.New("invalid_page_token")
	ErrDNITaken            = errors.New("dni_already_registered")
	ErrNotFound            = errors.New("client_not_found")
	ErrServiceNotFound     = errors.New("service_not_found")
	ErrDuplicateActive     = errors.New("active_service_exists")
	ErrInvalidTransition   = errors.New("invalid_service_transition")
	ErrClientInactive      = errors.New("client_inactive")
)
