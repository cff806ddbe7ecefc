package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/servicetype"
)

type Client struct {
	ID                  snowflake.ID  `json:"id" gorm:"primaryKey"`
	Code                string        `json:"code" gorm:"type:varchar(40);not null;uniqueIndex:ux_clients_code"`
	Name                string        `json:"name" gorm:"type:varchar(200);not null"`
	DNI                 string        `json:"dni" gorm:"column:dni;type:varchar(8);not null;uniqueIndex:ux_clients_dni"`
	Phone               string        `json:"phone" gorm:"type:varchar(20)"`
	Address             string        `json:"address" gorm:"type:text"`
	ZoneID              *snowflake.ID `json:"zone_id,omitempty" gorm:"index"`
	SedeID              *snowflake.ID `json:"sede_id,omitempty" gorm:"index"`
	AssignedCollectorID *snowflake.ID `json:"assigned_collector_id,omitempty" gorm:"index"`
	Active              bool          `json:"active" gorm:"not null;default:true"`
	CreatedAt           time.Time     `json:"created_at" gorm:"not null"`
	UpdatedAt           time.Time     `json:"updated_at" gorm:"not null"`
}

func (Client) TableName() string { return "clients" }

type ServiceStatus string

const (
	ServiceActive    ServiceStatus = "active"
	ServiceSuspended ServiceStatus = "suspended"
	ServiceCancelled ServiceStatus = "cancelled"
)

func (s ServiceStatus) Valid() bool {
	switch s {
	case ServiceActive, ServiceSuspended, ServiceCancelled:
		return true
	default:
		return false
	}
}

// CanTransition reports whether from -> to is allowed. Cancelled is terminal.
func CanTransition(from, to ServiceStatus) bool {
	if !to.Valid() || from == to || from == ServiceCancelled {
		return false
	}
	return true
}

// ClientService is a subscription of a client to one product.
type ClientService struct {
	ID           snowflake.ID     `json:"id" gorm:"primaryKey"`
	ClientID     snowflake.ID     `json:"client_id" gorm:"not null;index;uniqueIndex:ux_services_active_type,priority:1"`
	ServiceType  servicetype.Type `json:"service_type" gorm:"type:varchar(16);not null"`
	MonthlyPrice decimal.Decimal  `json:"monthly_price" gorm:"type:numeric(12,2);not null"`
	Status       ServiceStatus    `json:"status" gorm:"type:varchar(16);not null;index"`
	// ActiveType is ServiceType while the service is active and NULL otherwise;
	// ux_services_active_type allows one active service per type.
	ActiveType *servicetype.Type `json:"-" gorm:"type:varchar(16);uniqueIndex:ux_services_active_type,priority:2"`
	StartedAt  time.Time         `json:"started_at" gorm:"type:date;not null"`
	CreatedAt  time.Time         `json:"created_at" gorm:"not null"`
	UpdatedAt  time.Time         `json:"updated_at" gorm:"not null"`
}

func (ClientService) TableName() string { return "services" }

// ActiveService is an active subscription joined with its client's zone.
type ActiveService struct {
	ServiceID    snowflake.ID     `json:"service_id"`
	ClientID     snowflake.ID     `json:"client_id"`
	ZoneID       *snowflake.ID    `json:"zone_id,omitempty"`
	ServiceType  servicetype.Type `json:"service_type"`
	MonthlyPrice decimal.Decimal  `json:"monthly_price"`
}
