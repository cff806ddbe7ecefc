package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Sede is a branch office. Clients and staff belong to one.
type Sede struct {
	ID        snowflake.ID `json:"id" gorm:"primaryKey"`
	Code      string       `json:"code" gorm:"type:varchar(64);not null;uniqueIndex:ux_sedes_code"`
	Name      string       `json:"name" gorm:"type:varchar(128);not null"`
	Address   string       `json:"address" gorm:"type:varchar(255)"`
	Phone     string       `json:"phone" gorm:"type:varchar(32)"`
	Active    bool         `json:"active" gorm:"not null;default:true"`
	CreatedAt time.Time    `json:"created_at" gorm:"not null"`
}

func (Sede) TableName() string { return "sedes" }
