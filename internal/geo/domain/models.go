package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Level string

const (
	LevelDepartment Level = "department"
	LevelProvince   Level = "province"
	LevelDistrict   Level = "district"
	LevelZone       Level = "zone"
)

// Depth is 0 for departments and 3 for zones; -1 for unknown levels.
func (l Level) Depth() int {
	switch l {
	case LevelDepartment:
		return 0
	case LevelProvince:
		return 1
	case LevelDistrict:
		return 2
	case LevelZone:
		return 3
	default:
		return -1
	}
}

const MaxZoneCodeLength = 10

type GeoNode struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	Level     Level         `json:"level" gorm:"type:varchar(16);not null;index"`
	Name      string        `json:"name" gorm:"type:varchar(128);not null"`
	Code      *string       `json:"code,omitempty" gorm:"type:varchar(10);uniqueIndex:ux_geo_nodes_code"`
	ParentID  *snowflake.ID `json:"parent_id,omitempty" gorm:"index"`
	CreatedAt time.Time     `json:"created_at" gorm:"not null"`
}

func (GeoNode) TableName() string { return "geo_nodes" }
