package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/internal/servicetype"
)

// Tariff is the base monthly price of a service type in a zone from EffectiveFrom on.
type Tariff struct {
	ID            snowflake.ID     `json:"id" gorm:"primaryKey"`
	ZoneID        snowflake.ID     `json:"zone_id" gorm:"not null;index:ix_tariffs_lookup,priority:1;uniqueIndex:ux_tariffs_active,priority:1"`
	ServiceType   servicetype.Type `json:"service_type" gorm:"type:varchar(16);not null;index:ix_tariffs_lookup,priority:2;uniqueIndex:ux_tariffs_active,priority:2"`
	BasePrice     decimal.Decimal  `json:"base_price" gorm:"type:numeric(12,2);not null"`
	EffectiveFrom time.Time        `json:"effective_from" gorm:"type:date;not null"`
	Active        bool             `json:"active" gorm:"not null;default:true"`
	// ActiveFrom equals EffectiveFrom while the tariff is active and is NULL
	// afterwards, so ux_tariffs_active only binds active rows.
	ActiveFrom *time.Time `json:"-" gorm:"type:date;uniqueIndex:ux_tariffs_active,priority:3"`
	CreatedAt  time.Time  `json:"created_at" gorm:"not null"`
}

func (Tariff) TableName() string { return "tariffs" }

// Resolution is the price a service pays for a given date.
type Resolution struct {
	TariffID snowflake.ID    `json:"tariff_id"`
	Price    decimal.Decimal `json:"price"`
}

// SelectEffective picks, among active tariffs already in force on asOf, the one
// with the latest EffectiveFrom. Ties go to the highest id.
func SelectEffective(tariffs []Tariff, asOf time.Time) (Tariff, bool) {
	var (
		best  Tariff
		found bool
	)
	for _, t := range tariffs {
		if !t.Active || t.EffectiveFrom.After(asOf) {
			continue
		}
		if !found ||
			t.EffectiveFrom.After(best.EffectiveFrom) ||
			(t.EffectiveFrom.Equal(best.EffectiveFrom) && t.ID > best.ID) {
			best = t
			found = true
		}
	}
	return best, found
}
