package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Outcome is what the collector found at the client's address.
type Outcome string

const (
	OutcomePaid     Outcome = "paid"
	OutcomeNotHome  Outcome = "not_home"
	OutcomeMoved    Outcome = "moved"
	OutcomeNoAnswer Outcome = "no_answer"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomePaid, OutcomeNotHome, OutcomeMoved, OutcomeNoAnswer:
		return true
	default:
		return false
	}
}

type Visit struct {
	ID          snowflake.ID  `json:"id" gorm:"primaryKey"`
	ClientID    snowflake.ID  `json:"client_id" gorm:"not null;index"`
	CollectorID snowflake.ID  `json:"collector_id" gorm:"not null;index"`
	Outcome     Outcome       `json:"outcome" gorm:"type:varchar(16);not null"`
	Notes       string        `json:"notes" gorm:"type:text"`
	PaymentID   *snowflake.ID `json:"payment_id,omitempty"`
	VisitedAt   time.Time     `json:"visited_at" gorm:"not null;index"`
}

func (Visit) TableName() string { return "visits" }
