package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Method string

const (
	MethodCash     Method = "cash"
	MethodYape     Method = "yape"
	MethodPlin     Method = "plin"
	MethodTransfer Method = "transfer"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodYape, MethodPlin, MethodTransfer:
		return true
	default:
		return false
	}
}

// RequiresReference is true for every method that leaves a bank or wallet trace.
func (m Method) RequiresReference() bool {
	return m.Valid() && m != MethodCash
}

type ValidationStatus string

const (
	StatusPending   ValidationStatus = "pending"
	StatusValidated ValidationStatus = "validated"
	StatusRejected  ValidationStatus = "rejected"
)

func (s ValidationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusValidated, StatusRejected:
		return true
	default:
		return false
	}
}

type Payment struct {
	ID               snowflake.ID     `json:"id" gorm:"primaryKey"`
	ClientID         snowflake.ID     `json:"client_id" gorm:"not null;index"`
	Amount           decimal.Decimal  `json:"amount" gorm:"type:numeric(12,2);not null"`
	Method           Method           `json:"method" gorm:"type:varchar(16);not null"`
	ReferenceNumber  string           `json:"reference_number,omitempty" gorm:"type:varchar(64)"`
	ProofReference   string           `json:"proof_reference,omitempty" gorm:"type:varchar(255)"`
	ValidationStatus ValidationStatus `json:"validation_status" gorm:"type:varchar(16);not null;index"`
	SubmittedBy      string           `json:"submitted_by" gorm:"type:varchar(64);not null"`
	ValidatedBy      string           `json:"validated_by,omitempty" gorm:"type:varchar(64)"`
	ValidatedAt      *time.Time       `json:"validated_at,omitempty"`
	Cancelled        bool             `json:"cancelled" gorm:"not null;default:false"`
	CancelledBy      string           `json:"cancelled_by,omitempty" gorm:"type:varchar(64)"`
	CancelledAt      *time.Time       `json:"cancelled_at,omitempty"`
	CancelReason     string           `json:"cancel_reason,omitempty" gorm:"type:text"`
	CreatedAt        time.Time        `json:"created_at" gorm:"not null;index"`
}

func (Payment) TableName() string { return "payments" }

// PaymentAllocation is the share of a payment applied to one debt. Reversed
// rows stay for history once the payment is cancelled.
type PaymentAllocation struct {
	ID        snowflake.ID    `json:"id" gorm:"primaryKey"`
	PaymentID snowflake.ID    `json:"payment_id" gorm:"not null;uniqueIndex:ux_payment_allocations,priority:1"`
	DebtID    snowflake.ID    `json:"debt_id" gorm:"not null;uniqueIndex:ux_payment_allocations,priority:2;index"`
	Amount    decimal.Decimal `json:"amount" gorm:"type:numeric(12,2);not null"`
	Reversed  bool            `json:"reversed" gorm:"not null;default:false"`
	CreatedAt time.Time       `json:"created_at" gorm:"not null"`
}

func (PaymentAllocation) TableName() string { return "payment_allocations" }
