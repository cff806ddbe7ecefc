package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Trigger names who started a generation run.
type Trigger string

const (
	TriggerManual    Trigger = "manual"
	TriggerScheduler Trigger = "scheduler"
)

func (t Trigger) Valid() bool {
	return t == TriggerManual || t == TriggerScheduler
}

// GenerationError describes one service that could not be billed.
type GenerationError struct {
	ServiceID string `json:"service_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// BillingRun records the outcome of one generation over a month.
type BillingRun struct {
	ID           snowflake.ID                         `json:"id" gorm:"primaryKey"`
	BillingMonth time.Time                            `json:"billing_month" gorm:"type:date;not null;index"`
	Trigger      Trigger                              `json:"trigger" gorm:"type:varchar(16);not null"`
	CreatedCount int                                  `json:"created_count" gorm:"not null"`
	SkippedCount int                                  `json:"skipped_count" gorm:"not null"`
	ErrorCount   int                                  `json:"error_count" gorm:"not null"`
	Errors       datatypes.JSONSlice[GenerationError] `json:"errors"`
	StartedAt    time.Time                            `json:"started_at" gorm:"not null"`
	FinishedAt   time.Time                            `json:"finished_at" gorm:"not null"`
}

func (BillingRun) TableName() string { return "billing_runs" }
