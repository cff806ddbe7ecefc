package domain

import (
	"context"
	"errors"
	"time"
)

type Result struct {
	RunID        string            `json:"run_id,omitempty"`
	BillingMonth string            `json:"billing_month"`
	CreatedCount int               `json:"created_count"`
	SkippedCount int               `json:"skipped_count"`
	Errors       []GenerationError `json:"errors"`
}

type Service interface {
	// Generate creates the month's debt for every active service. month is
	// YYYY-MM. Failures of single services are reported in Result.Errors.
	Generate(ctx context.Context, month string, trigger Trigger) (Result, error)
	GenerateMonth(ctx context.Context, billingMonth time.Time, trigger Trigger) (Result, error)
	ListRuns(ctx context.Context, limit int) ([]BillingRun, error)
}

var (
	ErrInvalidBillingMonth = errors.New("invalid_billing_month")
	ErrInvalidTrigger      = errors.New("invalid_trigger")
)
