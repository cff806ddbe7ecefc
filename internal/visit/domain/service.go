package domain

import (
	"context"
	"errors"
)

type RecordRequest struct {
	ClientID    string `json:"client_id"`
	CollectorID string `json:"collector_id"`
	Outcome     string `json:"outcome"`
	Notes       string `json:"notes"`
	PaymentID   string `json:"payment_id"`
}

type ListRequest struct {
	ClientID    string `form:"client_id"`
	CollectorID string `form:"collector_id"`
	Limit       int    `form:"limit"`
}

type Service interface {
	// Record stores a visit. A collector always records under its own id.
	Record(ctx context.Context, req RecordRequest) (Visit, error)
	List(ctx context.Context, req ListRequest) ([]Visit, error)
}

var (
	ErrInvalidClient    = errors.New("invalid_client_id")
	ErrInvalidCollector = errors.New("invalid_collector_id")
	ErrInvalidOutcome   = errors.New("invalid_outcome")
	ErrInvalidPayment   = errors.New("invalid_payment_id")
	ErrMissingPayment   = errors.New("missing_payment_id")
	ErrClientNotFound   = errors.New("client_not_found")
	ErrPaymentNotFound  = errors.New("payment_not_found")
)
