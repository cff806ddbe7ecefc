package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/recaudo/pkg/db/pagination"
	"gorm.io/gorm"
)

type SubmitRequest struct {
	ClientID        string          `json:"client_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber string          `json:"reference_number"`
	ProofReference  string          `json:"proof_reference"`
}

type Decision string

const (
	DecisionValidate Decision = "validate"
	DecisionReject   Decision = "reject"
)

// ParseDecision accepts the verb or the resulting status.
func ParseDecision(value string) (Decision, error) {
	switch Decision(value) {
	case DecisionValidate, Decision(StatusValidated):
		return DecisionValidate, nil
	case DecisionReject, Decision(StatusRejected):
		return DecisionReject, nil
	default:
		return "", ErrInvalidDecision
	}
}

type ListRequest struct {
	pagination.Pagination
	ClientID string
	Status   string
	Method   string
}

type ListFilter struct {
	ClientID    *snowflake.ID
	CollectorID *snowflake.ID
	Status      ValidationStatus
	Method      Method
	AfterID     *snowflake.ID
	Limit       int
}

type ListResponse struct {
	pagination.PageInfo
	Payments []Payment `json:"payments"`
}

// Detail is a payment with the allocations it produced.
type Detail struct {
	Payment
	Allocations []PaymentAllocation `json:"allocations"`
}

type Service interface {
	Submit(ctx context.Context, req SubmitRequest) (Payment, error)
	// Validate applies a staff decision to a pending payment. Validation
	// reconciles the payment against the client's debts oldest first.
	Validate(ctx context.Context, id string, decision string) (Payment, error)
	Cancel(ctx context.Context, id string, reason string) (Payment, error)
	CreditBalance(ctx context.Context, clientID string) (decimal.Decimal, error)
	Get(ctx context.Context, id string) (Detail, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payment *Payment) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID, lock bool) (*Payment, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Payment, error)
	UpdateDecision(ctx context.Context, db *gorm.DB, payment *Payment) error
	UpdateCancel(ctx context.Context, db *gorm.DB, payment *Payment) error
	InsertAllocations(ctx context.Context, db *gorm.DB, allocations []PaymentAllocation) error
	ListAllocations(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) ([]PaymentAllocation, error)
	MarkAllocationsReversed(ctx context.Context, db *gorm.DB, paymentID snowflake.ID) error
}

var (
	ErrInvalidID        = errors.New("invalid_id")
	ErrInvalidClient    = errors.New("invalid_client_id")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidMethod    = errors.New("invalid_method")
	ErrMissingReference = errors.New("missing_reference_number")
	ErrMissingProof     = errors.New("missing_proof_reference")
	ErrInvalidDecision  = errors.New("invalid_decision")
	ErrInvalidStatus    = errors.New("invalid_status")
	ErrMissingReason    = errors.New("missing_cancel_reason")
	ErrInvalidPageToken = errors.New("invalid_page_token")
	ErrClientNotFound   = errors.New("client_not_found")
	ErrNotFound         = errors.New("payment_not_found")
	ErrNotPending       = errors.New("payment_not_pending")
	ErrAlreadyCancelled = errors.New("payment_already_cancelled")
	ErrCashNotCancelled = errors.New("cash_payment_not_cancellable")
	ErrRejectedCancel   = errors.New("rejected_payment_not_cancellable")
)
