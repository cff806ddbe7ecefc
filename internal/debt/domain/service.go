package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ListRequest struct {
	ClientID     string
	Status       string
	BillingMonth string
}

type ListFilter struct {
	ClientID     *snowflake.ID
	CollectorID  *snowflake.ID
	BillingMonth *time.Time
}

type Service interface {
	List(ctx context.Context, req ListRequest) ([]Debt, error)
	Get(ctx context.Context, id string) (Debt, error)
	// Sweep marks pending debts due strictly before asOf as expired.
	Sweep(ctx context.Context, asOf time.Time) (int64, error)
	// Today is the current calendar date in the billing timezone.
	Today() time.Time

	// Insert commits one debt on its own. ErrDuplicate reports an existing
	// debt for the same service and month.
	Insert(ctx context.Context, debt *Debt) error
	Exists(ctx context.Context, serviceID snowflake.ID, billingMonth time.Time) (bool, error)
	// OutstandingTx returns the client's debts with a remaining balance, oldest
	// first, locked for update where the dialect supports it.
	OutstandingTx(ctx context.Context, tx *gorm.DB, clientID snowflake.ID) ([]Debt, error)
	FindTx(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) ([]Debt, error)
	// SetPaidTx stores paid and the status derived from it on asOf.
	SetPaidTx(ctx context.Context, tx *gorm.DB, debt Debt, paid decimal.Decimal, asOf time.Time) (Debt, error)
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, debt *Debt) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Debt, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID, lock bool) ([]Debt, error)
	Exists(ctx context.Context, db *gorm.DB, serviceID snowflake.ID, billingMonth time.Time) (bool, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Debt, error)
	ListOutstanding(ctx context.Context, db *gorm.DB, clientID snowflake.ID, lock bool) ([]Debt, error)
	UpdatePaid(ctx context.Context, db *gorm.DB, id snowflake.ID, paid decimal.Decimal, status Status, updatedAt time.Time) error
	ExpirePending(ctx context.Context, db *gorm.DB, asOf time.Time, updatedAt time.Time) (int64, error)
	CollectorOwnsClient(ctx context.Context, db *gorm.DB, collectorID, clientID snowflake.ID) (bool, error)
}

var (
	ErrInvalidID           = errors.New("invalid_id")
	ErrInvalidClient       = errors.New("invalid_client_id")
	ErrInvalidStatus       = errors.New("invalid_status")
	ErrInvalidBillingMonth = errors.New("invalid_billing_month")
	ErrInvalidPaidAmount   = errors.New("invalid_paid_amount")
	ErrNotFound            = errors.New("debt_not_found")
	ErrDuplicate           = errors.New("debt_already_exists")
)
