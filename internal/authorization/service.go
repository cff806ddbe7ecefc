package authorization

import (
	"context"
	"errors"
)

const (
	ObjectGeo          = "geo"
	ObjectSede         = "sede"
	ObjectClient       = "client"
	ObjectTariff       = "tariff"
	ObjectBillingCycle = "billing_cycle"
	ObjectDebt         = "debt"
	ObjectPayment      = "payment"
	ObjectVisit        = "visit"
	ObjectReport       = "report"
	ObjectAuditLog     = "audit_log"
)

const (
	ActionView   = "view"
	ActionManage = "manage"

	ActionBillingCycleGenerate = "billing_cycle.generate"
	ActionDebtSweep            = "debt.sweep"

	ActionPaymentSubmit   = "payment.submit"
	ActionPaymentValidate = "payment.validate"
	ActionPaymentCancel   = "payment.cancel"
	ActionPaymentReceipt  = "payment.receipt"

	ActionVisitRecord = "visit.record"

	ActionReportCollectors = "report.collectors"
)

type Service interface {
	// Authorize checks the actor attached to ctx against object and action.
	Authorize(ctx context.Context, object, action string) error
}

var (
	ErrForbidden     = errors.New("forbidden")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrInvalidObject = errors.New("invalid_object")
	ErrInvalidAction = errors.New("invalid_action")
)
