package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/internal/authorization"
	billingcycledomain "github.com/smallbiznis/recaudo/internal/billingcycle/domain"
	clientdomain "github.com/smallbiznis/recaudo/internal/client/domain"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
	geodomain "github.com/smallbiznis/recaudo/internal/geo/domain"
	paymentdomain "github.com/smallbiznis/recaudo/internal/payment/domain"
	receiptdomain "github.com/smallbiznis/recaudo/internal/receipt/domain"
	reportdomain "github.com/smallbiznis/recaudo/internal/report/domain"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	sededomain "github.com/smallbiznis/recaudo/internal/sede/domain"
	tariffdomain "github.com/smallbiznis/recaudo/internal/tariff/domain"
	visitdomain "github.com/smallbiznis/recaudo/internal/visit/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrConflict       = errors.New("conflict")
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

var validationErrors = []error{
	ErrInvalidRequest,
	servicetype.ErrInvalid,
	geodomain.ErrInvalidID,
	geodomain.ErrInvalidLevel,
	geodomain.ErrInvalidName,
	geodomain.ErrInvalidCode,
	geodomain.ErrInvalidParent,
	sededomain.ErrInvalidID,
	sededomain.ErrInvalidName,
	clientdomain.ErrInvalidID,
	clientdomain.ErrInvalidName,
	clientdomain.ErrInvalidDNI,
	clientdomain.ErrInvalidZone,
	clientdomain.ErrInvalidSede,
	clientdomain.ErrInvalidCollector,
	clientdomain.ErrInvalidMonthlyPrice,
	clientdomain.ErrInvalidStartedAt,
	clientdomain.ErrInvalidStatus,
	clientdomain.ErrInvalidPageToken,
	tariffdomain.ErrInvalidID,
	tariffdomain.ErrInvalidZone,
	tariffdomain.ErrInvalidPrice,
	tariffdomain.ErrInvalidEffectiveFrom,
	billingcycledomain.ErrInvalidBillingMonth,
	billingcycledomain.ErrInvalidTrigger,
	debtdomain.ErrInvalidID,
	debtdomain.ErrInvalidClient,
	debtdomain.ErrInvalidStatus,
	debtdomain.ErrInvalidBillingMonth,
	debtdomain.ErrInvalidPaidAmount,
	paymentdomain.ErrInvalidID,
	paymentdomain.ErrInvalidClient,
	paymentdomain.ErrInvalidAmount,
	paymentdomain.ErrInvalidMethod,
	paymentdomain.ErrMissingReference,
	paymentdomain.ErrMissingProof,
	paymentdomain.ErrInvalidDecision,
	paymentdomain.ErrInvalidStatus,
	paymentdomain.ErrMissingReason,
	paymentdomain.ErrInvalidPageToken,
	visitdomain.ErrInvalidClient,
	visitdomain.ErrInvalidCollector,
	visitdomain.ErrInvalidOutcome,
	visitdomain.ErrInvalidPayment,
	visitdomain.ErrMissingPayment,
	reportdomain.ErrInvalidAsOf,
	reportdomain.ErrInvalidSede,
	reportdomain.ErrInvalidDateRange,
	auditdomain.ErrInvalidPageToken,
	auditdomain.ErrInvalidAction,
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if code, ok := validationErrorCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   validationErrorField(code),
					Code:    code,
					Message: validationErrorMessage(code),
				},
			},
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, authorization.ErrInvalidActor):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, reportdomain.ErrForbidden):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case errors.Is(err, tariffdomain.ErrNoTariffFound):
		return http.StatusNotFound, errorPayload{
			Type:    "no_tariff_found",
			Message: "no tariff applies to the zone and service type on that date",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isInvalidStateError(err):
		return http.StatusConflict, errorPayload{
			Type:    "invalid_state",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger the same type/code the client sees.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		code = "internal_error"
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

// validationErrorCode returns the sentinel code, not the wrapped message.
func validationErrorCode(err error) (string, bool) {
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return target.Error(), true
		}
	}
	return "", false
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, geodomain.ErrNotFound),
		errors.Is(err, sededomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrNotFound),
		errors.Is(err, clientdomain.ErrServiceNotFound),
		errors.Is(err, tariffdomain.ErrNotFound),
		errors.Is(err, debtdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrNotFound),
		errors.Is(err, paymentdomain.ErrClientNotFound),
		errors.Is(err, visitdomain.ErrClientNotFound),
		errors.Is(err, visitdomain.ErrPaymentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isInvalidStateError(err error) bool {
	switch {
	case errors.Is(err, paymentdomain.ErrNotPending),
		errors.Is(err, paymentdomain.ErrAlreadyCancelled),
		errors.Is(err, paymentdomain.ErrCashNotCancelled),
		errors.Is(err, paymentdomain.ErrRejectedCancel),
		errors.Is(err, receiptdomain.ErrNotValidated),
		errors.Is(err, clientdomain.ErrInvalidTransition),
		errors.Is(err, clientdomain.ErrClientInactive),
		errors.Is(err, tariffdomain.ErrAlreadyInactive),
		errors.Is(err, geodomain.ErrHasDependents):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, geodomain.ErrCodeTaken),
		errors.Is(err, sededomain.ErrCodeTaken),
		errors.Is(err, clientdomain.ErrDNITaken),
		errors.Is(err, clientdomain.ErrDuplicateActive),
		errors.Is(err, tariffdomain.ErrConflict),
		errors.Is(err, debtdomain.ErrDuplicate):
		return true
	default:
		return false
	}
}

func validationErrorField(code string) string {
	switch {
	case code == "invalid_request":
		return "request"
	case strings.HasPrefix(code, "invalid_"):
		return strings.TrimPrefix(code, "invalid_")
	case strings.HasPrefix(code, "missing_"):
		return strings.TrimPrefix(code, "missing_")
	default:
		return ""
	}
}

func validationErrorMessage(code string) string {
	switch {
	case code == "invalid_request":
		return "invalid request"
	case strings.HasPrefix(code, "missing_"):
		return "value is required"
	default:
		return "invalid value"
	}
}
