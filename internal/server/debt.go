package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	debtdomain "github.com/smallbiznis/recaudo/internal/debt/domain"
)

func (s *Server) ListDebts(c *gin.Context) {
	var query struct {
		ClientID     string `form:"client_id"`
		Status       string `form:"status"`
		BillingMonth string `form:"billing_month"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.debtSvc.List(c.Request.Context(), debtdomain.ListRequest{
		ClientID:     strings.TrimSpace(query.ClientID),
		Status:       strings.TrimSpace(query.Status),
		BillingMonth: strings.TrimSpace(query.BillingMonth),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) SweepDebts(c *gin.Context) {
	var req struct {
		AsOfDate string `json:"as_of_date"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	asOf := s.debtSvc.Today()
	if raw := strings.TrimSpace(req.AsOfDate); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			AbortWithError(c, newValidationError("as_of_date", "invalid_as_of_date", "as_of_date must be YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	expired, err := s.debtSvc.Sweep(c.Request.Context(), asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{
		"as_of_date":    asOf.Format(dateLayout),
		"expired_count": expired,
	}})
}
