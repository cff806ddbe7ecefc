package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	billingcycledomain "github.com/smallbiznis/recaudo/internal/billingcycle/domain"
)

func (s *Server) GenerateBillingCycle(c *gin.Context) {
	month := strings.TrimSpace(c.Param("month"))
	resp, err := s.billingCycleSvc.Generate(c.Request.Context(), month, billingcycledomain.TriggerManual)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListBillingRuns(c *gin.Context) {
	var query struct {
		Limit int `form:"limit,default=20"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.billingCycleSvc.ListRuns(c.Request.Context(), query.Limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
