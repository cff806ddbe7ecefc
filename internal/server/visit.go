package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	visitdomain "github.com/smallbiznis/recaudo/internal/visit/domain"
)

func (s *Server) RecordVisit(c *gin.Context) {
	var req visitdomain.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.visitSvc.Record(c.Request.Context(), visitdomain.RecordRequest{
		ClientID:    strings.TrimSpace(req.ClientID),
		CollectorID: strings.TrimSpace(req.CollectorID),
		Outcome:     strings.TrimSpace(req.Outcome),
		Notes:       strings.TrimSpace(req.Notes),
		PaymentID:   strings.TrimSpace(req.PaymentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListVisits(c *gin.Context) {
	var query visitdomain.ListRequest
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.visitSvc.List(c.Request.Context(), query)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
