package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	auditdomain "github.com/smallbiznis/recaudo/internal/audit/domain"
	"github.com/smallbiznis/recaudo/pkg/db/pagination"
)

func (s *Server) ListAuditEntries(c *gin.Context) {
	var query struct {
		pagination.Pagination
		EntityName string `form:"entity_name"`
		EntityID   string `form:"entity_id"`
		Action     string `form:"action"`
		Actor      string `form:"actor"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.auditSvc.List(c.Request.Context(), auditdomain.ListRequest{
		Pagination: query.Pagination,
		EntityName: strings.TrimSpace(query.EntityName),
		EntityID:   strings.TrimSpace(query.EntityID),
		Action:     strings.TrimSpace(query.Action),
		ActorID:    strings.TrimSpace(query.Actor),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
