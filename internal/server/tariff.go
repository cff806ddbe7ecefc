package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/recaudo/internal/servicetype"
	tariffdomain "github.com/smallbiznis/recaudo/internal/tariff/domain"
)

const dateLayout = "2006-01-02"

func (s *Server) ResolveTariff(c *gin.Context) {
	var query struct {
		ZoneID      string `form:"zone_id"`
		ServiceType string `form:"service_type"`
		AsOfDate    string `form:"as_of_date"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	zoneID, err := snowflake.ParseString(strings.TrimSpace(query.ZoneID))
	if err != nil || zoneID <= 0 {
		AbortWithError(c, tariffdomain.ErrInvalidZone)
		return
	}

	serviceType, err := servicetype.Parse(strings.TrimSpace(query.ServiceType))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	asOf := s.today()
	if raw := strings.TrimSpace(query.AsOfDate); raw != "" {
		parsed, err := time.ParseInLocation(dateLayout, raw, time.UTC)
		if err != nil {
			AbortWithError(c, newValidationError("as_of_date", "invalid_as_of_date", "as_of_date must be YYYY-MM-DD"))
			return
		}
		asOf = parsed
	}

	resp, err := s.tariffSvc.Resolve(c.Request.Context(), zoneID, serviceType, asOf)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CreateTariff(c *gin.Context) {
	var req tariffdomain.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	req.ZoneID = strings.TrimSpace(req.ZoneID)
	req.ServiceType = strings.TrimSpace(req.ServiceType)
	req.EffectiveFrom = strings.TrimSpace(req.EffectiveFrom)

	resp, err := s.tariffSvc.Create(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListTariffs(c *gin.Context) {
	var query struct {
		ZoneID      string `form:"zone_id"`
		ServiceType string `form:"service_type"`
		ActiveOnly  bool   `form:"active_only"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.tariffSvc.List(c.Request.Context(), tariffdomain.ListRequest{
		ZoneID:      strings.TrimSpace(query.ZoneID),
		ServiceType: strings.TrimSpace(query.ServiceType),
		ActiveOnly:  query.ActiveOnly,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeactivateTariff(c *gin.Context) {
	resp, err := s.tariffSvc.Deactivate(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
