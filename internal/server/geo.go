package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	geodomain "github.com/smallbiznis/recaudo/internal/geo/domain"
)

type createGeoNodeRequest struct {
	Level    string `json:"level"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	ParentID string `json:"parent_id"`
}

func (s *Server) CreateGeoNode(c *gin.Context) {
	var req createGeoNodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.geoSvc.Create(c.Request.Context(), geodomain.CreateRequest{
		Level:    strings.TrimSpace(req.Level),
		Name:     strings.TrimSpace(req.Name),
		Code:     strings.TrimSpace(req.Code),
		ParentID: strings.TrimSpace(req.ParentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": resp})
}

func (s *Server) ListGeoNodes(c *gin.Context) {
	var query struct {
		Level    string `form:"level"`
		ParentID string `form:"parent_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.geoSvc.List(c.Request.Context(), geodomain.ListRequest{
		Level:    strings.TrimSpace(query.Level),
		ParentID: strings.TrimSpace(query.ParentID),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetGeoNode(c *gin.Context) {
	resp, err := s.geoSvc.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListGeoAncestors(c *gin.Context) {
	resp, err := s.geoSvc.Ancestors(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListGeoDescendants(c *gin.Context) {
	resp, err := s.geoSvc.Descendants(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteGeoNode(c *gin.Context) {
	if err := s.geoSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
