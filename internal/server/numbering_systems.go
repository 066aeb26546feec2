package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
)

type createNumberingSystemRequest struct {
	Name          string `json:"name"`
	DocumentType  string `json:"document_type"`
	Template      string `json:"template"`
	ResetInterval string `json:"reset_interval"`
	IsEnabled     *bool  `json:"is_enabled"`
}

type updateNumberingSystemRequest struct {
	Name          *string `json:"name,omitempty"`
	Template      *string `json:"template,omitempty"`
	ResetInterval *string `json:"reset_interval,omitempty"`
}

type nextNumberRequest struct {
	EffectiveAt string `json:"effective_at,omitempty"`
}

func (s *Server) CreateNumberingSystem(c *gin.Context) {
	var req createNumberingSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.numberingSvc.Create(c.Request.Context(), numberingdomain.CreateRequest{
		Name:          strings.TrimSpace(req.Name),
		DocumentType:  numberingdomain.DocumentType(strings.TrimSpace(req.DocumentType)),
		Template:      strings.TrimSpace(req.Template),
		ResetInterval: strings.TrimSpace(req.ResetInterval),
		IsEnabled:     req.IsEnabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListNumberingSystems(c *gin.Context) {
	var query struct {
		DocumentType string `form:"document_type"`
		IsEnabled    string `form:"is_enabled"`
		SortBy       string `form:"sort_by"`
		OrderBy      string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	isEnabled, err := parseOptionalBool(query.IsEnabled)
	if err != nil {
		AbortWithError(c, newValidationError("is_enabled", "invalid_is_enabled", "invalid is_enabled"))
		return
	}

	resp, err := s.numberingSvc.List(c.Request.Context(), numberingdomain.ListRequest{
		DocumentType: strings.TrimSpace(query.DocumentType),
		IsEnabled:    isEnabled,
		SortBy:       strings.TrimSpace(query.SortBy),
		OrderBy:      strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetNumberingSystemByID(c *gin.Context) {
	resp, err := s.numberingSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateNumberingSystem(c *gin.Context) {
	var req updateNumberingSystemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.numberingSvc.Update(c.Request.Context(), numberingdomain.UpdateRequest{
		ID:            strings.TrimSpace(c.Param("id")),
		Name:          trimOptionalString(req.Name),
		Template:      trimOptionalString(req.Template),
		ResetInterval: trimOptionalString(req.ResetInterval),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableNumberingSystem(c *gin.Context) {
	resp, err := s.numberingSvc.Disable(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) NextNumber(c *gin.Context) {
	var req nextNumberRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	effectiveAt, err := parseOptionalTime(req.EffectiveAt, false)
	if err != nil {
		AbortWithError(c, newValidationError("effective_at", "invalid_effective_at", "invalid effective_at"))
		return
	}

	resp, err := s.numberingSvc.NextNumber(c.Request.Context(), numberingdomain.NextNumberRequest{
		SystemID:    strings.TrimSpace(c.Param("id")),
		EffectiveAt: effectiveAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) PreviewNumber(c *gin.Context) {
	effectiveAt, err := parseOptionalTime(c.Query("effective_at"), false)
	if err != nil {
		AbortWithError(c, newValidationError("effective_at", "invalid_effective_at", "invalid effective_at"))
		return
	}

	resp, err := s.numberingSvc.Preview(c.Request.Context(), numberingdomain.NextNumberRequest{
		SystemID:    strings.TrimSpace(c.Param("id")),
		EffectiveAt: effectiveAt,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
