package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
)

type createTaxRateRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	RateType    string  `json:"rate_type"`
	Percentage  *string `json:"percentage"`
	FixedAmount *int64  `json:"fixed_amount"`
	Currency    string  `json:"currency"`
	Inclusive   bool    `json:"inclusive"`
	IsEnabled   *bool   `json:"is_enabled"`
}

type updateTaxRateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Percentage  *string `json:"percentage,omitempty"`
	FixedAmount *int64  `json:"fixed_amount,omitempty"`
}

func (s *Server) CreateTaxRate(c *gin.Context) {
	var req createTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	percentage, err := parseOptionalDecimal(req.Percentage)
	if err != nil {
		AbortWithError(c, newValidationError("percentage", "invalid_percentage", "invalid percentage"))
		return
	}

	resp, err := s.taxSvc.Create(c.Request.Context(), taxdomain.CreateRequest{
		Name:        strings.TrimSpace(req.Name),
		Description: trimOptionalString(req.Description),
		RateType:    taxdomain.RateType(strings.TrimSpace(req.RateType)),
		Percentage:  percentage,
		FixedAmount: req.FixedAmount,
		Currency:    strings.TrimSpace(req.Currency),
		Inclusive:   req.Inclusive,
		IsEnabled:   req.IsEnabled,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListTaxRates(c *gin.Context) {
	var query struct {
		Name      string `form:"name"`
		IsEnabled string `form:"is_enabled"`
		SortBy    string `form:"sort_by"`
		OrderBy   string `form:"order_by"`
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

	resp, err := s.taxSvc.List(c.Request.Context(), taxdomain.ListRequest{
		Name:      strings.TrimSpace(query.Name),
		IsEnabled: isEnabled,
		SortBy:    strings.TrimSpace(query.SortBy),
		OrderBy:   strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetTaxRateByID(c *gin.Context) {
	resp, err := s.taxSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateTaxRate(c *gin.Context) {
	var req updateTaxRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	percentage, err := parseOptionalDecimal(req.Percentage)
	if err != nil {
		AbortWithError(c, newValidationError("percentage", "invalid_percentage", "invalid percentage"))
		return
	}

	resp, err := s.taxSvc.Update(c.Request.Context(), taxdomain.UpdateRequest{
		ID:          strings.TrimSpace(c.Param("id")),
		Name:        trimOptionalString(req.Name),
		Description: trimOptionalString(req.Description),
		Percentage:  percentage,
		FixedAmount: req.FixedAmount,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisableTaxRate(c *gin.Context) {
	resp, err := s.taxSvc.Disable(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) CalculateInvoiceTaxes(c *gin.Context) {
	var req taxdomain.CalculateInvoiceTaxesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.taxSvc.CalculateInvoiceTaxes(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func parseOptionalDecimal(value *string) (*decimal.Decimal, error) {
	if value == nil {
		return nil, nil
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(*value))
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}
