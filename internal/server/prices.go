package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	pricingdomain "github.com/smallbiznis/facture/internal/pricing/domain"
)

type createPriceRequest struct {
	Name         string                    `json:"name"`
	LookupKey    *string                   `json:"lookup_key,omitempty"`
	Currency     string                    `json:"currency"`
	PricingModel string                    `json:"pricing_model"`
	UnitAmount   *int64                    `json:"unit_amount,omitempty"`
	Tiers        []pricingdomain.TierInput `json:"tiers,omitempty"`
}

type quotePriceRequest struct {
	Quantity int64 `json:"quantity"`
}

func (s *Server) CreatePrice(c *gin.Context) {
	var req createPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceSvc.Create(c.Request.Context(), pricingdomain.CreateRequest{
		Name:         strings.TrimSpace(req.Name),
		LookupKey:    trimOptionalString(req.LookupKey),
		Currency:     strings.TrimSpace(req.Currency),
		PricingModel: pricingdomain.PricingModel(strings.TrimSpace(req.PricingModel)),
		UnitAmount:   req.UnitAmount,
		Tiers:        req.Tiers,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListPrices(c *gin.Context) {
	var query struct {
		Currency     string `form:"currency"`
		PricingModel string `form:"pricing_model"`
		LookupKey    string `form:"lookup_key"`
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

	resp, err := s.priceSvc.List(c.Request.Context(), pricingdomain.ListRequest{
		Currency:     strings.TrimSpace(query.Currency),
		PricingModel: strings.TrimSpace(query.PricingModel),
		LookupKey:    strings.TrimSpace(query.LookupKey),
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

func (s *Server) GetPriceByID(c *gin.Context) {
	resp, err := s.priceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DisablePrice(c *gin.Context) {
	resp, err := s.priceSvc.Disable(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) QuotePrice(c *gin.Context) {
	var req quotePriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.priceSvc.Quote(c.Request.Context(), pricingdomain.QuoteRequest{
		PriceID:  strings.TrimSpace(c.Param("id")),
		Quantity: req.Quantity,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
