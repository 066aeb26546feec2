package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	invoicedomain "github.com/smallbiznis/facture/internal/invoice/domain"
)

type createInvoiceRequest struct {
	CustomerID        string                    `json:"customer_id"`
	Currency          string                    `json:"currency"`
	NumberingSystemID *string                   `json:"numbering_system_id,omitempty"`
	TaxRateIDs        []string                  `json:"tax_rate_ids,omitempty"`
	DiscountAmount    int64                     `json:"discount_amount"`
	Lines             []invoicedomain.LineInput `json:"lines"`
}

type voidInvoiceRequest struct {
	Reason string `json:"reason,omitempty"`
}

func (s *Server) CreateInvoice(c *gin.Context) {
	var req createInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.invoiceSvc.Create(c.Request.Context(), invoicedomain.CreateInvoiceRequest{
		CustomerID:        strings.TrimSpace(req.CustomerID),
		Currency:          strings.TrimSpace(req.Currency),
		NumberingSystemID: trimOptionalString(req.NumberingSystemID),
		TaxRateIDs:        req.TaxRateIDs,
		DiscountAmount:    req.DiscountAmount,
		Lines:             req.Lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListInvoices(c *gin.Context) {
	var query struct {
		Status        string `form:"status"`
		CustomerID    string `form:"customer_id"`
		InvoiceNumber string `form:"invoice_number"`
		CreatedFrom   string `form:"created_from"`
		CreatedTo     string `form:"created_to"`
		SortBy        string `form:"sort_by"`
		OrderBy       string `form:"order_by"`
		PageToken     string `form:"page_token"`
		PageSize      int32  `form:"page_size"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	createdFrom, err := parseOptionalTime(query.CreatedFrom, false)
	if err != nil {
		AbortWithError(c, newValidationError("created_from", "invalid_created_from", "invalid created_from"))
		return
	}
	createdTo, err := parseOptionalTime(query.CreatedTo, true)
	if err != nil {
		AbortWithError(c, newValidationError("created_to", "invalid_created_to", "invalid created_to"))
		return
	}

	req := invoicedomain.ListInvoiceRequest{
		CreatedFrom: createdFrom,
		CreatedTo:   createdTo,
		SortBy:      strings.TrimSpace(query.SortBy),
		OrderBy:     strings.TrimSpace(query.OrderBy),
		PageToken:   strings.TrimSpace(query.PageToken),
		PageSize:    query.PageSize,
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		parsed := invoicedomain.InvoiceStatus(status)
		req.Status = &parsed
	}
	if customerID := strings.TrimSpace(query.CustomerID); customerID != "" {
		req.CustomerID = &customerID
	}
	if number := strings.TrimSpace(query.InvoiceNumber); number != "" {
		req.InvoiceNumber = &number
	}

	resp, err := s.invoiceSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetInvoiceByID(c *gin.Context) {
	resp, err := s.invoiceSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) FinalizeInvoice(c *gin.Context) {
	resp, err := s.invoiceSvc.Finalize(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) VoidInvoice(c *gin.Context) {
	var req voidInvoiceRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			AbortWithError(c, invalidRequestError())
			return
		}
	}

	resp, err := s.invoiceSvc.Void(c.Request.Context(), strings.TrimSpace(c.Param("id")), strings.TrimSpace(req.Reason))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
