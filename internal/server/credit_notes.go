package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	creditnotedomain "github.com/smallbiznis/facture/internal/creditnote/domain"
)

type issueCreditNoteRequest struct {
	InvoiceID         string                             `json:"invoice_id"`
	NumberingSystemID *string                            `json:"numbering_system_id,omitempty"`
	Reason            *string                            `json:"reason,omitempty"`
	Lines             []creditnotedomain.CreditLineInput `json:"lines"`
}

func (s *Server) IssueCreditNote(c *gin.Context) {
	var req issueCreditNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.creditNoteSvc.Issue(c.Request.Context(), creditnotedomain.IssueRequest{
		InvoiceID:         strings.TrimSpace(req.InvoiceID),
		NumberingSystemID: trimOptionalString(req.NumberingSystemID),
		Reason:            trimOptionalString(req.Reason),
		Lines:             req.Lines,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCreditNotes(c *gin.Context) {
	var query struct {
		InvoiceID string `form:"invoice_id"`
		Status    string `form:"status"`
		SortBy    string `form:"sort_by"`
		OrderBy   string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	req := creditnotedomain.ListRequest{
		SortBy:  strings.TrimSpace(query.SortBy),
		OrderBy: strings.TrimSpace(query.OrderBy),
	}
	if invoiceID := strings.TrimSpace(query.InvoiceID); invoiceID != "" {
		req.InvoiceID = &invoiceID
	}
	if status := strings.TrimSpace(query.Status); status != "" {
		parsed := creditnotedomain.CreditNoteStatus(status)
		req.Status = &parsed
	}

	resp, err := s.creditNoteSvc.List(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCreditNoteByID(c *gin.Context) {
	resp, err := s.creditNoteSvc.GetByID(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) VoidCreditNote(c *gin.Context) {
	resp, err := s.creditNoteSvc.Void(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}
