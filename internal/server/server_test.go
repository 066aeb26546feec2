package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/facture/internal/config"
	"github.com/smallbiznis/facture/internal/orgcontext"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
)

type fakeTaxService struct {
	createCalls int
	lastCreate  taxdomain.CreateRequest
	lastOrgID   int64
	createErr   error
	getErr      error
}

func (f *fakeTaxService) Create(ctx context.Context, req taxdomain.CreateRequest) (*taxdomain.Response, error) {
	f.createCalls++
	f.lastCreate = req
	if orgID, ok := orgcontext.OrgIDFromContext(ctx); ok {
		f.lastOrgID = orgID.Int64()
	}
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &taxdomain.Response{ID: "1", Name: req.Name}, nil
}

func (f *fakeTaxService) List(ctx context.Context, req taxdomain.ListRequest) ([]taxdomain.Response, error) {
	_ = ctx
	_ = req
	return nil, nil
}

func (f *fakeTaxService) GetByID(ctx context.Context, id string) (*taxdomain.Response, error) {
	_ = ctx
	_ = id
	if f.getErr != nil {
		return nil, f.getErr
	}
	return &taxdomain.Response{ID: id}, nil
}

func (f *fakeTaxService) Update(ctx context.Context, req taxdomain.UpdateRequest) (*taxdomain.Response, error) {
	_ = ctx
	return &taxdomain.Response{ID: req.ID}, nil
}

func (f *fakeTaxService) Disable(ctx context.Context, id string) (*taxdomain.Response, error) {
	_ = ctx
	return &taxdomain.Response{ID: id}, nil
}

func (f *fakeTaxService) CalculateInvoiceTaxes(ctx context.Context, req taxdomain.CalculateInvoiceTaxesRequest) (taxdomain.CalculateInvoiceTaxesResponse, error) {
	_ = ctx
	_ = req
	return taxdomain.CalculateInvoiceTaxesResponse{}, nil
}

func newTestRouter(srv *Server) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandlingMiddleware())
	api := router.Group("/api", srv.OrgContext())
	api.POST("/tax_rates", srv.CreateTaxRate)
	api.GET("/tax_rates/:id", srv.GetTaxRateByID)
	return router
}

func TestOrgContextRejectsMissingOrg(t *testing.T) {
	taxSvc := &fakeTaxService{}
	srv := &Server{cfg: config.Config{}, taxSvc: taxSvc}
	router := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodPost, "/api/tax_rates", bytes.NewBufferString(`{"name":"VAT"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
	if taxSvc.createCalls != 0 {
		t.Fatal("expected handler not to be reached without an org")
	}
}

func TestOrgContextUsesHeaderOverDefault(t *testing.T) {
	taxSvc := &fakeTaxService{}
	srv := &Server{cfg: config.Config{DefaultOrgID: 7}, taxSvc: taxSvc}
	router := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodPost, "/api/tax_rates", bytes.NewBufferString(`{"name":"  VAT  ","rate_type":"PERCENTAGE","percentage":"19"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(orgHeader, "42")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if taxSvc.lastOrgID != 42 {
		t.Fatalf("expected org 42 in context, got %d", taxSvc.lastOrgID)
	}
	if taxSvc.lastCreate.Name != "VAT" {
		t.Fatalf("expected trimmed name, got %q", taxSvc.lastCreate.Name)
	}
}

func TestErrorMappingNotFound(t *testing.T) {
	taxSvc := &fakeTaxService{getErr: taxdomain.ErrNotFound}
	srv := &Server{cfg: config.Config{DefaultOrgID: 7}, taxSvc: taxSvc}
	router := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodGet, "/api/tax_rates/999", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", resp.Code)
	}
}

func TestErrorMappingValidation(t *testing.T) {
	taxSvc := &fakeTaxService{createErr: taxdomain.ErrInvalidPercentage}
	srv := &Server{cfg: config.Config{DefaultOrgID: 7}, taxSvc: taxSvc}
	router := newTestRouter(srv)

	req := httptest.NewRequest(http.MethodPost, "/api/tax_rates", bytes.NewBufferString(`{"name":"VAT","rate_type":"PERCENTAGE","percentage":"x y"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	var body errorResponse
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	if body.Error.Type != "validation_error" {
		t.Fatalf("expected validation_error, got %q", body.Error.Type)
	}
	if len(body.Error.Errors) == 0 || body.Error.Errors[0].Code != "invalid_percentage" {
		t.Fatalf("unexpected validation payload: %+v", body.Error.Errors)
	}
}
