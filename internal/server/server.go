package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/facture/internal/config"
	"github.com/smallbiznis/facture/internal/creditnote"
	creditnotedomain "github.com/smallbiznis/facture/internal/creditnote/domain"
	"github.com/smallbiznis/facture/internal/invoice"
	invoicedomain "github.com/smallbiznis/facture/internal/invoice/domain"
	numberingdomain "github.com/smallbiznis/facture/internal/numbering/domain"
	"github.com/smallbiznis/facture/internal/observability"
	obsmiddleware "github.com/smallbiznis/facture/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/facture/internal/observability/metrics"
	obstracing "github.com/smallbiznis/facture/internal/observability/tracing"
	pricingdomain "github.com/smallbiznis/facture/internal/pricing/domain"
	taxdomain "github.com/smallbiznis/facture/internal/tax/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	invoice.Module,
	creditnote.Module,
	fx.Provide(NewServer),
	fx.Invoke(func(s *Server) { s.RegisterRoutes() }),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	taxSvc        taxdomain.Service
	priceSvc      pricingdomain.Service
	numberingSvc  numberingdomain.Service
	invoiceSvc    invoicedomain.Service
	creditNoteSvc creditnotedomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	TaxSvc        taxdomain.Service
	PriceSvc      pricingdomain.Service
	NumberingSvc  numberingdomain.Service
	InvoiceSvc    invoicedomain.Service
	CreditNoteSvc creditnotedomain.Service
}

func NewServer(p ServerParams) *Server {
	return &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		taxSvc:        p.TaxSvc,
		priceSvc:      p.PriceSvc,
		numberingSvc:  p.NumberingSvc,
		invoiceSvc:    p.InvoiceSvc,
		creditNoteSvc: p.CreditNoteSvc,
	}
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) RegisterRoutes() {
	api := s.engine.Group("/api", RequestID(), s.OrgContext())

	// -------- Tax rates --------
	api.GET("/tax_rates", s.ListTaxRates)
	api.POST("/tax_rates", s.CreateTaxRate)
	api.GET("/tax_rates/:id", s.GetTaxRateByID)
	api.PATCH("/tax_rates/:id", s.UpdateTaxRate)
	api.POST("/tax_rates/:id/disable", s.DisableTaxRate)
	api.POST("/tax_rates/calculate", s.CalculateInvoiceTaxes)

	// -------- Prices --------
	api.GET("/prices", s.ListPrices)
	api.POST("/prices", s.CreatePrice)
	api.GET("/prices/:id", s.GetPriceByID)
	api.POST("/prices/:id/disable", s.DisablePrice)
	api.POST("/prices/:id/quote", s.QuotePrice)

	// -------- Numbering systems --------
	api.GET("/numbering_systems", s.ListNumberingSystems)
	api.POST("/numbering_systems", s.CreateNumberingSystem)
	api.GET("/numbering_systems/:id", s.GetNumberingSystemByID)
	api.PATCH("/numbering_systems/:id", s.UpdateNumberingSystem)
	api.POST("/numbering_systems/:id/disable", s.DisableNumberingSystem)
	api.POST("/numbering_systems/:id/next", s.NextNumber)
	api.GET("/numbering_systems/:id/preview", s.PreviewNumber)

	// -------- Invoices --------
	api.GET("/invoices", s.ListInvoices)
	api.POST("/invoices", s.CreateInvoice)
	api.GET("/invoices/:id", s.GetInvoiceByID)
	api.POST("/invoices/:id/finalize", s.FinalizeInvoice)
	api.POST("/invoices/:id/void", s.VoidInvoice)

	// -------- Credit notes --------
	api.GET("/credit_notes", s.ListCreditNotes)
	api.POST("/credit_notes", s.IssueCreditNote)
	api.GET("/credit_notes/:id", s.GetCreditNoteByID)
	api.POST("/credit_notes/:id/void", s.VoidCreditNote)
}
