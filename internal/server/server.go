package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/billingkit/taxengine/internal/audit"
	auditdomain "github.com/billingkit/taxengine/internal/audit/domain"
	"github.com/billingkit/taxengine/internal/config"
	"github.com/billingkit/taxengine/internal/invoice"
	invoicedomain "github.com/billingkit/taxengine/internal/invoice/domain"
	"github.com/billingkit/taxengine/internal/taxcalc"
	"github.com/billingkit/taxengine/internal/taxcalc/adapters"
	taxcalcdomain "github.com/billingkit/taxengine/internal/taxcalc/domain"
	"github.com/billingkit/taxengine/internal/taxrate"
	taxratedomain "github.com/billingkit/taxengine/internal/taxrate/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	config.Module,
	audit.Module,
	taxrate.Module,
	taxcalc.Module,
	invoice.Module,
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin() *gin.Engine {
	return NewEngine()
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
	engine     *gin.Engine
	cfg        config.Config
	db         *gorm.DB
	genID      *snowflake.Node
	auditSvc   auditdomain.Service
	taxRateSvc taxratedomain.Service
	taxCalcSvc taxcalcdomain.Service
	invoiceSvc invoicedomain.Service
	registry   *adapters.Registry
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	DB         *gorm.DB
	GenID      *snowflake.Node
	AuditSvc   auditdomain.Service
	TaxRateSvc taxratedomain.Service
	TaxCalcSvc taxcalcdomain.Service
	InvoiceSvc invoicedomain.Service
	Registry   *adapters.Registry
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		db:         p.DB,
		genID:      p.GenID,
		auditSvc:   p.AuditSvc,
		taxRateSvc: p.TaxRateSvc,
		taxCalcSvc: p.TaxCalcSvc,
		invoiceSvc: p.InvoiceSvc,
		registry:   p.Registry,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	// -------- Tax rates --------
	v1.GET("/tax/rates", s.ListTaxRates)
	v1.POST("/tax/rates", s.CreateTaxRate)
	v1.PATCH("/tax/rates/:id", s.UpdateTaxRate)
	v1.DELETE("/tax/rates/:id", s.DisableTaxRate)

	// -------- Calculations --------
	v1.POST("/tax/calculations", s.CalculateTax)
	v1.POST("/tax/calculations/batch", s.CalculateTaxBatch)

	// -------- Providers --------
	v1.GET("/tax/providers", s.ListTaxProviders)
	v1.GET("/tax/providers/:name/health", s.TaxProviderHealth)

	// -------- Invoices --------
	v1.POST("/invoices", s.CreateInvoice)
	v1.GET("/invoices", s.ListInvoices)
	v1.GET("/invoices/export", s.ExportInvoices)
	v1.GET("/invoices/:id", s.GetInvoice)
	v1.POST("/invoices/:id/finalize", s.FinalizeInvoice)
	v1.POST("/invoices/:id/payments", s.RecordInvoicePayment)
	v1.GET("/invoices/:id/payments", s.ListInvoicePayments)
	v1.POST("/invoices/:id/void", s.VoidInvoice)
	v1.POST("/invoices/:id/uncollectible", s.MarkInvoiceUncollectible)

	// -------- Audit --------
	v1.GET("/audit-logs", s.ListAuditLogs)
}
