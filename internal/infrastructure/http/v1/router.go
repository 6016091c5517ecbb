package v1

import (
	"github.com/gin-gonic/gin"

	"freightdesk/internal/domain/catalogs/batch"
	"freightdesk/internal/domain/catalogs/client"
	"freightdesk/internal/domain/invoice"
	"freightdesk/internal/domain/ledger"
	"freightdesk/internal/domain/shipment"
	"freightdesk/internal/infrastructure/http/v1/dto"
	"freightdesk/internal/infrastructure/http/v1/handlers"
	"freightdesk/internal/infrastructure/http/v1/middleware"
	"freightdesk/pkg/logger"
)

// Services are the domain services exposed over HTTP.
type Services struct {
	Batches   *batch.Service
	Clients   *client.Service
	Shipments *shipment.Service
	Ledger    *ledger.Service
	Invoices  *invoice.Service
}

// RouterConfig holds router configuration.
type RouterConfig struct {
	Services Services

	// DB is probed by /health/ready; Redis is optional.
	DB    handlers.Pinger
	Redis handlers.Pinger

	// Idempotency is nil when X-Idempotency-Key handling is disabled.
	Idempotency middleware.KeyStore

	Logger  *logger.Logger
	Version string
	Debug   bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := dto.RegisterBindingValidators(); err != nil {
		return nil, err
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Recovery())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	api := router.Group("/api/v1")
	api.Use(middleware.Operator())
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	registerCatalogRoutes(api, base, cfg.Services)
	registerShipmentRoutes(api, base, cfg.Services.Shipments)
	registerLedgerRoutes(api, base, cfg.Services.Ledger)
	registerInvoiceRoutes(api, base, cfg.Services.Invoices)

	return router, nil
}

// registerCatalogRoutes registers the batch and client catalogs.
func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc Services) {
	catalogs := rg.Group("/catalog")

	if svc.Batches != nil {
		RegisterCatalogRoutes(catalogs.Group("/batches"), handlers.NewBatchHandler(base, svc.Batches))
	}
	if svc.Clients != nil {
		RegisterCatalogRoutes(catalogs.Group("/clients"), handlers.NewClientHandler(base, svc.Clients))
	}
}

func registerShipmentRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *shipment.Service) {
	if svc == nil {
		return
	}
	h := handlers.NewShipmentHandler(base, svc)

	g := rg.Group("/shipments")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.POST("/derive", h.Derive)
	g.GET("/:id", h.Get)
	g.PUT("/:id", h.Update)
	g.DELETE("/:id", h.Delete)
	g.GET("/:id/history", h.History)
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *ledger.Service) {
	if svc == nil {
		return
	}
	h := handlers.NewLedgerHandler(base, svc)

	g := rg.Group("/clients/:id")
	g.GET("/transactions", h.Statement)
	g.POST("/transactions", h.Append)
	g.GET("/balance", h.Balance)
}

func registerInvoiceRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, svc *invoice.Service) {
	if svc == nil {
		return
	}
	h := handlers.NewInvoiceHandler(base, svc)

	g := rg.Group("/invoices")
	g.GET("", h.List)
	g.POST("", h.Create)
	g.GET("/:id", h.Get)
	g.POST("/:id/status", h.SetStatus)
	g.POST("/:id/link", h.Link)
	g.POST("/:id/regenerate-number", h.RegenerateNumber)
}
