package router

import (
	"time"

	"stallsync/internal/config"
	"stallsync/internal/handler"
	"stallsync/internal/middleware"
	"stallsync/internal/repository"
	"stallsync/internal/service"
	"stallsync/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, dispatcher *worker.Dispatcher) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	siteRepo := repository.NewSiteRepository(db)
	itemRepo := repository.NewStockItemRepository(db)
	movementRepo := repository.NewStockMovementRepository(db)
	saleRepo := repository.NewSaleRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, cfg)
	stockSvc := service.NewStockService(itemRepo, movementRepo, siteRepo)
	ledgerSvc := service.NewLedgerService(itemRepo, movementRepo, siteRepo)
	saleSvc := service.NewSaleService(saleRepo, itemRepo, movementRepo, siteRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	stockH := handler.NewStockHandler(stockSvc, ledgerSvc)
	salesH := handler.NewSalesHandler(saleSvc)
	sitesH := handler.NewSitesHandler(siteRepo)
	importsH := handler.NewImportsHandler(dispatcher, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: staff, manager, admin — declared per endpoint
		anyRole := middleware.RequireRole("staff", "manager", "admin")
		managerUp := middleware.RequireRole("manager", "admin")
		adminOnly := middleware.RequireRole("admin")

		// Stock reads
		v1.GET("/stock", anyRole, stockH.List)
		v1.GET("/stock/low", anyRole, stockH.ListLowStock)
		v1.GET("/stock/:id", anyRole, stockH.Get)
		v1.GET("/movements", anyRole, stockH.ListMovements)

		// Stock writes — manager or admin
		v1.POST("/stock", managerUp, stockH.Create)
		v1.PUT("/stock/:id", managerUp, stockH.Update)
		v1.DELETE("/stock/:id", managerUp, stockH.Delete)
		v1.POST("/stock/batch-set", managerUp, stockH.BatchSetQuantity)
		v1.POST("/stock/batch-delete", managerUp, stockH.BatchDelete)

		// Ledger operations
		v1.POST("/stock/:id/allocate", managerUp, stockH.Allocate)
		v1.POST("/stock/:id/return", managerUp, stockH.Return)
		v1.POST("/stock/:id/transfer", managerUp, stockH.Transfer)
		v1.POST("/stock/:id/quantity", managerUp, stockH.SetQuantity)

		// Sales
		v1.POST("/sales", anyRole, salesH.RecordSale)
		v1.GET("/sales", anyRole, salesH.List)
		v1.GET("/sales/:id", anyRole, salesH.Get)
		v1.DELETE("/sales/:id", managerUp, salesH.Delete)

		// Sites and stalls
		v1.GET("/sites", anyRole, sitesH.ListSites)
		v1.GET("/sites/:id/stalls", anyRole, sitesH.ListStalls)
		v1.POST("/sites", adminOnly, sitesH.CreateSite)
		v1.POST("/sites/:id/stalls", adminOnly, sitesH.CreateStall)

		// Users — admin only
		v1.POST("/users", adminOnly, authH.CreateUser)

		// CSV bulk import — admin only, async
		v1.POST("/imports/stock", adminOnly, importsH.UploadStockCSV)
		v1.GET("/imports/stock/:id", adminOnly, importsH.GetImportResult)
	}

	return r
}
